package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.AuthService == nil {
		return nil, fmt.Errorf("router: auth service is required")
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
	}
	router.Use(authMiddleware.Handler())

	// Inject auth data for templates
	router.Use(AuthContextMiddleware(cfg.AuthConfig.Mode))

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	policy := accessPolicy{enforced: cfg.AuthConfig.Mode == config.AuthModeLocal}
	requireCompany := authMiddleware.RequireRole(entities.RoleCompany)
	requireInfluencer := authMiddleware.RequireRole(entities.RoleInfluencer)

	// Auth routes: token endpoint always, login pages when sessions exist
	auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.Logger).RegisterRoutes(router)

	// Health endpoints
	health := NewHealthController(nil, cfg.Version)
	if cfg.Database != nil {
		health = NewHealthController(cfg.Database, cfg.Version)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	companies := NewCompaniesController(cfg.Companies, cfg.AuthService, policy, cfg.Logger)
	influencers := NewInfluencersController(cfg.Influencers, cfg.Applications, cfg.AuthService, policy, cfg.Logger)
	announcements := NewAnnouncementsController(cfg.Announcements, cfg.Companies, policy, cfg.Logger)
	applications := NewApplicationsController(cfg.Applications, cfg.Announcements, policy, cfg.Logger)

	api := router.Group("/api")
	{
		api.POST("/companies", companies.CreateCompany)
		api.GET("/companies", companies.ListCompanies)
		api.GET("/companies/:id", companies.GetCompany)
		api.DELETE("/companies/:id", requireCompany, companies.DeleteCompany)

		api.POST("/influencers", influencers.CreateInfluencer)
		api.GET("/influencers", influencers.ListInfluencers)
		api.GET("/influencers/:id", influencers.GetInfluencer)
		api.GET("/influencers/:id/applications", influencers.ListApplications)
		api.DELETE("/influencers/:id", requireInfluencer, influencers.DeleteInfluencer)

		api.POST("/announcements", requireCompany, announcements.CreateAnnouncement)
		api.GET("/announcements", announcements.ListAnnouncements)
		api.GET("/announcements/:id", announcements.GetAnnouncement)
		api.PATCH("/announcements/:id", requireCompany, announcements.UpdateStatus)
		api.DELETE("/announcements/:id", requireCompany, announcements.DeleteAnnouncement)

		api.POST("/announcements/:id/applications", requireInfluencer, applications.Apply)
		api.GET("/announcements/:id/applications", applications.ListForAnnouncement)
		api.PATCH("/applications/:id", requireCompany, applications.UpdateStatus)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.Logger)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", authMiddleware.RequireAuth(), tasksController.RunTask)
	}

	// UI routes
	ui := NewUIController(cfg.Announcements, cfg.Companies, cfg.Influencers, cfg.Applications, policy, cfg.SiteName, cfg.Logger)
	router.GET("/", ui.AnnouncementsPage)
	router.GET("/announcements/new", requireCompany, ui.NewAnnouncementPage)
	router.POST("/announcements/new", requireCompany, ui.CreateAnnouncement)
	router.GET("/announcements/:id", ui.AnnouncementPage)
	router.POST("/announcements/:id/apply", requireInfluencer, ui.Apply)
	router.GET("/companies/:id", ui.CompanyPage)
	router.GET("/influencers/:id", ui.InfluencerPage)

	return router, nil
}
