package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/database"
)

// isLocalPath reports whether path is safe to redirect to after login.
func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return false
	}
	return !strings.Contains(path, "://") && !strings.Contains(path, "\\")
}

func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController serves the login pages and the API token endpoint. Pages are
// rendered through the engine's HTML templates ("login.html").
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
}

// NewAuthController creates a controller. sessionManager may be nil when the
// website login is disabled; the token endpoint still works.
func NewAuthController(service *Service, sessionManager *SessionManager, logger zerolog.Logger) *AuthController {
	cfg := service.Config()
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    NewRateLimiter(cfg.MaxLoginAttempts, cfg.RateLimitWindow, cfg.LockoutDuration),
		logger:         logger,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/api/auth/token", ac.IssueToken)
	if ac.sessionManager == nil {
		return
	}
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	ac.renderLogin(c, http.StatusOK, "", sanitizeRedirectPath(c.Query("next")), c.Query("error"))
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	email := database.NormalizeEmail(c.PostForm("email"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		ac.renderLogin(c, http.StatusTooManyRequests, email, next, "Too many login attempts. Please try again later.")
		return
	}

	account, err := ac.service.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			ac.logger.Error().Err(err).Msg("login failed")
		}
		ac.rateLimiter.RecordFailure(clientIP, email)
		ac.renderLogin(c, http.StatusUnauthorized, email, next, "Invalid email or password")
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, email)

	if err := ac.sessionManager.CreateSession(c.Request, account); err != nil {
		ac.logger.Error().Err(err).Msg("failed to create session")
		ac.renderLogin(c, http.StatusInternalServerError, email, next, "Failed to create session")
		return
	}

	ac.logger.Info().Str("role", string(account.Role)).Uint("account_id", account.ID).Msg("logged in")
	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	_ = ac.sessionManager.DestroySession(c.Request)
	c.Redirect(http.StatusFound, "/login")
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, email, next, errMsg string) {
	c.HTML(status, "login.html", gin.H{
		"Title":     "Login",
		"Email":     email,
		"Next":      next,
		"CSRFToken": GetCSRFToken(c),
		"Error":     errMsg,
	})
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	AccountID uint   `json:"account_id"`
	Name      string `json:"name"`
}

// IssueToken exchanges an email and password for a new API token.
func (ac *AuthController) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	email := database.NormalizeEmail(req.Email)
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	account, err := ac.service.Authenticate(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.rateLimiter.RecordFailure(clientIP, email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ac.logger.Error().Err(err).Msg("token authentication failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, email)

	token, err := ac.service.IssueToken(c.Request.Context(), account)
	if err != nil {
		ac.logger.Error().Err(err).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Token:     token,
		Role:      string(account.Role),
		AccountID: account.ID,
		Name:      account.Name,
	})
}
