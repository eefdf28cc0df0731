package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/entities"
)

type CompaniesController struct {
	store     CompanyStore
	registrar Registrar
	policy    accessPolicy
	logger    zerolog.Logger
}

func NewCompaniesController(store CompanyStore, registrar Registrar, policy accessPolicy, logger zerolog.Logger) *CompaniesController {
	return &CompaniesController{
		store:     store,
		registrar: registrar,
		policy:    policy,
		logger:    logger,
	}
}

type createCompanyRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Description string   `json:"description"`
	Website     string   `json:"website"`
	Domains     []string `json:"domains"`
}

// CreateCompany registers a company together with its domains.
func (cc *CompaniesController) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	company := &entities.Company{
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Website:     req.Website,
		Domains:     req.Domains,
	}
	id, err := cc.registrar.RegisterCompany(c.Request.Context(), company, req.Password)
	if err != nil {
		respondStoreError(c, cc.logger, err, "create company")
		return
	}

	cc.logger.Info().Uint("company_id", id).Int("domains", len(req.Domains)).Msg("company created")
	respondCreated(c, id)
}

func (cc *CompaniesController) ListCompanies(c *gin.Context) {
	list, err := cc.store.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, cc.logger, err, "list companies")
		return
	}
	if list == nil {
		list = []entities.Company{}
	}
	c.JSON(http.StatusOK, gin.H{"companies": list, "total": len(list)})
}

func (cc *CompaniesController) GetCompany(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	company, found, err := cc.store.GetOne(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, cc.logger, err, "get company")
		return
	}
	if !found {
		respondNotFound(c, "company")
		return
	}
	c.JSON(http.StatusOK, company)
}

// DeleteCompany removes a company with its domains and announcements.
func (cc *CompaniesController) DeleteCompany(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !cc.policy.canModify(c, entities.RoleCompany, id) {
		respondForbidden(c)
		return
	}

	if err := cc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, cc.logger, err, "delete company")
		return
	}
	c.Status(http.StatusNoContent)
}
