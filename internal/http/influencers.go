package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/database/influencers"
	"github.com/mrlokans/influence/internal/entities"
)

type InfluencersController struct {
	store        InfluencerStore
	applications ApplicationStore
	registrar    Registrar
	policy       accessPolicy
	logger       zerolog.Logger
}

func NewInfluencersController(store InfluencerStore, applications ApplicationStore, registrar Registrar, policy accessPolicy, logger zerolog.Logger) *InfluencersController {
	return &InfluencersController{
		store:        store,
		applications: applications,
		registrar:    registrar,
		policy:       policy,
		logger:       logger,
	}
}

type createInfluencerRequest struct {
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Bio       string   `json:"bio"`
	Platform  string   `json:"platform"`
	Followers int      `json:"followers"`
	Subjects  []string `json:"subjects"`
}

// CreateInfluencer registers an influencer together with their subjects.
func (ic *InfluencersController) CreateInfluencer(c *gin.Context) {
	var req createInfluencerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}
	if req.Followers < 0 {
		respondBadRequest(c, "followers must not be negative")
		return
	}

	influencer := &entities.Influencer{
		Name:      req.Name,
		Email:     req.Email,
		Bio:       req.Bio,
		Platform:  req.Platform,
		Followers: req.Followers,
		Subjects:  req.Subjects,
	}
	id, err := ic.registrar.RegisterInfluencer(c.Request.Context(), influencer, req.Password)
	if err != nil {
		respondStoreError(c, ic.logger, err, "create influencer")
		return
	}

	ic.logger.Info().Uint("influencer_id", id).Int("subjects", len(req.Subjects)).Msg("influencer created")
	respondCreated(c, id)
}

// ListInfluencers supports ?subject= and ?platform= filters.
func (ic *InfluencersController) ListInfluencers(c *gin.Context) {
	filter := influencers.Filter{
		Subject:  c.Query("subject"),
		Platform: c.Query("platform"),
	}
	list, err := ic.store.List(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, ic.logger, err, "list influencers")
		return
	}
	if list == nil {
		list = []entities.Influencer{}
	}
	c.JSON(http.StatusOK, gin.H{"influencers": list, "total": len(list)})
}

func (ic *InfluencersController) GetInfluencer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	influencer, found, err := ic.store.GetOne(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ic.logger, err, "get influencer")
		return
	}
	if !found {
		respondNotFound(c, "influencer")
		return
	}
	c.JSON(http.StatusOK, influencer)
}

// ListApplications returns the influencer's applications, newest first.
func (ic *InfluencersController) ListApplications(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := ic.applications.ListForInfluencer(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ic.logger, err, "list influencer applications")
		return
	}
	if list == nil {
		list = []entities.Application{}
	}
	c.JSON(http.StatusOK, gin.H{"applications": list, "total": len(list)})
}

func (ic *InfluencersController) DeleteInfluencer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !ic.policy.canModify(c, entities.RoleInfluencer, id) {
		respondForbidden(c)
		return
	}

	if err := ic.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, ic.logger, err, "delete influencer")
		return
	}
	c.Status(http.StatusNoContent)
}
