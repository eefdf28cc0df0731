package http

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/entities"
)

// maxMessageLength matches the applications.message column.
const maxMessageLength = 2000

type ApplicationsController struct {
	store         ApplicationStore
	announcements AnnouncementStore
	policy        accessPolicy
	logger        zerolog.Logger
}

func NewApplicationsController(store ApplicationStore, announcements AnnouncementStore, policy accessPolicy, logger zerolog.Logger) *ApplicationsController {
	return &ApplicationsController{
		store:         store,
		announcements: announcements,
		policy:        policy,
		logger:        logger,
	}
}

type applyRequest struct {
	InfluencerID uint   `json:"influencer_id"` // Ignored when accounts are enforced
	Message      string `json:"message"`
}

// Apply handles POST /api/announcements/:id/applications
func (ac *ApplicationsController) Apply(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req applyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	app, status, err := ac.apply(c, announcementID, ac.policy.actingID(c, req.InfluencerID), req.Message)
	if err != nil {
		if status == http.StatusBadRequest {
			respondBadRequest(c, err.Error())
			return
		}
		respondStoreError(c, ac.logger, err, "apply")
		return
	}
	c.JSON(http.StatusCreated, app)
}

// apply validates the input and records the application. Shared by the API
// and the website.
func (ac *ApplicationsController) apply(c *gin.Context, announcementID, influencerID uint, message string) (*entities.Application, int, error) {
	if influencerID == 0 {
		return nil, http.StatusBadRequest, errInfluencerRequired
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, http.StatusBadRequest, errMessageTooLong
	}

	app, err := ac.store.Apply(c.Request.Context(), announcementID, influencerID, message)
	if err != nil {
		status, _ := errorStatus(err)
		return nil, status, err
	}

	ac.logger.Info().
		Uint("application_id", app.ID).
		Uint("announcement_id", announcementID).
		Uint("influencer_id", influencerID).
		Msg("application received")
	return app, http.StatusCreated, nil
}

// ListForAnnouncement handles GET /api/announcements/:id/applications
func (ac *ApplicationsController) ListForAnnouncement(c *gin.Context) {
	announcementID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	_, found, err := ac.announcements.GetOne(c.Request.Context(), announcementID)
	if err != nil {
		respondInternalError(c, ac.logger, err, "get announcement")
		return
	}
	if !found {
		respondNotFound(c, "announcement")
		return
	}

	list, err := ac.store.ListForAnnouncement(c.Request.Context(), announcementID)
	if err != nil {
		respondInternalError(c, ac.logger, err, "list applications")
		return
	}
	if list == nil {
		list = []entities.Application{}
	}
	c.JSON(http.StatusOK, gin.H{"applications": list, "total": len(list)})
}

type updateApplicationRequest struct {
	Status entities.ApplicationStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /api/applications/:id. Only the company that
// owns the announcement may accept or reject.
func (ac *ApplicationsController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	if !req.Status.Valid() {
		respondBadRequest(c, "status must be pending, accepted or rejected")
		return
	}

	ctx := c.Request.Context()
	app, err := ac.store.Get(ctx, id)
	if err != nil {
		respondStoreError(c, ac.logger, err, "get application")
		return
	}

	announcement, found, err := ac.announcements.GetOne(ctx, app.AnnouncementID)
	if err != nil {
		respondInternalError(c, ac.logger, err, "get announcement")
		return
	}
	if !found || !ac.policy.canModify(c, entities.RoleCompany, announcement.CompanyID) {
		respondForbidden(c)
		return
	}

	updated, err := ac.store.SetStatus(ctx, id, req.Status)
	if err != nil {
		respondStoreError(c, ac.logger, err, "update application")
		return
	}

	ac.logger.Info().Uint("application_id", id).Str("status", string(req.Status)).Msg("application updated")
	c.JSON(http.StatusOK, updated)
}
