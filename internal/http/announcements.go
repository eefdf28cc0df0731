package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/entities"
)

var (
	errTitleRequired   = errors.New("title is required")
	errEndDateRequired = errors.New("end_date is required")
	errEndBeforeStart  = errors.New("end_date must not be before start_date")
	errNegativeNumber  = errors.New("max_applicants and payment must not be negative")
	errCompanyRequired = errors.New("company_id is required")

	errInfluencerRequired = errors.New("influencer_id is required")
	errMessageTooLong     = fmt.Errorf("message must be at most %d characters", maxMessageLength)
)

// validateAnnouncement checks what the database would not reject by itself.
func validateAnnouncement(a *entities.Announcement) error {
	switch {
	case a.Title == "":
		return errTitleRequired
	case a.EndDate.IsZero():
		return errEndDateRequired
	case !a.StartDate.IsZero() && a.EndDate.Before(a.StartDate):
		return errEndBeforeStart
	case a.MaxApplicants < 0 || a.Payment < 0:
		return errNegativeNumber
	case a.CompanyID == 0:
		return errCompanyRequired
	}
	return auth.ValidateChildValues(a.Subjects)
}

type AnnouncementsController struct {
	store     AnnouncementStore
	companies CompanyStore
	policy    accessPolicy
	logger    zerolog.Logger
}

func NewAnnouncementsController(store AnnouncementStore, companies CompanyStore, policy accessPolicy, logger zerolog.Logger) *AnnouncementsController {
	return &AnnouncementsController{
		store:     store,
		companies: companies,
		policy:    policy,
		logger:    logger,
	}
}

type createAnnouncementRequest struct {
	CompanyID     uint      `json:"company_id"` // Ignored when accounts are enforced
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MaxApplicants int       `json:"max_applicants"`
	Payment       int64     `json:"payment"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Subjects      []string  `json:"subjects"`
}

// CreateAnnouncement stores an announcement and its subjects in one
// transaction.
func (ac *AnnouncementsController) CreateAnnouncement(c *gin.Context) {
	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	a := &entities.Announcement{
		CompanyID:     ac.policy.actingID(c, req.CompanyID),
		Title:         req.Title,
		Description:   req.Description,
		MaxApplicants: req.MaxApplicants,
		Payment:       req.Payment,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Subjects:      req.Subjects,
	}
	id, status, err := ac.create(c, a)
	if err != nil {
		if status == http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
			respondStoreError(c, ac.logger, err, "create announcement")
			return
		}
		respondError(c, status, err.Error())
		return
	}
	respondCreated(c, id)
}

// create validates and stores a; the returned status says how a failure
// should be reported. Shared by the API and the website form.
func (ac *AnnouncementsController) create(c *gin.Context, a *entities.Announcement) (uint, int, error) {
	if a.StartDate.IsZero() {
		a.StartDate = time.Now()
	}
	if err := validateAnnouncement(a); err != nil {
		return 0, http.StatusBadRequest, err
	}

	_, found, err := ac.companies.GetOne(c.Request.Context(), a.CompanyID)
	if err != nil {
		return 0, http.StatusInternalServerError, err
	}
	if !found {
		return 0, http.StatusNotFound, errors.New("company not found")
	}

	id, err := ac.store.Create(c.Request.Context(), a)
	if err != nil {
		status, _ := errorStatus(err)
		return 0, status, err
	}

	ac.logger.Info().
		Uint("announcement_id", id).
		Uint("company_id", a.CompanyID).
		Int("subjects", len(a.Subjects)).
		Msg("announcement created")
	return id, http.StatusCreated, nil
}

// ListAnnouncements supports ?company_id=, ?subject=, ?status= and ?limit=.
func (ac *AnnouncementsController) ListAnnouncements(c *gin.Context) {
	companyID, ok := parseOptionalQueryID(c, "company_id")
	if !ok {
		return
	}
	status := entities.AnnouncementStatus(c.Query("status"))
	if status != "" && status != entities.AnnouncementOpen && status != entities.AnnouncementClosed {
		respondBadRequest(c, "status must be open or closed")
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	list, err := ac.store.List(c.Request.Context(), announcements.Filter{
		CompanyID: companyID,
		Subject:   c.Query("subject"),
		Status:    status,
		Limit:     limit,
	})
	if err != nil {
		respondInternalError(c, ac.logger, err, "list announcements")
		return
	}
	if list == nil {
		list = []entities.Announcement{}
	}
	c.JSON(http.StatusOK, gin.H{"announcements": list, "total": len(list)})
}

// GetAnnouncement returns the announcement with its subjects and company name.
func (ac *AnnouncementsController) GetAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	a, found, err := ac.store.GetOne(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ac.logger, err, "get announcement")
		return
	}
	if !found {
		respondNotFound(c, "announcement")
		return
	}
	c.JSON(http.StatusOK, a)
}

// loadOwned fetches the announcement and checks the caller owns it. It has
// already responded when ok is false.
func (ac *AnnouncementsController) loadOwned(c *gin.Context) (*entities.Announcement, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	a, found, err := ac.store.GetOne(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ac.logger, err, "get announcement")
		return nil, false
	}
	if !found {
		respondNotFound(c, "announcement")
		return nil, false
	}
	if !ac.policy.canModify(c, entities.RoleCompany, a.CompanyID) {
		respondForbidden(c)
		return nil, false
	}
	return a, true
}

type updateAnnouncementStatusRequest struct {
	Status entities.AnnouncementStatus `json:"status" binding:"required"`
}

// UpdateStatus opens or closes an announcement.
func (ac *AnnouncementsController) UpdateStatus(c *gin.Context) {
	var req updateAnnouncementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}
	if req.Status != entities.AnnouncementOpen && req.Status != entities.AnnouncementClosed {
		respondBadRequest(c, "status must be open or closed")
		return
	}

	a, ok := ac.loadOwned(c)
	if !ok {
		return
	}
	if err := ac.store.SetStatus(c.Request.Context(), a.ID, req.Status); err != nil {
		respondStoreError(c, ac.logger, err, "update announcement status")
		return
	}
	a.Status = req.Status
	c.JSON(http.StatusOK, a)
}

// DeleteAnnouncement removes the announcement, its subjects and applications.
func (ac *AnnouncementsController) DeleteAnnouncement(c *gin.Context) {
	a, ok := ac.loadOwned(c)
	if !ok {
		return
	}
	if err := ac.store.Delete(c.Request.Context(), a.ID); err != nil {
		respondStoreError(c, ac.logger, err, "delete announcement")
		return
	}
	c.Status(http.StatusNoContent)
}
