package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/entities"
)

// UIController serves the website. Writes reuse the API controllers'
// validation so both surfaces accept the same data.
type UIController struct {
	announcements AnnouncementStore
	companies     CompanyStore
	influencers   InfluencerStore
	applications  ApplicationStore

	announcementsAPI *AnnouncementsController
	applicationsAPI  *ApplicationsController

	policy   accessPolicy
	siteName string
	logger   zerolog.Logger
}

func NewUIController(
	announcementStore AnnouncementStore,
	companies CompanyStore,
	influencerStore InfluencerStore,
	applicationStore ApplicationStore,
	policy accessPolicy,
	siteName string,
	logger zerolog.Logger,
) *UIController {
	return &UIController{
		announcements:    announcementStore,
		companies:        companies,
		influencers:      influencerStore,
		applications:     applicationStore,
		announcementsAPI: NewAnnouncementsController(announcementStore, companies, policy, logger),
		applicationsAPI:  NewApplicationsController(applicationStore, announcementStore, policy, logger),
		policy:           policy,
		siteName:         siteName,
		logger:           logger,
	}
}

func (ui *UIController) render(c *gin.Context, status int, name string, data gin.H) {
	data["Auth"] = GetAuthTemplateData(c)
	data["SiteName"] = ui.siteName
	c.HTML(status, name, data)
}

func (ui *UIController) renderError(c *gin.Context, status int, message string) {
	ui.render(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// pageID parses the :id parameter, rendering the error page when invalid.
func (ui *UIController) pageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		ui.renderError(c, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

// AnnouncementsPage lists open announcements, optionally by ?subject=.
func (ui *UIController) AnnouncementsPage(c *gin.Context) {
	subject := strings.TrimSpace(c.Query("subject"))
	list, err := ui.announcements.List(c.Request.Context(), announcements.Filter{
		Subject: subject,
		Status:  entities.AnnouncementOpen,
	})
	if err != nil {
		ui.logger.Error().Err(err).Msg("failed to load announcements")
		ui.renderError(c, http.StatusInternalServerError, "Error loading announcements")
		return
	}

	ui.render(c, http.StatusOK, "announcements.html", gin.H{
		"Title":         "Open announcements",
		"Announcements": list,
		"Subject":       subject,
	})
}

// AnnouncementPage shows one announcement with its applications.
func (ui *UIController) AnnouncementPage(c *gin.Context) {
	id, ok := ui.pageID(c)
	if !ok {
		return
	}

	a, found, err := ui.announcements.GetOne(c.Request.Context(), id)
	if err != nil {
		ui.logger.Error().Err(err).Uint("announcement_id", id).Msg("failed to load announcement")
		ui.renderError(c, http.StatusInternalServerError, "Error loading announcement")
		return
	}
	if !found {
		ui.renderError(c, http.StatusNotFound, "Announcement not found")
		return
	}

	apps, err := ui.applications.ListForAnnouncement(c.Request.Context(), id)
	if err != nil {
		ui.logger.Error().Err(err).Uint("announcement_id", id).Msg("failed to load applications")
		ui.renderError(c, http.StatusInternalServerError, "Error loading applications")
		return
	}

	authData := GetAuthTemplateData(c)
	ui.render(c, http.StatusOK, "announcement.html", gin.H{
		"Title":        a.Title,
		"Announcement": a,
		"Applications": apps,
		"CanApply":     a.Status == entities.AnnouncementOpen && (!authData.Enabled || authData.IsInfluencer()),
		"IsOwner":      authData.IsCompany() && authData.AccountID == a.CompanyID,
		"Applied":      c.Query("applied") != "",
		"Error":        c.Query("error"),
	})
}

// Apply handles the application form on the announcement page.
func (ui *UIController) Apply(c *gin.Context) {
	id, ok := ui.pageID(c)
	if !ok {
		return
	}

	var requested uint
	if s := c.PostForm("influencer_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			ui.redirectWithError(c, fmt.Sprintf("/announcements/%d", id), "Invalid influencer ID")
			return
		}
		requested = uint(n)
	}

	_, status, err := ui.applicationsAPI.apply(c, id, ui.policy.actingID(c, requested), c.PostForm("message"))
	if err != nil {
		message := err.Error()
		if status == http.StatusInternalServerError {
			ui.logger.Error().Err(err).Uint("announcement_id", id).Msg("failed to apply")
			message = "Something went wrong, please try again"
		}
		ui.redirectWithError(c, fmt.Sprintf("/announcements/%d", id), message)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/announcements/%d?applied=1", id))
}

func (ui *UIController) redirectWithError(c *gin.Context, path, message string) {
	c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(message))
}

// announcementForm holds the raw form values so they can be re-rendered.
type announcementForm struct {
	CompanyID     string
	Title         string
	Description   string
	MaxApplicants string
	Payment       string
	StartDate     string
	EndDate       string
	Subjects      string
}

func readAnnouncementForm(c *gin.Context) announcementForm {
	return announcementForm{
		CompanyID:     strings.TrimSpace(c.PostForm("company_id")),
		Title:         strings.TrimSpace(c.PostForm("title")),
		Description:   strings.TrimSpace(c.PostForm("description")),
		MaxApplicants: strings.TrimSpace(c.PostForm("max_applicants")),
		Payment:       strings.TrimSpace(c.PostForm("payment")),
		StartDate:     strings.TrimSpace(c.PostForm("start_date")),
		EndDate:       strings.TrimSpace(c.PostForm("end_date")),
		Subjects:      c.PostForm("subjects"),
	}
}

// announcement converts the form. End dates are inclusive: the
// announcement stays open until the end of that day.
func (f announcementForm) announcement() (*entities.Announcement, error) {
	a := &entities.Announcement{
		Title:       f.Title,
		Description: f.Description,
		Subjects:    splitList(f.Subjects),
	}

	var err error
	if f.CompanyID != "" {
		id, err := strconv.ParseUint(f.CompanyID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid company ID")
		}
		a.CompanyID = uint(id)
	}
	if f.MaxApplicants != "" {
		if a.MaxApplicants, err = strconv.Atoi(f.MaxApplicants); err != nil {
			return nil, fmt.Errorf("max applicants must be a number")
		}
	}
	if f.Payment != "" {
		if a.Payment, err = strconv.ParseInt(f.Payment, 10, 64); err != nil {
			return nil, fmt.Errorf("payment must be a whole number")
		}
	}
	if f.StartDate != "" {
		if a.StartDate, err = time.Parse(dateLayout, f.StartDate); err != nil {
			return nil, fmt.Errorf("start date must look like 2006-01-02")
		}
	}
	if f.EndDate != "" {
		end, err := time.Parse(dateLayout, f.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end date must look like 2006-01-02")
		}
		a.EndDate = end.Add(24*time.Hour - time.Second)
	}
	return a, nil
}

// NewAnnouncementPage renders the empty announcement form.
func (ui *UIController) NewAnnouncementPage(c *gin.Context) {
	ui.renderAnnouncementForm(c, http.StatusOK, announcementForm{}, "")
}

func (ui *UIController) renderAnnouncementForm(c *gin.Context, status int, form announcementForm, errMsg string) {
	ui.render(c, status, "announcement_new.html", gin.H{
		"Title": "New announcement",
		"Form":  form,
		"Error": errMsg,
	})
}

// CreateAnnouncement handles the new announcement form.
func (ui *UIController) CreateAnnouncement(c *gin.Context) {
	form := readAnnouncementForm(c)
	a, err := form.announcement()
	if err != nil {
		ui.renderAnnouncementForm(c, http.StatusBadRequest, form, err.Error())
		return
	}
	a.CompanyID = ui.policy.actingID(c, a.CompanyID)

	id, status, err := ui.announcementsAPI.create(c, a)
	if err != nil {
		message := err.Error()
		switch status {
		case http.StatusInternalServerError:
			ui.logger.Error().Err(err).Msg("failed to create announcement")
			message = "Something went wrong, please try again"
		case http.StatusUnprocessableEntity:
			message = "The announcement was rejected by the database"
		}
		ui.renderAnnouncementForm(c, status, form, message)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/announcements/%d", id))
}

// CompanyPage shows a company and its announcements.
func (ui *UIController) CompanyPage(c *gin.Context) {
	id, ok := ui.pageID(c)
	if !ok {
		return
	}

	company, found, err := ui.companies.GetOne(c.Request.Context(), id)
	if err != nil {
		ui.logger.Error().Err(err).Uint("company_id", id).Msg("failed to load company")
		ui.renderError(c, http.StatusInternalServerError, "Error loading company")
		return
	}
	if !found {
		ui.renderError(c, http.StatusNotFound, "Company not found")
		return
	}

	list, err := ui.announcements.List(c.Request.Context(), announcements.Filter{CompanyID: id})
	if err != nil {
		ui.logger.Error().Err(err).Uint("company_id", id).Msg("failed to load announcements")
		ui.renderError(c, http.StatusInternalServerError, "Error loading announcements")
		return
	}

	ui.render(c, http.StatusOK, "company.html", gin.H{
		"Title":         company.Name,
		"Company":       company,
		"Announcements": list,
	})
}

// InfluencerPage shows an influencer and their applications.
func (ui *UIController) InfluencerPage(c *gin.Context) {
	id, ok := ui.pageID(c)
	if !ok {
		return
	}

	influencer, found, err := ui.influencers.GetOne(c.Request.Context(), id)
	if err != nil {
		ui.logger.Error().Err(err).Uint("influencer_id", id).Msg("failed to load influencer")
		ui.renderError(c, http.StatusInternalServerError, "Error loading influencer")
		return
	}
	if !found {
		ui.renderError(c, http.StatusNotFound, "Influencer not found")
		return
	}

	apps, err := ui.applications.ListForInfluencer(c.Request.Context(), id)
	if err != nil {
		ui.logger.Error().Err(err).Uint("influencer_id", id).Msg("failed to load applications")
		ui.renderError(c, http.StatusInternalServerError, "Error loading applications")
		return
	}

	ui.render(c, http.StatusOK, "influencer.html", gin.H{
		"Title":        influencer.Name,
		"Influencer":   influencer,
		"Applications": apps,
	})
}
