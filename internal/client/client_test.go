package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/database/applications"
	"github.com/mrlokans/influence/internal/database/companies"
	"github.com/mrlokans/influence/internal/database/influencers"
	"github.com/mrlokans/influence/internal/entities"
	influencehttp "github.com/mrlokans/influence/internal/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newServer runs the real router over a fresh SQLite database.
func newServer(t *testing.T, mode config.AuthMode) *httptest.Server {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	companiesRepo, err := companies.NewRepository(db)
	require.NoError(t, err)
	influencersRepo, err := influencers.NewRepository(db)
	require.NoError(t, err)
	announcementsRepo, err := announcements.NewRepository(db)
	require.NoError(t, err)

	authCfg := config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	router, err := influencehttp.NewRouter(influencehttp.RouterConfig{
		Database:      db,
		Companies:     companiesRepo,
		Influencers:   influencersRepo,
		Announcements: announcementsRepo,
		Applications:  applications.NewRepository(db.DB),
		AuthService:   auth.NewService(companiesRepo, influencersRepo, authCfg),
		AuthConfig:    authCfg,
		Logger:        zerolog.Nop(),
		Version:       "test",
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestClient_EndToEnd(t *testing.T) {
	server := newServer(t, config.AuthModeNone)
	c := New(server.URL+"/", "")
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])

	companyID, err := c.CreateCompany(ctx, CompanyInput{
		Name: "Acme", Email: "team@acme.com", Password: "password12345", Domains: []string{"acme.com"},
	})
	require.NoError(t, err)

	company, err := c.GetCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.com"}, company.Domains)

	influencerID, err := c.CreateInfluencer(ctx, InfluencerInput{
		Name: "Jamie", Email: "jamie@example.com", Password: "password12345", Subjects: []string{"Travel"},
	})
	require.NoError(t, err)

	announcementID, err := c.CreateAnnouncement(ctx, AnnouncementInput{
		CompanyID:     companyID,
		Title:         "Summer trip",
		MaxApplicants: 2,
		Payment:       900,
		EndDate:       time.Now().Add(72 * time.Hour),
		Subjects:      []string{"Travel"},
	})
	require.NoError(t, err)

	announcement, err := c.GetAnnouncement(ctx, announcementID)
	require.NoError(t, err)
	assert.Equal(t, "Summer trip", announcement.Title)
	assert.Equal(t, "Acme", announcement.CompanyName)

	list, err := c.ListAnnouncements(ctx, AnnouncementFilter{Subject: "Travel", Status: entities.AnnouncementOpen})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	app, err := c.Apply(ctx, announcementID, influencerID, "Count me in")
	require.NoError(t, err)
	assert.Equal(t, entities.ApplicationPending, app.Status)

	_, err = c.Apply(ctx, announcementID, influencerID, "again")
	assert.True(t, IsConflict(err), err)

	apps, err := c.ListApplications(ctx, announcementID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Jamie", apps[0].InfluencerName)

	app, err = c.SetApplicationStatus(ctx, app.ID, entities.ApplicationAccepted)
	require.NoError(t, err)
	assert.Equal(t, entities.ApplicationAccepted, app.Status)

	influencersList, err := c.ListInfluencers(ctx, "Travel", "")
	require.NoError(t, err)
	assert.Len(t, influencersList, 1)

	companiesList, err := c.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companiesList, 1)

	require.NoError(t, c.SetAnnouncementStatus(ctx, announcementID, entities.AnnouncementClosed))
	require.NoError(t, c.DeleteAnnouncement(ctx, announcementID))

	_, err = c.GetAnnouncement(ctx, announcementID)
	assert.True(t, IsNotFound(err), err)
}

func TestClient_TokenFlow(t *testing.T) {
	server := newServer(t, config.AuthModeLocal)
	c := New(server.URL, "")
	ctx := context.Background()

	companyID, err := c.CreateCompany(ctx, CompanyInput{Name: "Acme", Email: "team@acme.com", Password: "password12345"})
	require.NoError(t, err)

	_, err = c.CreateAnnouncement(ctx, AnnouncementInput{Title: "Anonymous", EndDate: time.Now().Add(time.Hour)})
	assert.True(t, IsUnauthorized(err), err)

	_, err = c.IssueToken(ctx, "team@acme.com", "wrong-password")
	assert.True(t, IsUnauthorized(err), err)

	token, err := c.IssueToken(ctx, "team@acme.com", "password12345")
	require.NoError(t, err)
	assert.Equal(t, companyID, token.AccountID)
	assert.Equal(t, "company", token.Role)

	c.SetToken(token.Token)
	id, err := c.CreateAnnouncement(ctx, AnnouncementInput{Title: "Spring launch", EndDate: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	announcement, err := c.GetAnnouncement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, companyID, announcement.CompanyID)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"json error body", http.StatusUnprocessableEntity, `{"error":"the data was rejected by the database"}`, "the data was rejected by the database"},
		{"plain text body", http.StatusForbidden, "Forbidden\n", "Forbidden"},
		{"empty body", http.StatusBadGateway, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "").GetCompany(context.Background(), 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.False(t, IsNotFound(err))
		})
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"announcements": []any{}, "total": 0})
	}))
	defer server.Close()

	c := New(server.URL, "secret-token").WithHTTPClient(server.Client())
	_, err := c.ListAnnouncements(context.Background(), AnnouncementFilter{CompanyID: 7, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "company_id=7&limit=5", gotQuery)
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "server returned 404: announcement not found",
		(&APIError{StatusCode: 404, Message: "announcement not found"}).Error())
	assert.Equal(t, "server returned 502 Bad Gateway", (&APIError{StatusCode: 502}).Error())
}
