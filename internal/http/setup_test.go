package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/database/applications"
	"github.com/mrlokans/influence/internal/database/companies"
	"github.com/mrlokans/influence/internal/database/influencers"
	"github.com/mrlokans/influence/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "password12345"

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		SecureCookies:    false,
		BcryptCost:       4,
		MaxLoginAttempts: 3,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
}

type testEnv struct {
	router        *gin.Engine
	db            *database.Database
	companies     *companies.Repository
	influencers   *influencers.Repository
	announcements *announcements.Repository
	applications  *applications.Repository
	authService   *auth.Service
}

// setupTestEnv builds the full router over a fresh SQLite database. opts can
// adjust the RouterConfig before the router is built.
func setupTestEnv(t *testing.T, mode config.AuthMode, opts ...func(*RouterConfig)) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, applications: applications.NewRepository(db.DB)}
	env.companies, err = companies.NewRepository(db)
	require.NoError(t, err)
	env.influencers, err = influencers.NewRepository(db)
	require.NoError(t, err)
	env.announcements, err = announcements.NewRepository(db)
	require.NoError(t, err)

	authCfg := testAuthConfig(mode)
	env.authService = auth.NewService(env.companies, env.influencers, authCfg)

	cfg := RouterConfig{
		Database:      db,
		Companies:     env.companies,
		Influencers:   env.influencers,
		Announcements: env.announcements,
		Applications:  env.applications,
		AuthService:   env.authService,
		AuthConfig:    authCfg,
		Logger:        zerolog.Nop(),
		SiteName:      "Infinite Influence",
		Version:       "test",
	}
	if mode == config.AuthModeLocal {
		cfg.SessionManager, err = auth.NewSessionManager(db.SQL(), authCfg)
		require.NoError(t, err)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	env.router, err = NewRouter(cfg)
	require.NoError(t, err)
	return env
}

// do sends a request with an optional JSON body. headers are name/value pairs.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// postForm submits a website form.
func (e *testEnv) postForm(t *testing.T, path string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func (e *testEnv) createCompany(t *testing.T, name, email string, domains ...string) uint {
	t.Helper()
	id, err := e.authService.RegisterCompany(context.Background(), &entities.Company{
		Name:    name,
		Email:   email,
		Domains: domains,
	}, testPassword)
	require.NoError(t, err)
	return id
}

func (e *testEnv) createInfluencer(t *testing.T, name, email string, subjects ...string) uint {
	t.Helper()
	id, err := e.authService.RegisterInfluencer(context.Background(), &entities.Influencer{
		Name:      name,
		Email:     email,
		Platform:  "instagram",
		Followers: 1200,
		Subjects:  subjects,
	}, testPassword)
	require.NoError(t, err)
	return id
}

func (e *testEnv) createAnnouncement(t *testing.T, companyID uint, title string, maxApplicants int, subjects ...string) uint {
	t.Helper()
	id, err := e.announcements.Create(context.Background(), &entities.Announcement{
		CompanyID:     companyID,
		Title:         title,
		MaxApplicants: maxApplicants,
		Payment:       500,
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(7 * 24 * time.Hour),
		Subjects:      subjects,
	})
	require.NoError(t, err)
	return id
}

// bearer logs in through the service and returns an Authorization header pair.
func (e *testEnv) bearer(t *testing.T, email string) []string {
	t.Helper()
	ctx := context.Background()
	account, err := e.authService.Authenticate(ctx, email, testPassword)
	require.NoError(t, err)
	token, err := e.authService.IssueToken(ctx, account)
	require.NoError(t, err)
	return []string{"Authorization", "Bearer " + token}
}
