package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/entities"
)

func announcementBody(companyID uint, title string, subjects ...string) map[string]interface{} {
	return map[string]interface{}{
		"company_id":     companyID,
		"title":          title,
		"description":    "Looking for creators",
		"max_applicants": 3,
		"payment":        750,
		"start_date":     time.Now().UTC().Format(time.RFC3339),
		"end_date":       time.Now().Add(14 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"subjects":       subjects,
	}
}

func TestAnnouncementsController_Create(t *testing.T) {
	t.Run("creates announcement with subjects", func(t *testing.T) {
		env := setupTestEnv(t, config.AuthModeNone)
		company := env.createCompany(t, "Acme", "team@acme.com")

		rr := env.do(t, http.MethodPost, "/api/announcements", announcementBody(company, "Unit test announcement", "Fashion", "Travel"))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		id := uint(decodeJSON(t, rr)["id"].(float64))
		a, found, err := env.announcements.GetOne(context.Background(), id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Unit test announcement", a.Title)
		assert.Equal(t, "Acme", a.CompanyName)
		assert.Equal(t, entities.AnnouncementOpen, a.Status)
		assert.ElementsMatch(t, []string{"Fashion", "Travel"}, a.Subjects)
	})

	t.Run("creates announcement without subjects", func(t *testing.T) {
		env := setupTestEnv(t, config.AuthModeNone)
		company := env.createCompany(t, "Acme", "team@acme.com")

		rr := env.do(t, http.MethodPost, "/api/announcements", announcementBody(company, "No subjects"))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		id := uint(decodeJSON(t, rr)["id"].(float64))
		rr = env.do(t, http.MethodGet, fmt.Sprintf("/api/announcements/%d", id), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeJSON(t, rr)["subjects"])
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		env := setupTestEnv(t, config.AuthModeNone)
		company := env.createCompany(t, "Acme", "team@acme.com")

		tests := []struct {
			name   string
			mutate func(map[string]interface{})
			want   string
		}{
			{"missing title", func(b map[string]interface{}) { delete(b, "title") }, "title is required"},
			{"missing end date", func(b map[string]interface{}) { delete(b, "end_date") }, "end_date is required"},
			{"end before start", func(b map[string]interface{}) {
				b["end_date"] = time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
			}, "end_date must not be before start_date"},
			{"negative payment", func(b map[string]interface{}) { b["payment"] = -5 }, "must not be negative"},
			{"missing company", func(b map[string]interface{}) { delete(b, "company_id") }, "company_id is required"},
			{"over-length subject", func(b map[string]interface{}) {
				b["subjects"] = []string{"Fashion", strings.Repeat("s", 51)}
			}, "at most 50 characters"},
			{"bad date", func(b map[string]interface{}) { b["end_date"] = "next week" }, "invalid request body"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body := announcementBody(company, "Broken")
				tt.mutate(body)

				rr := env.do(t, http.MethodPost, "/api/announcements", body)
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Contains(t, decodeJSON(t, rr)["error"], tt.want)
			})
		}

		list, err := env.announcements.List(context.Background(), announcements.Filter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("returns 404 for unknown company", func(t *testing.T) {
		env := setupTestEnv(t, config.AuthModeNone)

		rr := env.do(t, http.MethodPost, "/api/announcements", announcementBody(4242, "Orphan"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "company not found", decodeJSON(t, rr)["error"])
	})

	t.Run("acting company comes from the token when accounts are enforced", func(t *testing.T) {
		env := setupTestEnv(t, config.AuthModeLocal)
		acme := env.createCompany(t, "Acme", "team@acme.com")
		other := env.createCompany(t, "Brightside", "hello@brightside.io")
		env.createInfluencer(t, "Jamie", "jamie@example.com")

		rr := env.do(t, http.MethodPost, "/api/announcements", announcementBody(other, "Anonymous"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = env.do(t, http.MethodPost, "/api/announcements", announcementBody(other, "Wrong role"), env.bearer(t, "jamie@example.com")...)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = env.do(t, http.MethodPost, "/api/announcements", announcementBody(other, "Spring launch"), env.bearer(t, "team@acme.com")...)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		id := uint(decodeJSON(t, rr)["id"].(float64))
		a, found, err := env.announcements.GetOne(context.Background(), id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, acme, a.CompanyID)
	})
}

func TestAnnouncementsController_List(t *testing.T) {
	env := setupTestEnv(t, config.AuthModeNone)
	acme := env.createCompany(t, "Acme", "team@acme.com")
	bright := env.createCompany(t, "Brightside", "hello@brightside.io")
	env.createAnnouncement(t, acme, "Fashion week", 0, "Fashion")
	env.createAnnouncement(t, acme, "Food tour", 0, "Food")
	closed := env.createAnnouncement(t, bright, "Old campaign", 0, "Fashion")
	require.NoError(t, env.announcements.SetStatus(context.Background(), closed, entities.AnnouncementClosed))

	tests := []struct {
		query string
		total int
	}{
		{"", 3},
		{fmt.Sprintf("?company_id=%d", acme), 2},
		{"?subject=Fashion", 2},
		{"?status=open", 2},
		{"?status=closed", 1},
		{"?subject=Fashion&status=open", 1},
		{"?limit=1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/announcements"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, float64(tt.total), decodeJSON(t, rr)["total"])
		})
	}

	for _, query := range []string{"?status=archived", "?company_id=abc", "?limit=-1"} {
		rr := env.do(t, http.MethodGet, "/api/announcements"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}

func TestAnnouncementsController_Get(t *testing.T) {
	env := setupTestEnv(t, config.AuthModeNone)
	acme := env.createCompany(t, "Acme", "team@acme.com")
	id := env.createAnnouncement(t, acme, "Spring launch", 2, "Fashion", "Beauty")

	rr := env.do(t, http.MethodGet, fmt.Sprintf("/api/announcements/%d", id), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeJSON(t, rr)
	assert.Equal(t, "Spring launch", body["title"])
	assert.Equal(t, "Acme", body["company_name"])
	assert.ElementsMatch(t, []interface{}{"Fashion", "Beauty"}, body["subjects"])

	rr = env.do(t, http.MethodGet, "/api/announcements/31337", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "announcement not found", decodeJSON(t, rr)["error"])
}

func TestAnnouncementsController_UpdateStatusAndDelete(t *testing.T) {
	env := setupTestEnv(t, config.AuthModeLocal)
	acme := env.createCompany(t, "Acme", "team@acme.com")
	env.createCompany(t, "Brightside", "hello@brightside.io")
	id := env.createAnnouncement(t, acme, "Spring launch", 0, "Fashion")
	path := fmt.Sprintf("/api/announcements/%d", id)

	rr := env.do(t, http.MethodPatch, path, map[string]string{"status": "closed"}, env.bearer(t, "hello@brightside.io")...)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPatch, path, map[string]string{"status": "paused"}, env.bearer(t, "team@acme.com")...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPatch, path, map[string]string{"status": "closed"}, env.bearer(t, "team@acme.com")...)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "closed", decodeJSON(t, rr)["status"])

	rr = env.do(t, http.MethodDelete, path, nil, env.bearer(t, "hello@brightside.io")...)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodDelete, path, nil, env.bearer(t, "team@acme.com")...)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
