package http

import (
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database      *database.Database
	Companies     CompanyStore
	Influencers   InfluencerStore
	Announcements AnnouncementStore
	Applications  ApplicationStore

	// Authentication (AuthService is required; registration hashes through it)
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue (optional)
	TaskClient TaskRunner

	Logger   zerolog.Logger
	SiteName string
	Version  string
}
