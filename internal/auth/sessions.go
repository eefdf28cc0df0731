package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/entities"
)

// Session data keys
const (
	SessionKeyAccountID   = "account_id"
	SessionKeyAccountName = "account_name"
	SessionKeyRole        = "role"
	SessionKeyLoginAt     = "login_at"
)

func init() {
	gob.Register(entities.Role(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with account-aware helpers.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager backed by SQLite when sqlDB is
// given, or by process memory when it is nil.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if sqlDB != nil {
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession stores the account in a fresh session after a successful login.
func (sm *SessionManager) CreateSession(r *http.Request, account *entities.Account) error {
	// New token on login prevents session fixation.
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyAccountID, int(account.ID))
	sm.Put(r.Context(), SessionKeyAccountName, account.Name)
	sm.Put(r.Context(), SessionKeyRole, account.Role)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetAccount returns the role and ID stored in the session; ID is 0 when
// nobody is logged in.
func (sm *SessionManager) GetAccount(r *http.Request) (entities.Role, uint) {
	id := sm.GetInt(r.Context(), SessionKeyAccountID)
	if id <= 0 {
		return "", 0
	}
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.Role)
	if !ok || !role.Valid() {
		return "", 0
	}
	return role, uint(id)
}

// GetAccountName retrieves the display name from the session.
func (sm *SessionManager) GetAccountName(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyAccountName)
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, id := sm.GetAccount(r)
	return id != 0
}
