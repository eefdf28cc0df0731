package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/entities"
)

// Context keys for account data
const (
	ContextKeyAccountID   = "auth_account_id"
	ContextKeyAccountName = "auth_account_name"
	ContextKeyRole        = "auth_role"
	ContextKeyAuthType    = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the account was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/health":          true,
		"/ping":             true,
		"/login":            true,
		"/logout":           true,
		"/api/auth/token":  true,
		"/api/companies":   true, // Registration
		"/api/influencers": true,
		"/favicon.ico":     true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
// Reads are open to everyone; in local mode every write needs an account.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if account := m.tryBearerAuth(c); account != nil {
			m.setAccountContext(c, account, AuthTypeBearer)
			c.Next()
			return
		}

		if account := m.trySessionAuth(c); account != nil {
			m.setAccountContext(c, account, AuthTypeSession)
			c.Next()
			return
		}

		c.Set(ContextKeyAuthType, AuthTypeNone)
		if isSafeMethod(c.Request.Method) || m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		m.reject(c)
	}
}

func (m *Middleware) reject(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": ErrAuthRequired.Error(),
		})
		return
	}
	c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
	c.Abort()
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.Account {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil
	}
	account, err := m.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return account
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Account {
	if m.sessionManager == nil {
		return nil
	}
	role, id := m.sessionManager.GetAccount(c.Request)
	if id == 0 {
		return nil
	}
	account, err := m.service.GetAccount(c.Request.Context(), role, id)
	if err != nil {
		return nil
	}
	return account
}

func (m *Middleware) setAccountContext(c *gin.Context, account *entities.Account, authType AuthType) {
	c.Set(ContextKeyAccountID, account.ID)
	c.Set(ContextKeyAccountName, account.Name)
	c.Set(ContextKeyRole, account.Role)
	c.Set(ContextKeyAuthType, authType)
}

func (m *Middleware) isPublicPath(path string) bool {
	return m.publicPaths[path] || strings.HasPrefix(path, "/static/")
}

// RequireAuth rejects requests without an account. A no-op when auth is disabled.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeLocal && GetAccountID(c) == 0 {
			m.reject(c)
			return
		}
		c.Next()
	}
}

// RequireRole rejects accounts of any other role. A no-op when auth is disabled.
func (m *Middleware) RequireRole(roles ...entities.Role) gin.HandlerFunc {
	roleSet := make(map[entities.Role]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetAccountID(c) == 0 {
			m.reject(c)
			return
		}
		if !roleSet[GetRole(c)] {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.GetHeader("Authorization") != ""
}

// GetAccountID returns the authenticated account's ID, or 0.
func GetAccountID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyAccountID); exists {
		if accountID, ok := id.(uint); ok {
			return accountID
		}
	}
	return 0
}

// GetAccountName returns the authenticated account's display name.
func GetAccountName(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyAccountName); exists {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated account's role, or "".
func GetRole(c *gin.Context) entities.Role {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.Role); ok {
			return role
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated reports whether the request carries an account.
func IsAuthenticated(c *gin.Context) bool {
	return GetAccountID(c) != 0
}
