package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/entities"
)

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	Enabled   bool          // Whether accounts are enforced (AuthModeLocal)
	LoggedIn  bool          // Whether an account is logged in
	AccountID uint          // Logged-in account (0 if none)
	Name      string        // Logged-in account's display name
	Role      entities.Role // company or influencer
	CSRFToken string        // CSRF token for forms (empty when auth disabled)
}

// IsCompany reports whether the logged-in account is a company.
func (d AuthTemplateData) IsCompany() bool { return d.Role == entities.RoleCompany }

// IsInfluencer reports whether the logged-in account is an influencer.
func (d AuthTemplateData) IsInfluencer() bool { return d.Role == entities.RoleInfluencer }

const authTemplateDataKey = "auth_template_data"

// AuthContextMiddleware injects authentication data into Gin context for templates.
// Templates can access auth data via .Auth in the template data.
func AuthContextMiddleware(authMode config.AuthMode) gin.HandlerFunc {
	authEnabled := authMode == config.AuthModeLocal

	return func(c *gin.Context) {
		authData := AuthTemplateData{
			Enabled:   authEnabled,
			CSRFToken: auth.GetCSRFToken(c),
		}

		if authEnabled && auth.IsAuthenticated(c) {
			authData.LoggedIn = true
			authData.AccountID = auth.GetAccountID(c)
			authData.Name = auth.GetAccountName(c)
			authData.Role = auth.GetRole(c)
		}

		c.Set(authTemplateDataKey, authData)
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	if data, exists := c.Get(authTemplateDataKey); exists {
		if authData, ok := data.(AuthTemplateData); ok {
			return authData
		}
	}
	return AuthTemplateData{}
}
