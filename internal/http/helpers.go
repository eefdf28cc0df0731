package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/applications"
	"github.com/mrlokans/influence/internal/entities"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreatedResponse is returned by every create endpoint.
type CreatedResponse struct {
	ID uint `json:"id"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondForbidden sends a 403 Forbidden response.
func respondForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, ErrorResponse{Error: "insufficient permissions"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, logger zerolog.Logger, err error, context string) {
	logger.Error().Err(err).Str("context", context).Str("path", c.Request.URL.Path).Msg("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondCreated sends a 201 Created response with the new id.
func respondCreated(c *gin.Context, id uint) {
	c.JSON(http.StatusCreated, CreatedResponse{ID: id})
}

// errorStatus maps a store or service error to an HTTP status and a message
// safe to show to clients.
func errorStatus(err error) (int, string) {
	switch {
	case auth.IsValidationError(err), errors.Is(err, applications.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case applications.IsConflict(err):
		return http.StatusConflict, err.Error()
	case database.IsConstraintViolation(err):
		// Aborted creates and plain gorm writes alike.
		return http.StatusUnprocessableEntity, "the data was rejected by the database"
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondStoreError answers with the status errorStatus picks, logging
// anything that ends up as a 500.
func respondStoreError(c *gin.Context, logger zerolog.Logger, err error, context string) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, logger, err, context)
		return
	}
	if status == http.StatusUnprocessableEntity {
		logger.Warn().Err(err).Str("context", context).Msg("write rejected")
	}
	respondError(c, status, message)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalQueryID parses an optional unsigned query parameter; absent
// means zero.
func parseOptionalQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// --- Ownership ---

// accessPolicy decides who acts on a write. With accounts disabled the acting
// account comes from the request itself.
type accessPolicy struct {
	enforced bool
}

// actingID returns the logged-in account's id when accounts are enforced and
// requested otherwise.
func (p accessPolicy) actingID(c *gin.Context, requested uint) uint {
	if !p.enforced {
		return requested
	}
	return auth.GetAccountID(c)
}

// canModify reports whether the request may change data owned by the
// account (role, ownerID).
func (p accessPolicy) canModify(c *gin.Context, role entities.Role, ownerID uint) bool {
	if !p.enforced {
		return true
	}
	return auth.GetRole(c) == role && auth.GetAccountID(c) == ownerID
}
