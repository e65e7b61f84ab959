package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dkovalev/novelshelf/internal/auth"
)

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns 0 for anonymous callers.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// AuthTemplateData is injected into every page so templates can render
// the login/logout navigation.
type AuthTemplateData struct {
	Authenticated bool
	Email         string
}

// GetAuthTemplateData builds the template view of the caller's
// authentication state.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	return AuthTemplateData{
		Authenticated: auth.IsAuthenticated(c),
		Email:         auth.GetEmail(c),
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL
// parameters. Responds with a 400 page and returns false on bad input.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid %s", paramName)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalRating applies the parse-or-default rule for the rating
// form field: a value that is not a plain positive integer in [1, 5]
// is treated as absent, never as an error.
func parseOptionalRating(raw string) *int {
	if raw == "" {
		return nil
	}
	rating, err := strconv.Atoi(raw)
	if err != nil || rating < 1 || rating > 5 {
		return nil
	}
	return &rating
}
