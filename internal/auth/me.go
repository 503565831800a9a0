package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/navaex/portal/internal/user"
)

// Me returns the authenticated user's profile. Runs behind JWTAuth.
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := user.Load(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, u)
}
