package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.Split(authHeader, " ")[1]
		app := c.(*AppContext).App

		// Master API Key bypass
		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			c.(*AppContext).User = &AppUser{
				UserID: "master",
				Role:   "admin",
			}
			return next(c)
		}

		if app.Key == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		k := *app.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		userID := ""
		if idClaim, ok := claims["sub"].(string); ok {
			userID = idClaim
		} else if idClaim, ok := claims["id"].(string); ok {
			userID = idClaim
		}
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		role := "user"
		if roleClaim, ok := claims["role"].(string); ok {
			role = roleClaim
		}

		c.(*AppContext).User = &AppUser{
			UserID: userID,
			Role:   role,
		}

		return next(c)
	}
}

// RequireAdmin guards mutating index operations.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(*AppContext).User
		if user == nil || user.Role != "admin" {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return next(c)
	}
}
