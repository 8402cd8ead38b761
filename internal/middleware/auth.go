package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/rfitrack/pkg/jwtutil"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// JWTAuth validates the bearer token and stores the caller's user id on the context
func JWTAuth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated"})
			}

			c.Set(userIDKey, claims.UserID)
			logger.SetEcho(c, log.With(zap.String("user_id", claims.UserID)))

			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" outside JWTAuth
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
