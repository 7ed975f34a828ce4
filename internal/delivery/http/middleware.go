package http

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/application/common"
	"github.com/devilbiswajit/VideoStream/internal/application/interfaces"
	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/cache"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/token"
)

const (
	userContextKey        = "authenticatedUser"
	accessTokenContextKey = "accessToken"
)

// Authenticate verifies the access token and attaches the user to the echo
// context. The redis cache is consulted first; a miss falls back to JWT
// verification.
func Authenticate(jwtService *token.JWTService, service interfaces.UserService, sessionCache *cache.SessionCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractAccessToken(c)
			if tokenString == "" {
				return common.Unauthorized("authentication required")
			}

			ctx := c.Request().Context()
			userID, ok := sessionCache.GetToken(ctx, tokenString)
			if !ok {
				var err error
				userID, err = jwtService.VerifyAccessToken(tokenString)
				if err != nil {
					return common.Unauthorized("invalid or expired access token")
				}
			}

			oid, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return common.Unauthorized("invalid or expired access token")
			}
			user, err := service.FindUserByID(ctx, oid)
			if err != nil {
				return common.Unauthorized("account not found")
			}

			c.Set(userContextKey, user)
			c.Set(accessTokenContextKey, tokenString)
			return next(c)
		}
	}
}

// CurrentUser retrieves the authenticated user set by Authenticate.
func CurrentUser(c echo.Context) (*entities.User, bool) {
	user, ok := c.Get(userContextKey).(*entities.User)
	return user, ok
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
