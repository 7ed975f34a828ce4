package http

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/devilbiswajit/VideoStream/internal/config"
)

// NewRouter wires middleware and routes onto a fresh echo instance.
func NewRouter(cfg *config.Config, handler *UserHandler, authenticate echo.MiddlewareFunc, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(cfg.CORSOrigin, ","),
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: cfg.RequestTimeout,
	}))

	e.GET("/healthz", handler.Health)

	users := e.Group("/api/v1/users")
	users.POST("/register", handler.Register)
	users.POST("/login", handler.Login)
	users.POST("/refresh-token", handler.RefreshSession)
	users.GET("/c/:username", handler.GetChannelProfile)

	users.POST("/logout", handler.Logout, authenticate)
	users.POST("/change-password", handler.ChangePassword, authenticate)
	users.GET("/current-user", handler.GetCurrentUser, authenticate)
	users.PATCH("/update-account", handler.UpdateAccountDetails, authenticate)
	users.PATCH("/avatar", handler.UpdateAvatar, authenticate)
	users.PATCH("/cover-image", handler.UpdateCoverImage, authenticate)
	users.GET("/history", handler.GetWatchHistory, authenticate)

	videos := e.Group("/api/v1/videos")
	videos.POST("/:videoId/watch", handler.RecordWatch, authenticate)

	return e
}
