// Package server assembles the echo application
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/suteetoe/rfitrack/internal/handler"
	"github.com/suteetoe/rfitrack/internal/middleware"
	"github.com/suteetoe/rfitrack/pkg/config"
	"github.com/suteetoe/rfitrack/pkg/jwtutil"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"github.com/suteetoe/rfitrack/pkg/metrics"
)

// New builds the echo app with middleware and every route registered
func New(cfg *config.Config, h *handler.Handler, tokens *jwtutil.JWTUtil) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.Server.AppURL},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(cfg.Metrics.Prefix).Middleware())
	e.Use(echomiddleware.BodyLimit(cfg.Server.BodyLimit))

	// Public routes
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/plans", h.ListPlans)
	e.POST("/webhooks/billing", h.BillingWebhook)

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/otp/request", h.RequestCode)
	auth.POST("/otp/verify", h.VerifyCode)
	auth.POST("/logout", h.Logout)

	requireAuth := middleware.JWTAuth(tokens)
	e.POST("/checkout", h.StartCheckout, requireAuth)

	// API routes - all require authentication
	api := e.Group("/api", requireAuth)

	api.GET("/profile", h.GetProfile)
	api.PATCH("/profile", h.UpdateProfile)
	api.POST("/users/password", h.SetPassword)
	api.GET("/dashboard", h.Dashboard)

	projects := api.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.POST("", h.CreateProject)
	projects.GET("/:id", h.GetProject)
	projects.PUT("/:id", h.UpdateProject)
	projects.GET("/:id/contacts", h.ListProjectContacts)
	projects.POST("/:id/contacts", h.CreateProjectContact)
	projects.GET("/:id/rfis", h.ListProjectRFIs)
	projects.POST("/:id/rfis", h.CreateProjectRFI)

	contacts := api.Group("/contacts")
	contacts.GET("", h.ListContacts)
	contacts.POST("", h.CreateContact)
	contacts.GET("/:id", h.GetContact)
	contacts.PUT("/:id", h.UpdateContact)
	contacts.DELETE("/:id", h.DeleteContact)

	rfis := api.Group("/rfis")
	rfis.GET("", h.ListRFIs)
	rfis.GET("/:id", h.GetRFI)
	rfis.PUT("/:id", h.UpdateRFI)
	rfis.DELETE("/:id", h.DeleteRFI)
	rfis.POST("/:id/answer", h.AnswerRFI)
	rfis.POST("/:id/status", h.ChangeRFIStatus)
	rfis.POST("/:id/reopen", h.ReopenRFI)
	rfis.GET("/:id/attachments", h.ListAttachments)
	rfis.POST("/:id/attachments", h.AddAttachment)
	rfis.DELETE("/:id/attachments/:attachmentId", h.DeleteAttachment)

	return e
}
