package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/audit"
	"github.com/AtorixIT/leadconsole/internal/httpapi"
	"github.com/AtorixIT/leadconsole/internal/session"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	corsOriginWildcard      = "*"
	corsHeaderContentType   = "Content-Type"
	httpMethodGet           = "GET"
	httpMethodOptions       = "OPTIONS"
	httpMethodPost          = "POST"
	corsPreflightCacheHours = 12
)

var (
	corsAllowedMethods = []string{httpMethodPost, httpMethodGet, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
	corsAllowOrigins   = []string{corsOriginWildcard}
)

func buildRouter(logger *zap.Logger, upstreamClient *upstream.Client, sessionStore *session.Store, auditRecorder *audit.Recorder, brandName string) *gin.Engine {
	views := httpapi.NewViewRegistry(upstreamClient)
	guard := httpapi.NewGuard(sessionStore)
	authHandlers := httpapi.NewAuthHandlers(upstreamClient, sessionStore, views, auditRecorder, logger, brandName)
	adminHandlers := httpapi.NewAdminHandlers(views, sessionStore, auditRecorder, logger, brandName)
	pageHandlers := httpapi.NewDashboardPageHandlers(logger, brandName)
	publicHandlers := httpapi.NewPublicHandlers(upstreamClient, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	// CORS covers the public lead relay only; the admin surface is
	// same-origin and cookie-authenticated.
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsAllowOrigins,
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           corsPreflightCacheHours * time.Hour,
	}))

	router.GET("/", func(context *gin.Context) {
		context.Redirect(http.StatusFound, httpapi.LoginPagePath)
	})

	router.GET(httpapi.LoginPagePath, authHandlers.RenderLoginPage)
	router.POST(httpapi.LoginPagePath, authHandlers.SubmitLogin)
	router.POST(httpapi.LogoutPath, authHandlers.Logout)
	router.GET(httpapi.DashboardPagePath, guard.RequireAuthenticatedWeb(), pageHandlers.RenderDashboard)

	appGroup := router.Group("/", guard.RequireAuthenticatedJSON())
	appGroup.GET(httpapi.DashboardStatePath, adminHandlers.DashboardState)
	appGroup.POST(httpapi.DashboardRefreshPath, adminHandlers.RefreshSubmissions)
	appGroup.POST(httpapi.DashboardSearchPath, adminHandlers.SetSearchTerm)
	appGroup.POST(httpapi.DashboardFilterPath, adminHandlers.SetTypeFilter)
	appGroup.POST(httpapi.DashboardSortPath, adminHandlers.SortSubmissions)
	appGroup.POST(httpapi.DashboardSelectPath, adminHandlers.ToggleSelection)
	appGroup.POST(httpapi.DashboardSelectAllPath, adminHandlers.ToggleSelectAll)
	appGroup.DELETE(httpapi.DashboardDeletePath, adminHandlers.DeleteSubmission)
	appGroup.POST(httpapi.DashboardBulkDeletePath, adminHandlers.BulkDeleteSubmissions)
	appGroup.GET(httpapi.DashboardExportPath, adminHandlers.ExportSubmissions)

	router.POST(httpapi.PublicLeadPath, publicHandlers.SubmitLead)
	router.GET(httpapi.HealthCheckPath, publicHandlers.HealthCheck)

	return router
}
