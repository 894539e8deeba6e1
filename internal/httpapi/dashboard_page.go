package httpapi

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	dashboardTemplateName = "dashboard"
	dashboardPageTitle    = "Submissions Dashboard"

	dashboardStatusNoSubmissions = "No submissions found"
	dashboardStatusLoading       = "Loading submissions..."
	dashboardConfirmDeleteOne    = "Are you sure you want to delete this submission?"
	dashboardConfirmDeleteMany   = "Are you sure you want to delete the selected submissions?"

	logEventRenderDashboard = "render_dashboard"
)

// DashboardPageHandlers serves the authenticated dashboard shell. The table
// itself is driven by the JSON state endpoints.
type DashboardPageHandlers struct {
	logger            *zap.Logger
	dashboardTemplate *template.Template
	brandName         string
}

func NewDashboardPageHandlers(logger *zap.Logger, brandName string) *DashboardPageHandlers {
	compiledTemplate := template.Must(template.New(dashboardTemplateName).Parse(dashboardTemplateHTML))
	return &DashboardPageHandlers{
		logger:            logger,
		dashboardTemplate: compiledTemplate,
		brandName:         brandName,
	}
}

type dashboardTemplateData struct {
	PageTitle            string
	BrandName            string
	LogoutPath           string
	StateEndpoint        string
	RefreshEndpoint      string
	SearchEndpoint       string
	FilterEndpoint       string
	SortEndpoint         string
	SelectEndpoint       string
	SelectAllEndpoint    string
	DeleteEndpointPrefix string
	BulkDeleteEndpoint   string
	ExportEndpoint       string
	StatusLoading        string
	StatusNoSubmissions  string
	ConfirmDeleteOne     string
	ConfirmDeleteMany    string
}

func (handlers *DashboardPageHandlers) RenderDashboard(context *gin.Context) {
	data := dashboardTemplateData{
		PageTitle:            dashboardPageTitle,
		BrandName:            handlers.brandName,
		LogoutPath:           LogoutPath,
		StateEndpoint:        DashboardStatePath,
		RefreshEndpoint:      DashboardRefreshPath,
		SearchEndpoint:       DashboardSearchPath,
		FilterEndpoint:       DashboardFilterPath,
		SortEndpoint:         DashboardSortPath,
		SelectEndpoint:       DashboardSelectPath,
		SelectAllEndpoint:    DashboardSelectAllPath,
		DeleteEndpointPrefix: "/app/api/submissions/",
		BulkDeleteEndpoint:   DashboardBulkDeletePath,
		ExportEndpoint:       DashboardExportPath,
		StatusLoading:        dashboardStatusLoading,
		StatusNoSubmissions:  dashboardStatusNoSubmissions,
		ConfirmDeleteOne:     dashboardConfirmDeleteOne,
		ConfirmDeleteMany:    dashboardConfirmDeleteMany,
	}
	var rendered strings.Builder
	if renderErr := handlers.dashboardTemplate.Execute(&rendered, data); renderErr != nil {
		handlers.logger.Error(logEventRenderDashboard, zap.Error(renderErr))
		context.String(http.StatusInternalServerError, upstream.MessageUnexpectedError)
		return
	}
	context.Data(http.StatusOK, htmlContentType, []byte(rendered.String()))
}
