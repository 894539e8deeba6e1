package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/audit"
	"github.com/AtorixIT/leadconsole/internal/dashboard"
	"github.com/AtorixIT/leadconsole/internal/session"
)

const (
	errorValueInvalidJSON   = "invalid_json"
	errorValueUnknownFilter = "unknown_filter"
	errorValueUnknownSort   = "unknown_sort_field"
	errorValueMissingID     = "missing_id"

	queryParamConfirmed = "confirmed"
	queryValueTrue      = "true"

	routeParamSubmissionID = "id"

	exportDispositionPattern = "attachment; filename=%q"

	logEventDashboardAction = "dashboard_action"
	logFieldAction          = "action"
	logFieldSubmissionID    = "submission_id"
)

// AdminHandlers serves the JSON operations behind the dashboard.
type AdminHandlers struct {
	views         *ViewRegistry
	sessionStore  *session.Store
	auditRecorder *audit.Recorder
	logger        *zap.Logger
	brandName     string
	clock         func() time.Time
}

func NewAdminHandlers(views *ViewRegistry, sessionStore *session.Store, auditRecorder *audit.Recorder, logger *zap.Logger, brandName string) *AdminHandlers {
	return &AdminHandlers{
		views:         views,
		sessionStore:  sessionStore,
		auditRecorder: auditRecorder,
		logger:        logger,
		brandName:     brandName,
		clock:         time.Now,
	}
}

type submissionRowPayload struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Company       string   `json:"company"`
	Role          string   `json:"role"`
	Interests     []string `json:"interests"`
	Message       string   `json:"message"`
	FormType      string   `json:"form_type"`
	FormattedDate string   `json:"formatted_date"`
	Selected      bool     `json:"selected"`
}

type dashboardStatePayload struct {
	Rows               []submissionRowPayload `json:"rows"`
	TotalCount         int                    `json:"total_count"`
	SelectedCount      int                    `json:"selected_count"`
	AllVisibleSelected bool                   `json:"all_visible_selected"`
	SearchTerm         string                 `json:"search_term"`
	TypeFilter         string                 `json:"type_filter"`
	SortField          string                 `json:"sort_field"`
	SortDirection      string                 `json:"sort_direction"`
	LastFetchError     string                 `json:"last_fetch_error,omitempty"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type filterRequest struct {
	Type string `json:"type"`
}

type sortRequest struct {
	Field string `json:"field"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type bulkDeleteRequest struct {
	Confirmed bool `json:"confirmed"`
}

// DashboardState returns the current table state, fetching submissions
// from the backend on first use.
func (handlers *AdminHandlers) DashboardState(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	view.EnsureLoaded(context.Request.Context())
	handlers.respondState(context, view)
}

// RefreshSubmissions re-fetches from the backend. A failed fetch keeps the
// last good list so the table never blanks out under the operator.
func (handlers *AdminHandlers) RefreshSubmissions(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	outcome := view.Refresh(context.Request.Context())
	if !outcome.Success {
		context.JSON(http.StatusBadGateway, gin.H{jsonKeyError: outcome.Error})
		return
	}
	handlers.respondState(context, view)
}

// SetSearchTerm updates the free-text filter.
func (handlers *AdminHandlers) SetSearchTerm(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	var request searchRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	view.SetSearchTerm(request.Term)
	handlers.respondState(context, view)
}

// SetTypeFilter updates the form-type filter.
func (handlers *AdminHandlers) SetTypeFilter(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	var request filterRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	if filterErr := view.SetTypeFilter(request.Type); filterErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueUnknownFilter})
		return
	}
	handlers.respondState(context, view)
}

// SortSubmissions sorts by the requested column. Repeating the column
// reverses the direction.
func (handlers *AdminHandlers) SortSubmissions(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	var request sortRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	if sortErr := view.SortBy(request.Field); sortErr != nil {
		if errors.Is(sortErr, dashboard.ErrUnknownSortField) {
			context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueUnknownSort})
			return
		}
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	handlers.respondState(context, view)
}

// ToggleSelection toggles one row's checkbox.
func (handlers *AdminHandlers) ToggleSelection(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	var request selectRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil || request.ID == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingID})
		return
	}
	view.ToggleSelection(request.ID)
	handlers.respondState(context, view)
}

// ToggleSelectAll toggles the header checkbox over the visible rows.
func (handlers *AdminHandlers) ToggleSelectAll(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	view.ToggleSelectAll()
	handlers.respondState(context, view)
}

// DeleteSubmission deletes one submission. The request only reaches the
// backend when the operator confirmed the browser prompt.
func (handlers *AdminHandlers) DeleteSubmission(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	submissionID := context.Param(routeParamSubmissionID)
	confirmed := context.Query(queryParamConfirmed) == queryValueTrue

	outcome := view.DeleteOne(context.Request.Context(), submissionID, confirmed)
	if outcome.Status == dashboard.ActionStatusOK {
		handlers.auditRecorder.Record(context.Request.Context(), audit.ActionSubmissionDeleted, submissionID)
		handlers.logger.Info(logEventDashboardAction,
			zap.String(logFieldAction, audit.ActionSubmissionDeleted),
			zap.String(logFieldSubmissionID, submissionID),
		)
	}
	handlers.respondActionOutcome(context, view, outcome)
}

// BulkDeleteSubmissions deletes every selected submission in one backend
// call. An empty selection is refused before any network traffic.
func (handlers *AdminHandlers) BulkDeleteSubmissions(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	var request bulkDeleteRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	outcome := view.DeleteSelected(context.Request.Context(), request.Confirmed)
	if outcome.Status == dashboard.ActionStatusOK {
		handlers.auditRecorder.Record(context.Request.Context(), audit.ActionSubmissionsBulkDeleted, fmt.Sprintf("%d submissions", outcome.DeletedCount))
	}
	handlers.respondActionOutcome(context, view, outcome)
}

// ExportSubmissions streams the visible (or selected) rows as a CSV
// download named after the brand and the current date.
func (handlers *AdminHandlers) ExportSubmissions(context *gin.Context) {
	view := handlers.viewForRequest(context)
	if view == nil {
		return
	}
	outcome := view.Export()
	if !outcome.Success {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: outcome.Message})
		return
	}

	filename := dashboard.ExportFilename(handlers.brandName, handlers.clock().UTC())
	handlers.auditRecorder.Record(context.Request.Context(), audit.ActionSubmissionsExported, fmt.Sprintf("%d submissions", outcome.RecordCount))

	context.Header("Content-Disposition", fmt.Sprintf(exportDispositionPattern, filename))
	context.Data(http.StatusOK, dashboard.ExportContentType, outcome.Payload)
}

func (handlers *AdminHandlers) viewForRequest(context *gin.Context) *dashboard.View {
	viewID := handlers.sessionStore.ViewID(context)
	if viewID == "" {
		context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return nil
	}
	return handlers.views.ViewFor(viewID)
}

func (handlers *AdminHandlers) respondActionOutcome(context *gin.Context, view *dashboard.View, outcome dashboard.ActionOutcome) {
	switch outcome.Status {
	case dashboard.ActionStatusDeclined:
		context.Status(http.StatusNoContent)
	case dashboard.ActionStatusRejected:
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: outcome.Message})
	case dashboard.ActionStatusFailed:
		context.JSON(http.StatusBadGateway, gin.H{jsonKeyError: outcome.Message})
	default:
		snapshot := view.Snapshot()
		context.JSON(http.StatusOK, gin.H{
			jsonKeyMessage: outcome.Message,
			"state":        buildStatePayload(snapshot),
		})
	}
}

func (handlers *AdminHandlers) respondState(context *gin.Context, view *dashboard.View) {
	context.JSON(http.StatusOK, buildStatePayload(view.Snapshot()))
}

func buildStatePayload(snapshot dashboard.Snapshot) dashboardStatePayload {
	rows := make([]submissionRowPayload, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		rows = append(rows, submissionRowPayload{
			ID:            row.Submission.ID,
			Name:          row.Submission.Name,
			Email:         row.Submission.Email,
			Phone:         row.Submission.Phone,
			Company:       row.Submission.Company,
			Role:          row.Submission.Role,
			Interests:     row.Submission.Interests,
			Message:       row.Submission.Message,
			FormType:      row.FormType,
			FormattedDate: row.FormattedDate,
			Selected:      row.Selected,
		})
	}
	return dashboardStatePayload{
		Rows:               rows,
		TotalCount:         snapshot.TotalCount,
		SelectedCount:      snapshot.SelectedCount,
		AllVisibleSelected: snapshot.AllVisibleSelected,
		SearchTerm:         snapshot.SearchTerm,
		TypeFilter:         string(snapshot.TypeFilter),
		SortField:          snapshot.SortField,
		SortDirection:      string(snapshot.Direction),
		LastFetchError:     snapshot.LastFetchError,
	}
}
