package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/audit"
	"github.com/AtorixIT/leadconsole/internal/dashboard"
	"github.com/AtorixIT/leadconsole/internal/httpapi"
	"github.com/AtorixIT/leadconsole/internal/model"
	"github.com/AtorixIT/leadconsole/internal/session"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

type scriptedRepository struct {
	fetchResult     upstream.FetchResult
	deleteResult    upstream.MutationResult
	deleteOneCalls  []string
	deleteManyCalls [][]string
}

func (repository *scriptedRepository) FetchSubmissions(requestContext context.Context) upstream.FetchResult {
	return repository.fetchResult
}

func (repository *scriptedRepository) DeleteSubmission(requestContext context.Context, submissionID string) upstream.MutationResult {
	repository.deleteOneCalls = append(repository.deleteOneCalls, submissionID)
	return repository.deleteResult
}

func (repository *scriptedRepository) DeleteSubmissions(requestContext context.Context, submissionIDs []string) upstream.MutationResult {
	repository.deleteManyCalls = append(repository.deleteManyCalls, append([]string(nil), submissionIDs...))
	return repository.deleteResult
}

var _ dashboard.SubmissionRepository = (*scriptedRepository)(nil)

type adminHarness struct {
	router     *gin.Engine
	repository *scriptedRepository
	cookies    []*http.Cookie
}

func dashboardFixtureRecords() []model.Submission {
	return []model.Submission{
		{ID: "lead-1", Name: "Ada Wong", Email: "ada@acme.test", Company: "Acme", CreatedAtRaw: "2026-08-20T10:00:00Z", CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)},
		{ID: "lead-2", Name: "Bob Chen", Email: "bob@initech.test", Role: "CTO", CreatedAtRaw: "2026-08-21T10:00:00Z", CreatedAt: time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)},
	}
}

func buildAdminHarness(testingT *testing.T) *adminHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	repository := &scriptedRepository{
		fetchResult:  upstream.FetchResult{Success: true, Submissions: dashboardFixtureRecords()},
		deleteResult: upstream.MutationResult{Success: true, Message: "Submission deleted successfully"},
	}
	sessionStore := session.NewStore("admin-test-secret", zap.NewNop())
	views := httpapi.NewViewRegistry(repository)
	recorder := audit.NewRecorder(nil, zap.NewNop())
	guard := httpapi.NewGuard(sessionStore)
	adminHandlers := httpapi.NewAdminHandlers(views, sessionStore, recorder, zap.NewNop(), testBrandName)
	pageHandlers := httpapi.NewDashboardPageHandlers(zap.NewNop(), testBrandName)

	router := gin.New()
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

	harness := &adminHarness{router: router, repository: repository}
	harness.cookies = establishAdminSession(testingT, sessionStore)
	return harness
}

func establishAdminSession(testingT *testing.T, sessionStore *session.Store) []*http.Cookie {
	testingT.Helper()
	recorder := httptest.NewRecorder()
	ginContext, _ := gin.CreateTestContext(recorder)
	ginContext.Request = httptest.NewRequest(http.MethodGet, httpapi.LoginPagePath, nil)
	require.NoError(testingT, sessionStore.Establish(ginContext, testSessionToken))
	cookies := recorder.Result().Cookies()
	require.NotEmpty(testingT, cookies)
	return cookies
}

func (harness *adminHarness) perform(testingT *testing.T, method string, path string, body any) *httptest.ResponseRecorder {
	testingT.Helper()
	var requestBody io.Reader
	if body != nil {
		encoded, encodeErr := json.Marshal(body)
		require.NoError(testingT, encodeErr)
		requestBody = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, requestBody)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range harness.cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeState(testingT *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	testingT.Helper()
	var payload map[string]any
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &payload))
	if nested, ok := payload["state"].(map[string]any); ok {
		return nested
	}
	return payload
}

func stateRowCount(state map[string]any) int {
	rows, _ := state["rows"].([]any)
	return len(rows)
}

func TestDashboardPageRequiresSession(t *testing.T) {
	harness := buildAdminHarness(t)

	request := httptest.NewRequest(http.MethodGet, httpapi.DashboardPagePath, nil)
	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)
	require.Equal(t, httpapi.LoginPagePath, recorder.Header().Get("Location"))
}

func TestDashboardJSONRequiresSession(t *testing.T) {
	harness := buildAdminHarness(t)

	request := httptest.NewRequest(http.MethodGet, httpapi.DashboardStatePath, nil)
	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unauthorized")
}

func TestDashboardPageRendersForActiveSession(t *testing.T) {
	harness := buildAdminHarness(t)

	recorder := harness.perform(t, http.MethodGet, httpapi.DashboardPagePath, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), testBrandName)
	require.Contains(t, recorder.Body.String(), httpapi.DashboardStatePath)
}

func TestDashboardStateReturnsSubmissionRows(t *testing.T) {
	harness := buildAdminHarness(t)

	recorder := harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	state := decodeState(t, recorder)
	require.Equal(t, 2, stateRowCount(state))
	require.Equal(t, float64(2), state["total_count"])
}

func TestRefreshFailureReportsUpstreamError(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	harness.repository.fetchResult = upstream.FetchResult{Success: false, Submissions: []model.Submission{}, Error: "backend down"}
	recorder := harness.perform(t, http.MethodPost, httpapi.DashboardRefreshPath, nil)

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Contains(t, recorder.Body.String(), "backend down")

	stateRecorder := harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)
	require.Equal(t, 2, stateRowCount(decodeState(t, stateRecorder)))
}

func TestUnknownTypeFilterRejected(t *testing.T) {
	harness := buildAdminHarness(t)

	recorder := harness.perform(t, http.MethodPost, httpapi.DashboardFilterPath, gin.H{"type": "newsletter"})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unknown_filter")
}

func TestUnknownSortFieldRejected(t *testing.T) {
	harness := buildAdminHarness(t)

	recorder := harness.perform(t, http.MethodPost, httpapi.DashboardSortPath, gin.H{"field": "message"})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unknown_sort_field")
}

func TestDeleteWithoutConfirmationIsNoOp(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	recorder := harness.perform(t, http.MethodDelete, "/app/api/submissions/lead-1", nil)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Empty(t, harness.repository.deleteOneCalls)

	stateRecorder := harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)
	require.Equal(t, 2, stateRowCount(decodeState(t, stateRecorder)))
}

func TestConfirmedDeleteRemovesRow(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	recorder := harness.perform(t, http.MethodDelete, "/app/api/submissions/lead-1?confirmed=true", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, []string{"lead-1"}, harness.repository.deleteOneCalls)
	require.Contains(t, recorder.Body.String(), "Submission deleted successfully")
	require.Equal(t, 1, stateRowCount(decodeState(t, recorder)))
}

func TestBulkDeleteWithEmptySelectionRejectedLocally(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	recorder := harness.perform(t, http.MethodPost, httpapi.DashboardBulkDeletePath, gin.H{"confirmed": true})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), dashboard.MessageNoSubmissionsSelected)
	require.Empty(t, harness.repository.deleteManyCalls)
}

func TestBulkDeleteRemovesSelectedRows(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)
	harness.perform(t, http.MethodPost, httpapi.DashboardSelectPath, gin.H{"id": "lead-2"})

	recorder := harness.perform(t, http.MethodPost, httpapi.DashboardBulkDeletePath, gin.H{"confirmed": true})

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, [][]string{{"lead-2"}}, harness.repository.deleteManyCalls)
	state := decodeState(t, recorder)
	require.Equal(t, 1, stateRowCount(state))
	require.Equal(t, float64(0), state["selected_count"])
}

func TestExportStreamsCSVDownload(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.perform(t, http.MethodGet, httpapi.DashboardStatePath, nil)

	recorder := harness.perform(t, http.MethodGet, httpapi.DashboardExportPath, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, dashboard.ExportContentType, recorder.Header().Get("Content-Type"))
	require.Contains(t, recorder.Header().Get("Content-Disposition"), testBrandName+"_submissions_")
	require.Contains(t, recorder.Body.String(), "ID,Name,Email,Phone,Company,Role,Message,Date")
	require.Contains(t, recorder.Body.String(), `"lead-1"`)
}

func TestExportWithoutDataRejected(t *testing.T) {
	harness := buildAdminHarness(t)
	harness.repository.fetchResult = upstream.FetchResult{Success: true, Submissions: []model.Submission{}}

	recorder := harness.perform(t, http.MethodGet, httpapi.DashboardExportPath, nil)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), dashboard.MessageNoDataToExport)
}
