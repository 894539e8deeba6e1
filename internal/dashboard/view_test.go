package dashboard_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AtorixIT/leadconsole/internal/dashboard"
	"github.com/AtorixIT/leadconsole/internal/model"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

type fakeRepository struct {
	fetchResult     upstream.FetchResult
	deleteResult    upstream.MutationResult
	fetchCalls      int
	deleteOneCalls  []string
	deleteManyCalls [][]string
}

func (repository *fakeRepository) FetchSubmissions(requestContext context.Context) upstream.FetchResult {
	repository.fetchCalls++
	return repository.fetchResult
}

func (repository *fakeRepository) DeleteSubmission(requestContext context.Context, submissionID string) upstream.MutationResult {
	repository.deleteOneCalls = append(repository.deleteOneCalls, submissionID)
	return repository.deleteResult
}

func (repository *fakeRepository) DeleteSubmissions(requestContext context.Context, submissionIDs []string) upstream.MutationResult {
	copied := append([]string(nil), submissionIDs...)
	repository.deleteManyCalls = append(repository.deleteManyCalls, copied)
	return repository.deleteResult
}

func newLoadedView(testingT *testing.T, repository *fakeRepository) *dashboard.View {
	testingT.Helper()
	view := dashboard.NewView(repository)
	outcome := view.EnsureLoaded(context.Background())
	require.True(testingT, outcome.Success)
	return view
}

func successfulRepository(records []model.Submission) *fakeRepository {
	return &fakeRepository{
		fetchResult:  upstream.FetchResult{Success: true, Submissions: records},
		deleteResult: upstream.MutationResult{Success: true, Message: "deleted"},
	}
}

func TestEnsureLoadedFetchesOnlyOnce(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)

	view.EnsureLoaded(context.Background())
	require.Equal(testingT, 1, repository.fetchCalls)
}

func TestFailedRefreshPreservesLastKnownGoodList(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)
	require.Len(testingT, view.Snapshot().Rows, 3)

	repository.fetchResult = upstream.FetchResult{Success: false, Submissions: []model.Submission{}, Error: "backend down"}
	outcome := view.Refresh(context.Background())

	require.False(testingT, outcome.Success)
	snapshot := view.Snapshot()
	require.Len(testingT, snapshot.Rows, 3, "failed refresh must not clear good data")
	require.Equal(testingT, "backend down", snapshot.LastFetchError)
}

func TestSuccessfulRefreshPrunesStaleSelection(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")
	view.ToggleSelection("lead-2")

	repository.fetchResult = upstream.FetchResult{Success: true, Submissions: sampleRecords()[1:]}
	require.True(testingT, view.Refresh(context.Background()).Success)

	snapshot := view.Snapshot()
	require.Equal(testingT, 1, snapshot.SelectedCount)
	for _, row := range snapshot.Rows {
		if row.Submission.ID == "lead-2" {
			require.True(testingT, row.Selected)
		}
	}
}

func TestSortByTogglesDirectionAndResetsForNewField(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository(sampleRecords()))

	require.NoError(testingT, view.SortBy(dashboard.SortFieldName))
	firstOrder := snapshotIDs(view)

	require.NoError(testingT, view.SortBy(dashboard.SortFieldName))
	secondOrder := snapshotIDs(view)
	require.Equal(testingT, reversed(firstOrder), secondOrder)

	require.NoError(testingT, view.SortBy(dashboard.SortFieldName))
	thirdOrder := snapshotIDs(view)
	require.Equal(testingT, firstOrder, thirdOrder)

	require.NoError(testingT, view.SortBy(dashboard.SortFieldEmail))
	snapshot := view.Snapshot()
	require.Equal(testingT, dashboard.SortFieldEmail, snapshot.SortField)
	require.Equal(testingT, dashboard.SortAscending, snapshot.Direction)

	require.ErrorIs(testingT, view.SortBy("message"), dashboard.ErrUnknownSortField)
}

func TestDeleteOneDeclinedIsSilentNoOp(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)

	outcome := view.DeleteOne(context.Background(), "lead-1", false)

	require.Equal(testingT, dashboard.ActionStatusDeclined, outcome.Status)
	require.Empty(testingT, outcome.Message)
	require.Empty(testingT, repository.deleteOneCalls, "declining must not reach the repository")
	require.Len(testingT, view.Snapshot().Rows, 3)
}

func TestDeleteOneRemovesRecordFromCacheAndSelection(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")

	outcome := view.DeleteOne(context.Background(), "lead-1", true)

	require.Equal(testingT, dashboard.ActionStatusOK, outcome.Status)
	require.Equal(testingT, []string{"lead-1"}, repository.deleteOneCalls)
	require.Equal(testingT, 1, repository.fetchCalls, "no re-fetch after a delete")

	snapshot := view.Snapshot()
	require.NotContains(testingT, snapshotIDs(view), "lead-1")
	require.Zero(testingT, snapshot.SelectedCount)
}

func TestDeleteOneFailureLeavesStateUntouched(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	repository.deleteResult = upstream.MutationResult{Success: false, Error: "Submission not found"}
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")

	outcome := view.DeleteOne(context.Background(), "lead-1", true)

	require.Equal(testingT, dashboard.ActionStatusFailed, outcome.Status)
	require.Equal(testingT, "Submission not found", outcome.Message)
	snapshot := view.Snapshot()
	require.Len(testingT, snapshot.Rows, 3)
	require.Equal(testingT, 1, snapshot.SelectedCount)
}

func TestDeleteSelectedRefusesEmptySelectionBeforeNetwork(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)

	outcome := view.DeleteSelected(context.Background(), true)

	require.Equal(testingT, dashboard.ActionStatusRejected, outcome.Status)
	require.Equal(testingT, dashboard.MessageNoSubmissionsSelected, outcome.Message)
	require.Empty(testingT, repository.deleteManyCalls)
}

func TestDeleteSelectedRemovesExactlySelectedIdentifiers(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")
	view.ToggleSelection("lead-3")

	outcome := view.DeleteSelected(context.Background(), true)

	require.Equal(testingT, dashboard.ActionStatusOK, outcome.Status)
	require.Len(testingT, repository.deleteManyCalls, 1)

	requestedIDs := append([]string(nil), repository.deleteManyCalls[0]...)
	sort.Strings(requestedIDs)
	require.Equal(testingT, []string{"lead-1", "lead-3"}, requestedIDs)

	snapshot := view.Snapshot()
	require.Equal(testingT, []string{"lead-2"}, snapshotIDs(view))
	require.Zero(testingT, snapshot.SelectedCount, "selection resets after a successful bulk delete")
}

func TestDeleteOutcomesReportDeletedCount(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")
	view.ToggleSelection("lead-3")

	bulkOutcome := view.DeleteSelected(context.Background(), true)
	require.Equal(testingT, dashboard.ActionStatusOK, bulkOutcome.Status)
	require.Equal(testingT, 2, bulkOutcome.DeletedCount, "count reflects the ids sent to the backend")

	singleOutcome := view.DeleteOne(context.Background(), "lead-2", true)
	require.Equal(testingT, dashboard.ActionStatusOK, singleOutcome.Status)
	require.Equal(testingT, 1, singleOutcome.DeletedCount)

	declinedOutcome := view.DeleteOne(context.Background(), "lead-2", false)
	require.Zero(testingT, declinedOutcome.DeletedCount)
}

func TestDeleteSelectedFailureKeepsCacheAndSelection(testingT *testing.T) {
	repository := successfulRepository(sampleRecords())
	repository.deleteResult = upstream.MutationResult{Success: false, Error: "backend down"}
	view := newLoadedView(testingT, repository)
	view.ToggleSelection("lead-1")

	outcome := view.DeleteSelected(context.Background(), true)

	require.Equal(testingT, dashboard.ActionStatusFailed, outcome.Status)
	snapshot := view.Snapshot()
	require.Len(testingT, snapshot.Rows, 3)
	require.Equal(testingT, 1, snapshot.SelectedCount, "operator can safely retry the same action")
}

func TestToggleSelectAllScopesToFilteredView(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository(sampleRecords()))
	require.NoError(testingT, view.SetTypeFilter("demo"))

	view.ToggleSelectAll()
	snapshot := view.Snapshot()
	require.Equal(testingT, 2, snapshot.SelectedCount)
	require.True(testingT, snapshot.AllVisibleSelected)

	view.ToggleSelectAll()
	require.Zero(testingT, view.Snapshot().SelectedCount)
}

func TestSelectionSurvivesFilterChange(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository(sampleRecords()))
	require.NoError(testingT, view.SetTypeFilter("demo"))
	view.ToggleSelectAll()
	require.Equal(testingT, 2, view.Snapshot().SelectedCount)

	require.NoError(testingT, view.SetTypeFilter("all"))
	snapshot := view.Snapshot()
	require.Equal(testingT, 2, snapshot.SelectedCount, "hidden-but-selected rows stay selected")
	require.False(testingT, snapshot.AllVisibleSelected, "widened view shows a partial selection")
}

func TestExportUsesSelectionWhenPresentOtherwiseVisibleRows(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository(sampleRecords()))

	fullExport := view.Export()
	require.True(testingT, fullExport.Success)
	require.Equal(testingT, 3, fullExport.RecordCount)

	view.ToggleSelection("lead-2")
	selectedExport := view.Export()
	require.True(testingT, selectedExport.Success)
	require.Equal(testingT, 1, selectedExport.RecordCount)
	require.Contains(testingT, string(selectedExport.Payload), "lead-2")
	require.NotContains(testingT, string(selectedExport.Payload), "lead-1")
}

func TestExportSkipsSelectedRowsHiddenByFilter(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository(sampleRecords()))
	view.ToggleSelection("lead-1")
	view.ToggleSelection("lead-2")
	require.NoError(testingT, view.SetTypeFilter("demo"))

	outcome := view.Export()
	require.True(testingT, outcome.Success)
	require.Equal(testingT, 1, outcome.RecordCount, "only selected-and-still-visible records export")
	require.Contains(testingT, string(outcome.Payload), "lead-2")
}

func TestExportRejectsEmptySetBeforeEncoding(testingT *testing.T) {
	view := newLoadedView(testingT, successfulRepository([]model.Submission{}))

	outcome := view.Export()
	require.False(testingT, outcome.Success)
	require.Equal(testingT, dashboard.MessageNoDataToExport, outcome.Message)
	require.Nil(testingT, outcome.Payload)
}

func snapshotIDs(view *dashboard.View) []string {
	snapshot := view.Snapshot()
	identifiers := make([]string, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		identifiers = append(identifiers, row.Submission.ID)
	}
	return identifiers
}

func reversed(values []string) []string {
	reversedValues := make([]string, 0, len(values))
	for index := len(values) - 1; index >= 0; index-- {
		reversedValues = append(reversedValues, values[index])
	}
	return reversedValues
}
