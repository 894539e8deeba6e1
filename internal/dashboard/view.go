package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/AtorixIT/leadconsole/internal/model"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	// MessageNoSubmissionsSelected refuses a bulk delete with nothing checked.
	MessageNoSubmissionsSelected = "No submissions selected"
	// MessageNoDataToExport refuses an export of an empty visible set.
	MessageNoDataToExport = "No data to export"

	messageExportedPattern = "Exported %d submissions successfully"
)

// ActionStatus categorizes the outcome of an operator action.
type ActionStatus string

const (
	// ActionStatusOK marks a completed action.
	ActionStatusOK ActionStatus = "ok"
	// ActionStatusDeclined marks a delete whose confirmation was declined; a
	// declined action performs no network call and raises no error.
	ActionStatusDeclined ActionStatus = "declined"
	// ActionStatusRejected marks an action refused by local validation before
	// any network call.
	ActionStatusRejected ActionStatus = "rejected"
	// ActionStatusFailed marks an action the backend reported as failed. No
	// local state was mutated, so retrying the same action is safe.
	ActionStatusFailed ActionStatus = "failed"
)

// ActionOutcome reports a delete action back to the operator. DeletedCount
// is the number of records actually removed, so callers audit what happened
// rather than re-reading selection state that may have moved on.
type ActionOutcome struct {
	Status       ActionStatus
	Message      string
	DeletedCount int
}

// RefreshOutcome reports a fetch attempt.
type RefreshOutcome struct {
	Success bool
	Error   string
}

// ExportOutcome carries an encoded CSV payload or a refusal message.
type ExportOutcome struct {
	Success     bool
	Message     string
	Payload     []byte
	RecordCount int
}

// Row is one rendered table row.
type Row struct {
	Submission    model.Submission
	FormType      string
	FormattedDate string
	Selected      bool
}

// Snapshot is the view state handed to the rendering layer.
type Snapshot struct {
	Rows               []Row
	TotalCount         int
	SelectedCount      int
	AllVisibleSelected bool
	SearchTerm         string
	TypeFilter         TypeFilter
	SortField          string
	Direction          SortDirection
	Loaded             bool
	LastFetchError     string
}

// SubmissionRepository is the remote side of the view. *upstream.Client
// satisfies it; tests substitute fakes.
type SubmissionRepository interface {
	FetchSubmissions(requestContext context.Context) upstream.FetchResult
	DeleteSubmission(requestContext context.Context, submissionID string) upstream.MutationResult
	DeleteSubmissions(requestContext context.Context, submissionIDs []string) upstream.MutationResult
}

// View is one operator's dashboard instance: the locally cached submission
// list, their selection, and their filter/sort state. The cache mirrors the
// repository's last successful fetch and is mutated optimistically after
// successful deletes instead of re-fetching. All methods are safe for
// concurrent use; operations on one view are serialized.
type View struct {
	mutex      sync.Mutex
	repository SubmissionRepository
	cache      []model.Submission
	selection  *SelectionSet
	state      FilterSortState
	loaded     bool
	lastError  string
}

// NewView creates a View over the given repository.
func NewView(repository SubmissionRepository) *View {
	return &View{
		repository: repository,
		cache:      []model.Submission{},
		selection:  NewSelectionSet(),
		state:      DefaultFilterSortState(),
	}
}

// EnsureLoaded fetches the list once for a fresh view. Subsequent calls are
// no-ops; the operator refreshes explicitly afterwards.
func (view *View) EnsureLoaded(requestContext context.Context) RefreshOutcome {
	view.mutex.Lock()
	alreadyLoaded := view.loaded
	view.mutex.Unlock()

	if alreadyLoaded {
		return RefreshOutcome{Success: true}
	}
	return view.Refresh(requestContext)
}

// Refresh replaces the cache wholesale from the repository. A failed fetch
// reports the error and leaves the last-known-good list and the selection
// untouched.
func (view *View) Refresh(requestContext context.Context) RefreshOutcome {
	fetchResult := view.repository.FetchSubmissions(requestContext)

	view.mutex.Lock()
	defer view.mutex.Unlock()

	if !fetchResult.Success {
		view.lastError = fetchResult.Error
		return RefreshOutcome{Success: false, Error: fetchResult.Error}
	}

	view.cache = fetchResult.Submissions
	view.loaded = true
	view.lastError = ""
	view.pruneSelectionAgainstCache()
	return RefreshOutcome{Success: true}
}

// SetSearchTerm updates the live search filter.
func (view *View) SetSearchTerm(searchTerm string) {
	view.mutex.Lock()
	defer view.mutex.Unlock()
	view.state.SearchTerm = searchTerm
}

// SetTypeFilter updates the form-type filter. The active selection is
// preserved across filter changes; hidden-but-selected rows stay selected.
func (view *View) SetTypeFilter(rawValue string) error {
	typeFilter, parseErr := ParseTypeFilter(rawValue)
	if parseErr != nil {
		return parseErr
	}

	view.mutex.Lock()
	defer view.mutex.Unlock()
	view.state.Type = typeFilter
	return nil
}

// SortBy sorts by the given column. Re-sorting the active column flips the
// direction; a new column resets to ascending.
func (view *View) SortBy(fieldName string) error {
	if !ValidSortField(fieldName) {
		return ErrUnknownSortField
	}

	view.mutex.Lock()
	defer view.mutex.Unlock()

	if view.state.SortField == fieldName {
		if view.state.Direction == SortAscending {
			view.state.Direction = SortDescending
		} else {
			view.state.Direction = SortAscending
		}
		return nil
	}

	view.state.SortField = fieldName
	view.state.Direction = SortAscending
	return nil
}

// ToggleSelection toggles one row's checkbox.
func (view *View) ToggleSelection(submissionID string) {
	view.mutex.Lock()
	defer view.mutex.Unlock()
	view.selection.ToggleOne(submissionID)
}

// ToggleSelectAll toggles the header checkbox, scoped to the rows visible
// under the active filter rather than the full cache.
func (view *View) ToggleSelectAll() {
	view.mutex.Lock()
	defer view.mutex.Unlock()
	view.selection.ToggleAll(view.visibleIDsLocked())
}

// DeleteOne deletes a single submission. The confirmation strictly precedes
// the network call, which strictly precedes the local mutation; declining is
// a silent no-op. On success the record leaves the cache and the selection in
// the same update, with no re-fetch.
func (view *View) DeleteOne(requestContext context.Context, submissionID string, confirmed bool) ActionOutcome {
	if !confirmed {
		return ActionOutcome{Status: ActionStatusDeclined}
	}

	deleteResult := view.repository.DeleteSubmission(requestContext, submissionID)
	if !deleteResult.Success {
		return ActionOutcome{Status: ActionStatusFailed, Message: deleteResult.Error}
	}

	view.mutex.Lock()
	view.removeFromCacheLocked([]string{submissionID})
	view.mutex.Unlock()

	return ActionOutcome{Status: ActionStatusOK, Message: deleteResult.Message, DeletedCount: 1}
}

// DeleteSelected bulk-deletes the current selection. An empty selection is
// refused locally before any network call; a declined confirmation is a
// silent no-op. On success the selection resets to empty.
func (view *View) DeleteSelected(requestContext context.Context, confirmed bool) ActionOutcome {
	view.mutex.Lock()
	selectedIDs := view.selection.IDs()
	view.mutex.Unlock()

	if len(selectedIDs) == 0 {
		return ActionOutcome{Status: ActionStatusRejected, Message: MessageNoSubmissionsSelected}
	}
	if !confirmed {
		return ActionOutcome{Status: ActionStatusDeclined}
	}

	deleteResult := view.repository.DeleteSubmissions(requestContext, selectedIDs)
	if !deleteResult.Success {
		return ActionOutcome{Status: ActionStatusFailed, Message: deleteResult.Error}
	}

	view.mutex.Lock()
	view.removeFromCacheLocked(selectedIDs)
	view.selection.Clear()
	view.mutex.Unlock()

	return ActionOutcome{Status: ActionStatusOK, Message: deleteResult.Message, DeletedCount: len(selectedIDs)}
}

// Export encodes records to CSV: the selected-and-still-visible records when
// a selection exists, otherwise everything currently visible. An empty record
// set is refused before any payload is built.
func (view *View) Export() ExportOutcome {
	view.mutex.Lock()
	visibleRecords := Project(view.cache, view.state)
	recordsToExport := visibleRecords
	if view.selection.Count() > 0 {
		recordsToExport = make([]model.Submission, 0, view.selection.Count())
		for _, record := range visibleRecords {
			if view.selection.Contains(record.ID) {
				recordsToExport = append(recordsToExport, record)
			}
		}
	}
	view.mutex.Unlock()

	if len(recordsToExport) == 0 {
		return ExportOutcome{Success: false, Message: MessageNoDataToExport}
	}

	return ExportOutcome{
		Success:     true,
		Message:     fmt.Sprintf(messageExportedPattern, len(recordsToExport)),
		Payload:     EncodeCSV(recordsToExport),
		RecordCount: len(recordsToExport),
	}
}

// Snapshot derives the rendered view from the current cache and state.
func (view *View) Snapshot() Snapshot {
	view.mutex.Lock()
	defer view.mutex.Unlock()

	visibleRecords := Project(view.cache, view.state)
	rows := make([]Row, 0, len(visibleRecords))
	visibleIDs := make([]string, 0, len(visibleRecords))
	for _, record := range visibleRecords {
		visibleIDs = append(visibleIDs, record.ID)
		rows = append(rows, Row{
			Submission:    record,
			FormType:      record.FormType(),
			FormattedDate: record.FormattedDate(),
			Selected:      view.selection.Contains(record.ID),
		})
	}

	return Snapshot{
		Rows:               rows,
		TotalCount:         len(view.cache),
		SelectedCount:      view.selection.Count(),
		AllVisibleSelected: len(visibleIDs) > 0 && view.selection.Matches(visibleIDs),
		SearchTerm:         view.state.SearchTerm,
		TypeFilter:         view.state.Type,
		SortField:          view.state.SortField,
		Direction:          view.state.Direction,
		Loaded:             view.loaded,
		LastFetchError:     view.lastError,
	}
}

func (view *View) visibleIDsLocked() []string {
	visibleRecords := Project(view.cache, view.state)
	visibleIDs := make([]string, 0, len(visibleRecords))
	for _, record := range visibleRecords {
		visibleIDs = append(visibleIDs, record.ID)
	}
	return visibleIDs
}

// removeFromCacheLocked evicts the ids from the cache and the selection in
// one update, keeping the invariant that the selection never references a
// record the cache no longer holds.
func (view *View) removeFromCacheLocked(submissionIDs []string) {
	removedIDs := make(map[string]struct{}, len(submissionIDs))
	for _, submissionID := range submissionIDs {
		removedIDs[submissionID] = struct{}{}
	}

	remaining := make([]model.Submission, 0, len(view.cache))
	for _, record := range view.cache {
		if _, removed := removedIDs[record.ID]; removed {
			continue
		}
		remaining = append(remaining, record)
	}
	view.cache = remaining
	view.selection.Remove(submissionIDs)
}

func (view *View) pruneSelectionAgainstCache() {
	cachedIDs := make(map[string]struct{}, len(view.cache))
	for _, record := range view.cache {
		cachedIDs[record.ID] = struct{}{}
	}
	for _, selectedID := range view.selection.IDs() {
		if _, present := cachedIDs[selectedID]; !present {
			view.selection.Remove([]string{selectedID})
		}
	}
}
