package dashboard

// SelectionSet tracks which submission identifiers the operator has checked.
// Membership is independent of the active filter; only deletions prune it.
type SelectionSet struct {
	members map[string]struct{}
}

// NewSelectionSet creates an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{members: make(map[string]struct{})}
}

// ToggleOne adds the identifier when absent and removes it when present.
func (selection *SelectionSet) ToggleOne(submissionID string) {
	if _, present := selection.members[submissionID]; present {
		delete(selection.members, submissionID)
		return
	}
	selection.members[submissionID] = struct{}{}
}

// ToggleAll implements select-all scoped to the currently visible rows: when
// the selection already equals visibleIDs (same membership, order ignored) it
// clears; otherwise it is replaced wholesale by visibleIDs.
func (selection *SelectionSet) ToggleAll(visibleIDs []string) {
	if selection.Matches(visibleIDs) {
		selection.Clear()
		return
	}

	selection.members = make(map[string]struct{}, len(visibleIDs))
	for _, visibleID := range visibleIDs {
		selection.members[visibleID] = struct{}{}
	}
}

// Matches reports whether the selection has exactly the given membership.
func (selection *SelectionSet) Matches(visibleIDs []string) bool {
	distinctVisible := make(map[string]struct{}, len(visibleIDs))
	for _, visibleID := range visibleIDs {
		distinctVisible[visibleID] = struct{}{}
	}
	if len(distinctVisible) != len(selection.members) {
		return false
	}
	for visibleID := range distinctVisible {
		if _, present := selection.members[visibleID]; !present {
			return false
		}
	}
	return true
}

// Remove evicts the given identifiers, keeping the selection consistent with
// a cache the identifiers were just deleted from.
func (selection *SelectionSet) Remove(submissionIDs []string) {
	for _, submissionID := range submissionIDs {
		delete(selection.members, submissionID)
	}
}

// Clear empties the selection.
func (selection *SelectionSet) Clear() {
	selection.members = make(map[string]struct{})
}

// Contains reports membership of one identifier.
func (selection *SelectionSet) Contains(submissionID string) bool {
	_, present := selection.members[submissionID]
	return present
}

// Count returns the number of selected identifiers.
func (selection *SelectionSet) Count() int {
	return len(selection.members)
}

// IDs returns the selected identifiers in unspecified order.
func (selection *SelectionSet) IDs() []string {
	identifiers := make([]string, 0, len(selection.members))
	for submissionID := range selection.members {
		identifiers = append(identifiers, submissionID)
	}
	return identifiers
}
