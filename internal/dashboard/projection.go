// Package dashboard holds the state and pure transforms behind the admin
// submissions view: the locally cached list, the operator's selection, the
// filter/sort projection, and the CSV export encoding.
package dashboard

import (
	"errors"
	"sort"
	"strings"

	"github.com/AtorixIT/leadconsole/internal/model"
)

// TypeFilter narrows the visible list to one inferred form type.
type TypeFilter string

// SortDirection orders a sorted column.
type SortDirection string

const (
	TypeFilterAll     TypeFilter = "all"
	TypeFilterContact TypeFilter = "contact"
	TypeFilterDemo    TypeFilter = "demo"

	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"

	SortFieldName      = "name"
	SortFieldEmail     = "email"
	SortFieldPhone     = "phone"
	SortFieldCompany   = "company"
	SortFieldCreatedAt = "createdAt"
)

var (
	// ErrUnknownTypeFilter rejects type filters outside {all, contact, demo}.
	ErrUnknownTypeFilter = errors.New("dashboard: unknown type filter")
	// ErrUnknownSortField rejects sort fields without a backing column.
	ErrUnknownSortField = errors.New("dashboard: unknown sort field")
)

var sortableFields = map[string]struct{}{
	SortFieldName:      {},
	SortFieldEmail:     {},
	SortFieldPhone:     {},
	SortFieldCompany:   {},
	SortFieldCreatedAt: {},
}

// FilterSortState is the operator's current view configuration. It is pure UI
// state: not persisted, never owned by the projection itself.
type FilterSortState struct {
	SearchTerm string
	Type       TypeFilter
	SortField  string
	Direction  SortDirection
}

// DefaultFilterSortState matches the view's initial configuration: everything
// visible, newest first.
func DefaultFilterSortState() FilterSortState {
	return FilterSortState{
		Type:      TypeFilterAll,
		SortField: SortFieldCreatedAt,
		Direction: SortDescending,
	}
}

// ParseTypeFilter validates an operator-supplied type filter value.
func ParseTypeFilter(rawValue string) (TypeFilter, error) {
	normalized := TypeFilter(strings.ToLower(strings.TrimSpace(rawValue)))
	switch normalized {
	case TypeFilterAll, TypeFilterContact, TypeFilterDemo:
		return normalized, nil
	default:
		return "", ErrUnknownTypeFilter
	}
}

// ValidSortField reports whether the field maps to a sortable column.
func ValidSortField(fieldName string) bool {
	_, known := sortableFields[fieldName]
	return known
}

func (typeFilter TypeFilter) formTypeLabel() string {
	switch typeFilter {
	case TypeFilterContact:
		return model.FormTypeContactForm
	case TypeFilterDemo:
		return model.FormTypeDemoRequest
	default:
		return ""
	}
}

// Project derives the visible, ordered rows from the cached records and the
// current filter/sort state. The transform is pure: the input slice is never
// mutated and every returned record is one of the inputs. Filters apply in a
// fixed order: type filter, then text search, then sort.
func Project(records []model.Submission, state FilterSortState) []model.Submission {
	projected := make([]model.Submission, 0, len(records))

	expectedFormType := state.Type.formTypeLabel()
	searchTerm := strings.ToLower(strings.TrimSpace(state.SearchTerm))

	for _, record := range records {
		if expectedFormType != "" && record.FormType() != expectedFormType {
			continue
		}
		if searchTerm != "" && !matchesSearchTerm(record, searchTerm) {
			continue
		}
		projected = append(projected, record)
	}

	sortProjected(projected, state)
	return projected
}

func matchesSearchTerm(record model.Submission, lowercaseTerm string) bool {
	searchableValues := []string{record.Name, record.Email, record.Company, record.Phone}
	for _, value := range searchableValues {
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(value), lowercaseTerm) {
			return true
		}
	}
	return false
}

func sortProjected(records []model.Submission, state FilterSortState) {
	if !ValidSortField(state.SortField) {
		return
	}

	ascendingLess := func(first model.Submission, second model.Submission) bool {
		if state.SortField == SortFieldCreatedAt {
			return createdAtSortValue(first) < createdAtSortValue(second)
		}
		return stringSortValue(first, state.SortField) < stringSortValue(second, state.SortField)
	}

	sort.SliceStable(records, func(firstIndex int, secondIndex int) bool {
		if state.Direction == SortDescending {
			return ascendingLess(records[secondIndex], records[firstIndex])
		}
		return ascendingLess(records[firstIndex], records[secondIndex])
	})
}

// createdAtSortValue treats missing or unparseable timestamps as epoch zero.
func createdAtSortValue(record model.Submission) int64 {
	if record.CreatedAt.IsZero() {
		return 0
	}
	return record.CreatedAt.UnixMilli()
}

func stringSortValue(record model.Submission, fieldName string) string {
	switch fieldName {
	case SortFieldName:
		return strings.ToLower(record.Name)
	case SortFieldEmail:
		return strings.ToLower(record.Email)
	case SortFieldPhone:
		return strings.ToLower(record.Phone)
	case SortFieldCompany:
		return strings.ToLower(record.Company)
	default:
		return ""
	}
}
