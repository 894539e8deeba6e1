package httpapi

import (
	"sync"

	"github.com/AtorixIT/leadconsole/internal/dashboard"
)

// ViewRegistry holds one dashboard view per active session. Views are
// created lazily on first use and evicted on logout; an evicted view is
// simply rebuilt from a fresh fetch on the next request.
type ViewRegistry struct {
	mutex      sync.Mutex
	repository dashboard.SubmissionRepository
	views      map[string]*dashboard.View
}

func NewViewRegistry(repository dashboard.SubmissionRepository) *ViewRegistry {
	return &ViewRegistry{
		repository: repository,
		views:      make(map[string]*dashboard.View),
	}
}

// ViewFor returns the dashboard view for the session's view identifier,
// creating it if none exists yet.
func (registry *ViewRegistry) ViewFor(viewID string) *dashboard.View {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	view, exists := registry.views[viewID]
	if !exists {
		view = dashboard.NewView(registry.repository)
		registry.views[viewID] = view
	}
	return view
}

// Evict drops the view for a session that logged out.
func (registry *ViewRegistry) Evict(viewID string) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	delete(registry.views, viewID)
}
