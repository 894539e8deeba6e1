// Package httpapi serves the admin console over HTTP: the login and
// dashboard pages, the JSON operations the dashboard calls, and the public
// lead-capture relay.
package httpapi

// Route paths shared between handlers, guards, and templates.
const (
	LoginPagePath     = "/admin/login"
	DashboardPagePath = "/admin/dashboard"
	LogoutPath        = "/admin/logout"

	DashboardStatePath      = "/app/api/dashboard"
	DashboardRefreshPath    = "/app/api/dashboard/refresh"
	DashboardSearchPath     = "/app/api/dashboard/search"
	DashboardFilterPath     = "/app/api/dashboard/filter"
	DashboardSortPath       = "/app/api/dashboard/sort"
	DashboardSelectPath     = "/app/api/dashboard/select"
	DashboardSelectAllPath  = "/app/api/dashboard/select-all"
	DashboardDeletePath     = "/app/api/submissions/:id"
	DashboardBulkDeletePath = "/app/api/submissions/bulk-delete"
	DashboardExportPath     = "/app/api/dashboard/export"

	PublicLeadPath  = "/api/leads"
	HealthCheckPath = "/healthz"
)

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"
)
