package httpapi

import _ "embed"

//go:embed templates/login.tmpl
var loginTemplateHTML string

//go:embed templates/dashboard.tmpl
var dashboardTemplateHTML string
