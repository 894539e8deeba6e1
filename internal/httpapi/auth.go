package httpapi

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/audit"
	"github.com/AtorixIT/leadconsole/internal/session"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	loginTemplateName    = "login"
	loginPageTitle       = "Admin Login"
	htmlContentType      = "text/html; charset=utf-8"
	formFieldUsername    = "username"
	formFieldPassword    = "password"
	messageMissingFields = "Please enter both username and password"

	logEventLoginAttempt = "login_attempt"
	logEventLogout       = "logout"
	logEventRenderLogin  = "render_login"
	logFieldUsername     = "username"
	logFieldSuccess      = "success"
)

// CredentialValidator checks an operator's credentials against the backend.
type CredentialValidator interface {
	Login(requestContext context.Context, username string, password string) upstream.LoginResult
}

// AuthHandlers serves the login form and the logout action.
type AuthHandlers struct {
	validator     CredentialValidator
	sessionStore  *session.Store
	views         *ViewRegistry
	auditRecorder *audit.Recorder
	logger        *zap.Logger
	loginTemplate *template.Template
	brandName     string
}

func NewAuthHandlers(validator CredentialValidator, sessionStore *session.Store, views *ViewRegistry, auditRecorder *audit.Recorder, logger *zap.Logger, brandName string) *AuthHandlers {
	compiledTemplate := template.Must(template.New(loginTemplateName).Parse(loginTemplateHTML))
	return &AuthHandlers{
		validator:     validator,
		sessionStore:  sessionStore,
		views:         views,
		auditRecorder: auditRecorder,
		logger:        logger,
		loginTemplate: compiledTemplate,
		brandName:     brandName,
	}
}

type loginTemplateData struct {
	PageTitle    string
	BrandName    string
	ActionPath   string
	Username     string
	ErrorMessage string
}

// RenderLoginPage shows the login form. An already authenticated operator
// is sent straight to the dashboard.
func (handlers *AuthHandlers) RenderLoginPage(context *gin.Context) {
	if handlers.sessionStore.IsActive(context) {
		context.Redirect(http.StatusFound, DashboardPagePath)
		return
	}
	handlers.renderLogin(context, http.StatusOK, "", "")
}

// SubmitLogin validates the posted credentials. Failures re-render the form
// with the reason and the username retained; the password field is never
// echoed back.
func (handlers *AuthHandlers) SubmitLogin(context *gin.Context) {
	username := strings.TrimSpace(context.PostForm(formFieldUsername))
	password := context.PostForm(formFieldPassword)

	if username == "" || password == "" {
		handlers.renderLogin(context, http.StatusBadRequest, username, messageMissingFields)
		return
	}

	result := handlers.validator.Login(context.Request.Context(), username, password)
	handlers.logger.Info(logEventLoginAttempt,
		zap.String(logFieldUsername, username),
		zap.Bool(logFieldSuccess, result.Success),
	)

	if !result.Success {
		handlers.auditRecorder.Record(context.Request.Context(), audit.ActionLoginFailed, username)
		handlers.renderLogin(context, http.StatusUnauthorized, username, result.Message)
		return
	}

	if establishErr := handlers.sessionStore.Establish(context, result.Token); establishErr != nil {
		handlers.renderLogin(context, http.StatusInternalServerError, username, upstream.MessageUnexpectedError)
		return
	}
	handlers.auditRecorder.Record(context.Request.Context(), audit.ActionLoginSucceeded, username)
	context.Redirect(http.StatusFound, DashboardPagePath)
}

// Logout ends the session and drops its dashboard view.
func (handlers *AuthHandlers) Logout(context *gin.Context) {
	if viewID := handlers.sessionStore.ViewID(context); viewID != "" {
		handlers.views.Evict(viewID)
	}
	if clearErr := handlers.sessionStore.Clear(context); clearErr != nil {
		handlers.logger.Warn(logEventLogout, zap.Error(clearErr))
	}
	handlers.logger.Info(logEventLogout)
	handlers.auditRecorder.Record(context.Request.Context(), audit.ActionLogout, "")
	context.Redirect(http.StatusFound, LoginPagePath)
}

func (handlers *AuthHandlers) renderLogin(context *gin.Context, statusCode int, username string, errorMessage string) {
	data := loginTemplateData{
		PageTitle:    loginPageTitle,
		BrandName:    handlers.brandName,
		ActionPath:   LoginPagePath,
		Username:     username,
		ErrorMessage: errorMessage,
	}
	var rendered strings.Builder
	if renderErr := handlers.loginTemplate.Execute(&rendered, data); renderErr != nil {
		handlers.logger.Error(logEventRenderLogin, zap.Error(renderErr))
		context.String(http.StatusInternalServerError, upstream.MessageUnexpectedError)
		return
	}
	context.Data(statusCode, htmlContentType, []byte(rendered.String()))
}
