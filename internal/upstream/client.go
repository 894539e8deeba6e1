// Package upstream drives the external Atorix backend API. Every operation
// returns a result shape instead of an error: transport failures are folded
// into {success: false, message/error} so callers surface them as operator
// messages rather than wrapping each call in error handling.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/model"
)

const (
	loginRoutePath       = "/api/admin/login"
	submissionsRoutePath = "/api/submissions"
	bulkDeleteRoutePath  = "/api/submissions/bulk-delete"
	pingRoutePath        = "/api/ping"

	contentTypeHeaderName = "Content-Type"
	contentTypeJSON       = "application/json"

	// MessageUnexpectedError is shown whenever the backend cannot be reached.
	MessageUnexpectedError = "An unexpected error occurred. Please try again."
	// MessageInvalidCredentials is the fallback when the backend rejects a
	// login without providing its own message.
	MessageInvalidCredentials = "Invalid username or password"

	messageFetchFailed       = "Failed to fetch form submissions"
	messageDeleteFailed      = "Failed to delete submission"
	messageBulkDeleteFailed  = "Failed to delete submissions"
	messageDeleteSucceeded   = "Submission deleted successfully"
	messageBulkDeletePattern = "%d submissions deleted successfully"

	defaultRequestTimeout = 30 * time.Second
	pingTimeout           = 5 * time.Second

	logEventLoginRequest      = "upstream_login_failed"
	logEventFetchRequest      = "upstream_fetch_failed"
	logEventDeleteRequest     = "upstream_delete_failed"
	logEventBulkDeleteRequest = "upstream_bulk_delete_failed"
	logEventPingRequest       = "upstream_ping_failed"
	logFieldSubmissionID      = "submission_id"
	logFieldSubmissionCount   = "submission_count"

	errorMessageMissingBaseURL = "upstream: missing base URL"
	errorMessageBuildRequest   = "upstream: build request"
)

// Client talks to the external backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	submitRetryLimit  int
	submitTimeout     time.Duration
	submitBackoffBase time.Duration
}

// NewClient creates a Client for the given backend base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:           strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:        &http.Client{Timeout: defaultRequestTimeout},
		logger:            logger,
		submitRetryLimit:  defaultSubmitRetryLimit,
		submitTimeout:     defaultSubmitTimeout,
		submitBackoffBase: defaultSubmitBackoffBase,
	}
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func (client *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		client.httpClient = httpClient
	}
	return client
}

// LoginResult reports a credential validation attempt.
type LoginResult struct {
	Success bool
	Token   string
	Message string
}

// FetchResult reports a submissions fetch. Data is empty, never nil, on failure.
type FetchResult struct {
	Success     bool
	Submissions []model.Submission
	Error       string
}

// MutationResult reports a delete operation.
type MutationResult struct {
	Success bool
	Message string
	Error   string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

type serverErrorResponse struct {
	Message string `json:"message"`
}

type fetchSubmissionsResponse struct {
	Submissions json.RawMessage `json:"submissions"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Login validates a username/password pair against the backend. It performs a
// single network call with no retry; persisting the returned token is the
// login flow's responsibility, not this function's.
func (client *Client) Login(requestContext context.Context, username string, password string) LoginResult {
	requestBody, marshalErr := json.Marshal(loginRequest{Username: username, Password: password})
	if marshalErr != nil {
		return LoginResult{Success: false, Message: MessageUnexpectedError}
	}

	responseBody, _, requestErr := client.doJSON(requestContext, http.MethodPost, loginRoutePath, requestBody)
	if requestErr != nil {
		client.logger.Warn(logEventLoginRequest, zap.Error(requestErr))
		return LoginResult{Success: false, Message: MessageUnexpectedError}
	}

	var parsedResponse loginResponse
	if unmarshalErr := json.Unmarshal(responseBody, &parsedResponse); unmarshalErr != nil {
		client.logger.Warn(logEventLoginRequest, zap.Error(unmarshalErr))
		return LoginResult{Success: false, Message: MessageUnexpectedError}
	}

	if !parsedResponse.Success || strings.TrimSpace(parsedResponse.Token) == "" {
		message := strings.TrimSpace(parsedResponse.Message)
		if message == "" {
			message = MessageInvalidCredentials
		}
		return LoginResult{Success: false, Message: message}
	}

	return LoginResult{Success: true, Token: parsedResponse.Token}
}

// FetchSubmissions retrieves the full submissions list. On any failure the
// result carries a human-readable error and an empty list.
func (client *Client) FetchSubmissions(requestContext context.Context) FetchResult {
	responseBody, statusCode, requestErr := client.doJSON(requestContext, http.MethodGet, submissionsRoutePath, nil)
	if requestErr != nil {
		client.logger.Warn(logEventFetchRequest, zap.Error(requestErr))
		return FetchResult{Success: false, Submissions: []model.Submission{}, Error: MessageUnexpectedError}
	}

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return FetchResult{Success: false, Submissions: []model.Submission{}, Error: serverMessageOrDefault(responseBody, messageFetchFailed)}
	}

	var parsedResponse fetchSubmissionsResponse
	if unmarshalErr := json.Unmarshal(responseBody, &parsedResponse); unmarshalErr != nil {
		client.logger.Warn(logEventFetchRequest, zap.Error(unmarshalErr))
		return FetchResult{Success: false, Submissions: []model.Submission{}, Error: messageFetchFailed}
	}

	if len(parsedResponse.Submissions) == 0 {
		return FetchResult{Success: true, Submissions: []model.Submission{}}
	}

	submissions, decodeErr := model.DecodeSubmissions(parsedResponse.Submissions)
	if decodeErr != nil {
		client.logger.Warn(logEventFetchRequest, zap.Error(decodeErr))
		return FetchResult{Success: false, Submissions: []model.Submission{}, Error: messageFetchFailed}
	}

	return FetchResult{Success: true, Submissions: submissions}
}

// DeleteSubmission deletes one submission. Deleting an already-deleted id is a
// server-reported failure and is surfaced verbatim.
func (client *Client) DeleteSubmission(requestContext context.Context, submissionID string) MutationResult {
	routePath := submissionsRoutePath + "/" + submissionID

	responseBody, statusCode, requestErr := client.doJSON(requestContext, http.MethodDelete, routePath, nil)
	if requestErr != nil {
		client.logger.Warn(logEventDeleteRequest, zap.String(logFieldSubmissionID, submissionID), zap.Error(requestErr))
		return MutationResult{Success: false, Error: MessageUnexpectedError}
	}

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return MutationResult{Success: false, Error: serverMessageOrDefault(responseBody, messageDeleteFailed)}
	}

	return MutationResult{Success: true, Message: messageDeleteSucceeded}
}

// DeleteSubmissions deletes several submissions in one call. Callers reject
// empty id sets before reaching this function; it does not re-validate.
func (client *Client) DeleteSubmissions(requestContext context.Context, submissionIDs []string) MutationResult {
	requestBody, marshalErr := json.Marshal(bulkDeleteRequest{IDs: submissionIDs})
	if marshalErr != nil {
		return MutationResult{Success: false, Error: MessageUnexpectedError}
	}

	responseBody, statusCode, requestErr := client.doJSON(requestContext, http.MethodPost, bulkDeleteRoutePath, requestBody)
	if requestErr != nil {
		client.logger.Warn(logEventBulkDeleteRequest, zap.Int(logFieldSubmissionCount, len(submissionIDs)), zap.Error(requestErr))
		return MutationResult{Success: false, Error: MessageUnexpectedError}
	}

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return MutationResult{Success: false, Error: serverMessageOrDefault(responseBody, messageBulkDeleteFailed)}
	}

	return MutationResult{Success: true, Message: fmt.Sprintf(messageBulkDeletePattern, len(submissionIDs))}
}

// Ping fires one best-effort request to wake the backend from cold sleep. The
// outcome is logged and otherwise ignored.
func (client *Client) Ping(requestContext context.Context) {
	pingContext, cancelPing := context.WithTimeout(requestContext, pingTimeout)
	defer cancelPing()

	request, buildErr := http.NewRequestWithContext(pingContext, http.MethodGet, client.baseURL+pingRoutePath, nil)
	if buildErr != nil {
		client.logger.Debug(logEventPingRequest, zap.Error(buildErr))
		return
	}

	response, requestErr := client.httpClient.Do(request)
	if requestErr != nil {
		client.logger.Debug(logEventPingRequest, zap.Error(requestErr))
		return
	}
	_ = response.Body.Close()
}

func (client *Client) doJSON(requestContext context.Context, method string, routePath string, requestBody []byte) ([]byte, int, error) {
	if client.baseURL == "" {
		return nil, 0, fmt.Errorf("%s", errorMessageMissingBaseURL)
	}
	if requestContext == nil {
		requestContext = context.Background()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		bodyReader = bytes.NewReader(requestBody)
	}

	request, buildErr := http.NewRequestWithContext(requestContext, method, client.baseURL+routePath, bodyReader)
	if buildErr != nil {
		return nil, 0, fmt.Errorf("%s: %w", errorMessageBuildRequest, buildErr)
	}
	request.Header.Set(contentTypeHeaderName, contentTypeJSON)

	response, requestErr := client.httpClient.Do(request)
	if requestErr != nil {
		return nil, 0, requestErr
	}
	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return nil, response.StatusCode, readErr
	}

	return responseBody, response.StatusCode, nil
}

func serverMessageOrDefault(responseBody []byte, defaultMessage string) string {
	var parsedError serverErrorResponse
	if unmarshalErr := json.Unmarshal(responseBody, &parsedError); unmarshalErr == nil {
		if trimmedMessage := strings.TrimSpace(parsedError.Message); trimmedMessage != "" {
			return trimmedMessage
		}
	}
	return defaultMessage
}
