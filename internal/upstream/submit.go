package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/model"
)

const (
	submitRoutePath = "/api/submit"

	defaultSubmitRetryLimit  = 2
	defaultSubmitTimeout     = 8 * time.Second
	defaultSubmitBackoffBase = time.Second

	messageSubmitFailed = "An error occurred while submitting the form"

	logEventSubmitAttemptFailed = "upstream_submit_attempt_failed"
	logFieldAttempt             = "attempt"
	logFieldError               = "error"
)

// SubmitResult reports a lead relay attempt.
type SubmitResult struct {
	Success bool
	Error   string
}

// WithSubmitRetryPolicy overrides the relay's retry policy, primarily for tests.
func (client *Client) WithSubmitRetryPolicy(retryLimit int, attemptTimeout time.Duration, backoffBase time.Duration) *Client {
	if retryLimit >= 0 {
		client.submitRetryLimit = retryLimit
	}
	if attemptTimeout > 0 {
		client.submitTimeout = attemptTimeout
	}
	if backoffBase > 0 {
		client.submitBackoffBase = backoffBase
	}
	return client
}

// SubmitLead forwards a normalized lead form to the backend. Unlike the admin
// operations, this path tolerates backend cold starts: each attempt carries its
// own timeout, and failed attempts are retried with exponential backoff
// (backoffBase, 2*backoffBase, ...) up to the retry limit.
func (client *Client) SubmitLead(requestContext context.Context, leadForm model.LeadForm) SubmitResult {
	requestBody, marshalErr := json.Marshal(leadForm)
	if marshalErr != nil {
		return SubmitResult{Success: false, Error: MessageUnexpectedError}
	}
	if requestContext == nil {
		requestContext = context.Background()
	}

	lastError := ""
	for attempt := 1; attempt <= client.submitRetryLimit+1; attempt++ {
		attemptError := client.submitOnce(requestContext, requestBody)
		if attemptError == "" {
			return SubmitResult{Success: true}
		}
		lastError = attemptError
		client.logger.Warn(logEventSubmitAttemptFailed, zap.Int(logFieldAttempt, attempt), zap.String(logFieldError, attemptError))

		if attempt > client.submitRetryLimit {
			break
		}
		backoff := client.submitBackoffBase * time.Duration(1<<(attempt-1))
		select {
		case <-requestContext.Done():
			return SubmitResult{Success: false, Error: MessageUnexpectedError}
		case <-time.After(backoff):
		}
	}

	if lastError == "" {
		lastError = MessageUnexpectedError
	}
	return SubmitResult{Success: false, Error: lastError}
}

func (client *Client) submitOnce(requestContext context.Context, requestBody []byte) string {
	attemptContext, cancelAttempt := context.WithTimeout(requestContext, client.submitTimeout)
	defer cancelAttempt()

	request, buildErr := http.NewRequestWithContext(attemptContext, http.MethodPost, client.baseURL+submitRoutePath, bytes.NewReader(requestBody))
	if buildErr != nil {
		return MessageUnexpectedError
	}
	request.Header.Set(contentTypeHeaderName, contentTypeJSON)

	response, requestErr := client.httpClient.Do(request)
	if requestErr != nil {
		return MessageUnexpectedError
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices {
		return ""
	}

	var parsedError serverErrorResponse
	if decodeErr := json.NewDecoder(response.Body).Decode(&parsedError); decodeErr == nil {
		if trimmedMessage := strings.TrimSpace(parsedError.Message); trimmedMessage != "" {
			return trimmedMessage
		}
	}
	return messageSubmitFailed
}
