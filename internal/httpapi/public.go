package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/model"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	errorValueMissingLeadFields = "missing_fields"
	errorValueRateLimited       = "rate_limited"

	jsonKeySuccess = "success"
	jsonKeyStatus  = "status"
	statusValueOK  = "ok"

	logEventLeadRelay = "lead_relay"
	logFieldLeadEmail = "email"
)

// LeadRelay forwards a normalized lead form to the backend.
type LeadRelay interface {
	SubmitLead(requestContext context.Context, leadForm model.LeadForm) upstream.SubmitResult
}

// PublicHandlers serves the unauthenticated surface: the lead-capture relay
// and the health check.
type PublicHandlers struct {
	relay                     LeadRelay
	logger                    *zap.Logger
	rateWindow                time.Duration
	maxRequestsPerIPPerWindow int
	rateWindowBucket          int64
	rateCountersByIP          map[string]int
	rateCountersMutex         sync.Mutex
}

func NewPublicHandlers(relay LeadRelay, logger *zap.Logger) *PublicHandlers {
	return &PublicHandlers{
		relay:                     relay,
		logger:                    logger,
		rateWindow:                30 * time.Second,
		maxRequestsPerIPPerWindow: 6,
		rateCountersByIP:          make(map[string]int),
	}
}

// SubmitLead accepts a marketing-site form post, normalizes the legacy
// field aliases, and relays it to the backend.
func (handlers *PublicHandlers) SubmitLead(context *gin.Context) {
	clientIP := context.ClientIP()
	if handlers.isRateLimited(clientIP) {
		context.JSON(http.StatusTooManyRequests, gin.H{jsonKeyError: errorValueRateLimited})
		return
	}

	var rawForm model.RawLeadForm
	if bindErr := context.ShouldBindJSON(&rawForm); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	leadForm := rawForm.Normalize()
	if !leadForm.HasRequiredFields() {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingLeadFields})
		return
	}

	result := handlers.relay.SubmitLead(context.Request.Context(), leadForm)
	handlers.logger.Info(logEventLeadRelay,
		zap.String(logFieldLeadEmail, leadForm.Email),
		zap.Bool(logFieldSuccess, result.Success),
	)
	if !result.Success {
		context.JSON(http.StatusBadGateway, gin.H{jsonKeyError: result.Error})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeySuccess: true})
}

// HealthCheck reports liveness for the console process itself, not the
// backend it proxies.
func (handlers *PublicHandlers) HealthCheck(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{jsonKeyStatus: statusValueOK})
}

// isRateLimited counts requests per client IP inside the current time
// window. Counters from earlier windows are dropped when the window rolls
// over, so the map never holds more than one window's worth of addresses.
func (handlers *PublicHandlers) isRateLimited(clientIP string) bool {
	nowBucket := time.Now().Unix() / int64(handlers.rateWindow.Seconds())

	handlers.rateCountersMutex.Lock()
	defer handlers.rateCountersMutex.Unlock()

	if nowBucket != handlers.rateWindowBucket {
		handlers.rateWindowBucket = nowBucket
		handlers.rateCountersByIP = make(map[string]int)
	}

	handlers.rateCountersByIP[clientIP]++
	return handlers.rateCountersByIP[clientIP] > handlers.maxRequestsPerIPPerWindow
}
