package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/bank-service/internal/lifecycle"
	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/observability"
	"github.com/kjstillabower/bank-service/internal/overload"
	"github.com/kjstillabower/bank-service/internal/service"
	"github.com/kjstillabower/bank-service/internal/traffic"
	"github.com/kjstillabower/bank-service/internal/validation"
)

// Directory is the read side of the bank plus customer registration.
// *repository.BankRepository satisfies it.
type Directory interface {
	AddCustomer(name, email string) (models.Customer, error)
	GetCustomer(id uuid.UUID) (models.Customer, error)
	AllCustomers() []models.Customer
	GetAccount(id uuid.UUID) (*models.Account, error)
	AllAccounts() []*models.Account
	AccountsByCustomer(customerID uuid.UUID) ([]*models.Account, error)
	RecentTransactions(n int) ([]models.Transaction, error)
	TransactionsSince(since time.Time) ([]models.Transaction, error)
	AllTransactions() []models.Transaction
	TransactionsByAccount(accountID uuid.UUID) ([]models.Transaction, error)
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// HealthConfig holds thresholds for the health handler. Version is reported
// as-is; empty reports "dev".
type HealthConfig struct {
	Version          string
	Overload         overload.Threshold
	DegradedWindow   time.Duration
	DegradedErrorPct int
	StartTime        time.Time
}

// ReportDefaults apply when GET /reports omits its query parameters.
type ReportDefaults struct {
	TopN     int
	Lookback time.Duration
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	directory        Directory
	services         service.Bank
	healthConfig     *HealthConfig
	reportDefaults   ReportDefaults
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(directory Directory, services service.Bank, healthConfig *HealthConfig, reportDefaults ReportDefaults, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		directory:      directory,
		services:       services,
		healthConfig:   healthConfig,
		reportDefaults: reportDefaults,
		logger:         logger,
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"ledger": "healthy"}
	if result.status == "degraded" {
		checks["ledger"] = "unhealthy"
	}
	version := "dev"
	if h.healthConfig != nil && h.healthConfig.Version != "" {
		version = h.healthConfig.Version
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "bank-service",
		"version":   version,
		"checks":    checks,
		"customers": len(h.directory.AllCustomers()),
		"accounts":  len(h.directory.AllAccounts()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime"] = time.Since(h.healthConfig.StartTime).Round(time.Second).String()
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in order: shutting-down > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		why, _ := lifecycle.ShutdownReason()
		return healthResult{"shutting-down", http.StatusServiceUnavailable, why}
	}
	if h.healthConfig != nil && h.healthConfig.Overload.Exceeded() {
		return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errs) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationIDFromContext(r.Context()),
		},
	})
}

// errorMapping pairs a domain error with its HTTP status and error code.
type errorMapping struct {
	target error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{models.ErrCustomerNotFound, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
	{models.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
	{models.ErrInsufficientFunds, http.StatusConflict, "INSUFFICIENT_FUNDS"},
	{models.ErrSameAccount, http.StatusBadRequest, "SAME_ACCOUNT"},
	{models.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{models.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
}

// writeServiceError maps err to a response and records the request outcome.
// Business rejections are reported with their message; anything else is an
// error on our side and is logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context())
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			traffic.Record(traffic.Rejected)
			logger.Debug("request rejected", zap.String("code", m.code), zap.Error(err))
			writeError(w, r, m.status, m.code, err.Error())
			return
		}
	}
	traffic.Record(traffic.Error)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Warn("request timed out", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "TIMEOUT", "Request timed out")
		return
	}
	logger.Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
}

// writeSuccess records a served request and writes v.
func writeSuccess(w http.ResponseWriter, status int, v interface{}) {
	traffic.Record(traffic.Success)
	writeJSON(w, status, v)
}

// decodeBody decodes the JSON request body into v, writing a 400 on failure
// and a 413 when the body exceeds maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		traffic.Record(traffic.Rejected)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
			return false
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {name} path variable as a UUID, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := validation.ParseAccountID(mux.Vars(r)[name])
	if err != nil {
		traffic.Record(traffic.Rejected)
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func accountViews(accounts []*models.Account) []models.AccountView {
	out := make([]models.AccountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.View())
	}
	return out
}
