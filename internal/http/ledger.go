package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kjstillabower/bank-service/internal/models"
)

// ListAccountTransactions handles GET /accounts/{id}/transactions.
func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.directory.GetAccount(id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	txs, err := h.directory.TransactionsByAccount(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(txs))
}

// ListTransactions handles GET /transactions. ?limit=N returns the N newest,
// ?since=RFC3339 those strictly after a time; otherwise the whole ledger.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, since := q.Get("limit"), q.Get("since")
	var (
		txs []models.Transaction
		err error
	)
	switch {
	case limit != "" && since != "":
		writeQueryError(w, r, "limit and since are mutually exclusive")
		return
	case limit != "":
		n, convErr := strconv.Atoi(limit)
		if convErr != nil {
			writeQueryError(w, r, "limit must be an integer")
			return
		}
		txs, err = h.directory.RecentTransactions(n)
	case since != "":
		t, parseErr := time.Parse(time.RFC3339, since)
		if parseErr != nil {
			writeQueryError(w, r, "since must be an RFC3339 time")
			return
		}
		txs, err = h.directory.TransactionsSince(t)
	default:
		txs = h.directory.AllTransactions()
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(txs))
}

// GetReport handles GET /reports?top=N&lookback=DURATION.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topN, lookback := h.reportDefaults.TopN, h.reportDefaults.Lookback
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeQueryError(w, r, "top must be an integer")
			return
		}
		topN = n
	}
	if v := q.Get("lookback"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeQueryError(w, r, "lookback must be a duration such as 24h")
			return
		}
		lookback = d
	}
	report, err := h.services.Reports.GenerateBankReport(r.Context(), topN, lookback)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

func writeQueryError(w http.ResponseWriter, r *http.Request, message string) {
	writeServiceError(w, r, fmt.Errorf("%w: %s", models.ErrInvalidInput, message))
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil(txs []models.Transaction) []models.Transaction {
	if txs == nil {
		return []models.Transaction{}
	}
	return txs
}
