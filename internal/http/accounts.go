package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/models"
	"github.com/kjstillabower/bank-service/internal/validation"
)

type createAccountRequest struct {
	CustomerID     uuid.UUID       `json:"customerId"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type moneyRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	FromAccountID uuid.UUID       `json:"fromAccountId"`
	ToAccountID   uuid.UUID       `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// CreateAccount handles POST /accounts.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	accountType, err := models.ParseAccountType(req.Type)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.services.Accounts.CreateAccount(r.Context(), req.CustomerID, accountType, req.InitialBalance.Round(validation.MoneyScale))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, a.View())
}

// ListAccounts handles GET /accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, accountViews(h.directory.AllAccounts()))
}

// GetAccount handles GET /accounts/{id}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.directory.GetAccount(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, a.View())
}

// Deposit handles POST /accounts/{id}/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, h.services.Accounts.Deposit)
}

// Withdraw handles POST /accounts/{id}/withdraw.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, h.services.Accounts.Withdraw)
}

// Pay handles POST /accounts/{id}/payments.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	h.moveMoney(w, r, h.services.Payments.Pay)
}

// moneyOperation is the shape shared by deposit, withdraw and pay.
type moneyOperation func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error)

func (h *Handler) moveMoney(w http.ResponseWriter, r *http.Request, op moneyOperation) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req moneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := validation.NormalizeAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := op(r.Context(), id, amount, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

// Transfer handles POST /transfers.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := validation.NormalizeAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.services.Transfers.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}
