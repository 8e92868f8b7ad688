package http

import (
	"net/http"

	"github.com/kjstillabower/bank-service/internal/validation"
)

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateCustomer handles POST /customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name, err := validation.ValidateName(req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	email, err := validation.ValidateEmail(req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.directory.AddCustomer(name, email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, c)
}

// ListCustomers handles GET /customers.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.directory.AllCustomers())
}

// GetCustomer handles GET /customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.directory.GetCustomer(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

// ListCustomerAccounts handles GET /customers/{id}/accounts.
func (h *Handler) ListCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.directory.GetCustomer(id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	accounts, err := h.directory.AccountsByCustomer(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, accountViews(accounts))
}
