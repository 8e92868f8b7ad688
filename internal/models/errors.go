package models

import "errors"

// Domain errors. Transport layers map these to status codes with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
)
