package models

import "github.com/google/uuid"

// Customer owns zero or more accounts. Immutable once created.
type Customer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
