// Package models holds the server-side records persisted by the repositories.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a managed account. PasswordHash is a bcrypt hash and never leaves
// the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
