package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FullName returns the display name shown on listing views.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
