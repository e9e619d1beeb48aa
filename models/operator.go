package models

import "time"

// OperatorRole controls which scoring/admin routes an operator may call.
type OperatorRole string

const (
	RoleOrganizer OperatorRole = "organizer"
	RoleReferee   OperatorRole = "referee"
)

// Operator is a scoring-client account (one per referee station, typically).
type Operator struct {
	ID           int          `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	DisplayName  string       `json:"display_name" db:"display_name"`
	Role         OperatorRole `json:"role" db:"role"`
	PasswordHash string       `json:"-" db:"password_hash"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
