package models

import "time"

type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

// User — организатор турниров. Игроки и капитаны аккаунтов не имеют.
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
