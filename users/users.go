// Package users holds the credential records the local token service
// authenticates against.
package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role names embedded as token claims.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the user
	Email        string    `json:"email,omitempty"` // User's email address
	Name         string    `json:"name,omitempty"`  // Display name
	PasswordHash string    `json:"-"`               // Hashed password - never serialize
	Roles        []string  `json:"roles,omitempty"` // Role names granted to the user
	DateJoined   time.Time `json:"date_joined,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
