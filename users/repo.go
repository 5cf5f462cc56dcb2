package users

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type Repo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
}
