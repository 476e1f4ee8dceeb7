// Package models defines server-side aggregates persisted in the database
// and the DTOs used to create and update them.
package models

import "time"

// User is an account. PasswordHash never leaves the server: it is excluded
// from JSON so neither HTTP responses nor cache payloads carry it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	UserName     string    `json:"userName"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AddUserDTO struct {
	Email        string
	UserName     string
	PasswordHash []byte
}

type UpdateUserDTO struct {
	ID       string
	Email    string
	UserName string
}
