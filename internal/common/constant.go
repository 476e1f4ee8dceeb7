// Package common contains shared constants, sentinel errors and small helpers
// used across the todolist server.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on inbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the authorization scheme expected in AuthorizationHeaderName.
	BearerScheme = "Bearer"

	// UserRole is the only role issued to accounts.
	UserRole = "User"

	// RefreshTokenSize is the number of random bytes behind a refresh token.
	RefreshTokenSize = 64
)
