package models

import "time"

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	UserID                     string    `json:"userId"`
	AccessToken                string    `json:"accessToken"`
	AccessTokenExpirationDate  time.Time `json:"accessTokenExpirationDate"`
	RefreshToken               string    `json:"refreshToken"`
	RefreshTokenExpirationDate time.Time `json:"refreshTokenExpirationDate"`
}
