// Package auth issues and validates the server's JWT access tokens and
// generates opaque refresh token values.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig is built once at startup and handed to NewTokenService.
type JWTConfig struct {
	SecretKey       string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Claims is the access token payload. RegisteredClaims.ID (jti) carries
// the user id.
type Claims struct {
	Email     string `json:"email"`
	GivenName string `json:"given_name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the principal's user id.
func (c *Claims) UserID() string {
	return c.ID
}

type TokenService struct {
	cfg   JWTConfig
	key   []byte
	now   func() time.Time
	randF func(size int) (string, error)
}

type Option func(*TokenService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService returns common.ErrMissingSecretKey when no signing key is configured.
func NewTokenService(cfg JWTConfig, opts ...Option) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, common.ErrMissingSecretKey
	}

	s := &TokenService{
		cfg:   cfg,
		key:   []byte(cfg.SecretKey),
		now:   time.Now,
		randF: common.MakeRandBase64String,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// GenerateAccessToken signs an HS512 token for user and returns it with its expiry.
func (s *TokenService) GenerateAccessToken(user *models.User) (string, time.Time, error) {
	if user == nil || user.Email == "" || user.UserName == "" {
		return "", time.Time{}, fmt.Errorf("%w: user email and username are required", common.ErrorValidation)
	}

	now := s.now()
	expires := now.Add(s.cfg.AccessTokenTTL)

	claims := Claims{
		Email:     user.Email,
		GivenName: user.UserName,
		Role:      common.UserRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        user.ID,
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expires, nil
}

// GenerateRefreshToken returns a random base64 value and its expiry. It
// does not persist anything.
func (s *TokenService) GenerateRefreshToken() (string, time.Time, error) {
	value, err := s.randF(common.RefreshTokenSize)
	if err != nil {
		return "", time.Time{}, err
	}
	return value, s.now().Add(s.cfg.RefreshTokenTTL), nil
}

// ValidateAccessToken performs full validation: signature, algorithm,
// issuer, audience and lifetime.
func (s *TokenService) ValidateAccessToken(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	return claims, nil
}

// GetPrincipalFromExpiredToken validates signature, algorithm, issuer and
// audience but not lifetime. It is only meant for the refresh exchange.
func (s *TokenService) GetPrincipalFromExpiredToken(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", common.ErrInvalidToken)
	}
	if !slices.Contains(claims.Audience, s.cfg.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", common.ErrInvalidToken)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}

	return claims, nil
}

func (s *TokenService) keyFunc(*jwt.Token) (any, error) {
	return s.key, nil
}
