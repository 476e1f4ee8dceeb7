package auth

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       "super-secret-key-for-tests",
		Issuer:          "todolist",
		Audience:        "todolist-client",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{ID: "u-1", Email: "alice@example.com", UserName: "alice"}
}

func newService(t *testing.T, cfg JWTConfig, clock *fakeClock) *TokenService {
	t.Helper()
	s, err := NewTokenService(cfg, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestNewTokenService_MissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.SecretKey = ""

	s, err := NewTokenService(cfg)
	require.ErrorIs(t, err, common.ErrMissingSecretKey)
	assert.Nil(t, s)
}

func TestGenerateAccessToken_Claims(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := newService(t, testConfig(), clock)

	tok, exp, err := s.GenerateAccessToken(testUser())
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), exp)

	claims, err := s.ValidateAccessToken(tok)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.ID)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.GivenName)
	assert.Equal(t, common.UserRole, claims.Role)
	assert.Equal(t, "todolist", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"todolist-client"}, claims.Audience)
	assert.Equal(t, clock.t.Unix(), claims.NotBefore.Unix())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "HS512", parsed.Method.Alg())
}

func TestGenerateAccessToken_InvalidUser(t *testing.T) {
	s := newService(t, testConfig(), &fakeClock{t: time.Now()})

	tests := []struct {
		name string
		user *models.User
	}{
		{name: "nil user", user: nil},
		{name: "missing email", user: &models.User{ID: "u", UserName: "bob"}},
		{name: "missing username", user: &models.User{ID: "u", Email: "bob@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.GenerateAccessToken(tt.user)
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestTokenExpiry_ExpiredPrincipalStillReadable(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = time.Second
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := newService(t, cfg, clock)

	tok, _, err := s.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = s.ValidateAccessToken(tok)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	_, err = s.ValidateAccessToken(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)

	claims, err := s.GetPrincipalFromExpiredToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "alice", claims.GivenName)
}

func TestValidation_Rejections(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	cfg := testConfig()
	s := newService(t, cfg, clock)

	otherKey := cfg
	otherKey.SecretKey = "another-secret"
	otherIssuer := cfg
	otherIssuer.Issuer = "someone-else"
	otherAudience := cfg
	otherAudience.Audience = "another-client"

	tests := []struct {
		name   string
		signer JWTConfig
	}{
		{name: "wrong secret", signer: otherKey},
		{name: "wrong issuer", signer: otherIssuer},
		{name: "wrong audience", signer: otherAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, _, err := newService(t, tt.signer, clock).GenerateAccessToken(testUser())
			require.NoError(t, err)

			_, err = s.ValidateAccessToken(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)

			_, err = s.GetPrincipalFromExpiredToken(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestValidation_RejectsOtherAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	cfg := testConfig()
	s := newService(t, cfg, clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "u-1",
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	_, err = s.ValidateAccessToken(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.GetPrincipalFromExpiredToken(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidation_Garbage(t *testing.T) {
	s := newService(t, testConfig(), &fakeClock{t: time.Now()})

	_, err := s.ValidateAccessToken("not-a-jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.GetPrincipalFromExpiredToken("not-a-jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGenerateRefreshToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := newService(t, testConfig(), clock)

	v1, exp, err := s.GenerateRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), exp)

	raw, err := base64.StdEncoding.DecodeString(v1)
	require.NoError(t, err)
	assert.Len(t, raw, common.RefreshTokenSize)

	v2, _, err := s.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestGenerateRefreshToken_RandomFailure(t *testing.T) {
	s := newService(t, testConfig(), &fakeClock{t: time.Now()})
	s.randF = func(int) (string, error) { return "", errors.New("entropy exhausted") }

	_, _, err := s.GenerateRefreshToken()
	require.Error(t, err)
}
