// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login, and issuing, refreshing and
// revoking JWTs plus the server-stored refresh token of each user.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email,max=254"`
	UserName string `json:"userName" binding:"required" validate:"required,min=3,max=64"`
	Password string `json:"password" binding:"required" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// RefreshRequest carries the refresh token and, optionally, the expired
// access token it is paired with.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken" binding:"required" validate:"required"`
}

// AuthService provides authentication-related operations:
//   - Register / Login: create or verify accounts and mint tokens
//   - Refresh: exchange a refresh token exactly once for a new pair
//   - Logout: revoke the user's refresh token
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	validate    *validator.Validate
	log         logging.Logger
	now         func() time.Time
	hashCost    int
}

type AuthOption func(*AuthService)

// WithAuthClock overrides the clock used for refresh-token expiry checks.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, log logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		validate:    validator.New(),
		log:         log.With("module", "auth"),
		now:         time.Now,
		hashCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the account and issues its first token pair in one
// transaction. A taken email or username yields common.ErrorAlreadyExists.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var resp *models.AuthResponse
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Add(ctx, models.AddUserDTO{
			Email:        req.Email,
			UserName:     req.UserName,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		resp, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", resp.UserID)
	return resp, nil
}

// Login verifies credentials. Unknown email and wrong password both return
// common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.Issue(ctx, user)
}

// Issue mints an access token and a refresh token for user, replacing any
// refresh token the user held before.
func (s *AuthService) Issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	return s.issue(ctx, s.db, user)
}

func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, user *models.User) (*models.AuthResponse, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	row := &models.RefreshToken{UserID: user.ID, Token: refresh, ExpiresAt: refreshExp}
	if err := s.repomanager.RefreshTokens(db).Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &models.AuthResponse{
		UserID:                     user.ID,
		AccessToken:                access,
		AccessTokenExpirationDate:  accessExp,
		RefreshToken:               refresh,
		RefreshTokenExpirationDate: row.ExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The stored token is
// swapped atomically, so a given refresh token succeeds at most once.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*models.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	repo := s.repomanager.RefreshTokens(s.db)
	now := s.now().UTC()

	stored, err := repo.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if stored.Expired(now) {
		if err := repo.DeleteByToken(ctx, stored.Token); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "failed to delete expired refresh token", "user_id", stored.UserID, "error", err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	if req.AccessToken != "" {
		claims, err := s.tokens.GetPrincipalFromExpiredToken(req.AccessToken)
		if err != nil {
			return nil, common.ErrorUnauthorized
		}
		if claims.UserID() != stored.UserID {
			s.log.Warn(ctx, "refresh token presented with another user's access token", "user_id", stored.UserID)
			return nil, common.ErrorUnauthorized
		}
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	access, accessExp, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := repo.Rotate(ctx, stored.Token, refresh, refreshExp, now); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// lost the race with a concurrent refresh or logout
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	return &models.AuthResponse{
		UserID:                     user.ID,
		AccessToken:                access,
		AccessTokenExpirationDate:  accessExp,
		RefreshToken:               refresh,
		RefreshTokenExpirationDate: dbx.Timestamp(refreshExp),
	}, nil
}

// Logout revokes the refresh token of the named user. Unknown users and
// users without a token are not an error.
func (s *AuthService) Logout(ctx context.Context, userName string) error {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	return s.LogoutUser(ctx, user.ID)
}

// LogoutUser revokes the refresh token of the user with the given id.
func (s *AuthService) LogoutUser(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// PurgeExpired removes refresh tokens whose lifetime has passed.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	return n, nil
}
