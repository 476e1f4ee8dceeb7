// Package refreshtokens provides the SQL-backed refresh token store used by
// the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Upsert relies on the UNIQUE(user_id) constraint: a second token for the
// same user overwrites the first in place.
func (r *SQLRepository) Upsert(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET token = excluded.token, expires_at = excluded.expires_at, created_at = excluded.created_at
	`
	token.ExpiresAt = dbx.Timestamp(token.ExpiresAt)
	token.CreatedAt = dbx.Timestamp(token.CreatedAt)

	_, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, token.Token, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByToken returns the row for token or common.ErrorNotFound.
func (r *SQLRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.ExpiresAt = dbx.Timestamp(t.ExpiresAt)
	t.CreatedAt = dbx.Timestamp(t.CreatedAt)
	return t, nil
}

// Rotate is a compare-and-swap on the token value, so two concurrent
// refreshes with the same token cannot both succeed.
func (r *SQLRepository) Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET token = $2, expires_at = $3
		WHERE token = $1 AND expires_at > $4
	`
	res, err := r.db.ExecContext(ctx, query, oldToken, newToken, dbx.Timestamp(expiresAt), dbx.Timestamp(now))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteByUser removes the user's token if any. Missing rows are not an error.
func (r *SQLRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByToken removes a refresh token by its value.
func (r *SQLRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry is at or before now and reports
// how many were removed.
func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, dbx.Timestamp(now))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
