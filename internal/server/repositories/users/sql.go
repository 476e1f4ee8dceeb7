// Package users provides the source-of-truth repository for accounts.
package users

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

const selectUser = `SELECT id, email, username, password_hash, created_at FROM users`

// SQLRepository implements Repository over dbx.DBTX. The SQL is shared by
// the PostgreSQL and SQLite dialects.
type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

// Add inserts a user. Duplicate email or username yields common.ErrorAlreadyExists.
func (r *SQLRepository) Add(ctx context.Context, dto models.AddUserDTO) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        dto.Email,
		UserName:     dto.UserName,
		PasswordHash: dto.PasswordHash,
		CreatedAt:    dbx.Timestamp(r.now()),
	}

	query :=
		`INSERT INTO users (id, email, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.UserName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *SQLRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, userName)
}

// Update changes email and username; the password hash is untouched.
func (r *SQLRepository) Update(ctx context.Context, dto models.UpdateUserDTO) (*models.User, error) {
	query :=
		`UPDATE users SET email = $2, username = $3
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, dto.ID, dto.Email, dto.UserName)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, dto.ID)
}

// Delete removes the user; lists, tasks and the refresh token cascade.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.UserName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = dbx.Timestamp(user.CreatedAt)
	return user, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
