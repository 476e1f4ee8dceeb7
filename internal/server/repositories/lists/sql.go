// Package lists provides the source-of-truth repository for todo lists.
package lists

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

const selectList = `SELECT id, user_id, title, description, created_at, updated_at FROM todo_lists`

type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

// GetAll returns the user's lists oldest first. An unknown user yields an
// empty slice.
func (r *SQLRepository) GetAll(ctx context.Context, userID string) ([]*models.TodoList, error) {
	rows, err := r.db.QueryContext(ctx, selectList+` WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.TodoList, 0)
	for rows.Next() {
		l := &models.TodoList{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		normalizeList(l)
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.TodoList, error) {
	l := &models.TodoList{}
	err := r.db.QueryRowContext(ctx, selectList+` WHERE id = $1`, id).
		Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	normalizeList(l)
	return l, nil
}

func normalizeList(l *models.TodoList) {
	l.CreatedAt = dbx.Timestamp(l.CreatedAt)
	l.UpdatedAt = dbx.Timestamp(l.UpdatedAt)
}

func (r *SQLRepository) Add(ctx context.Context, dto models.AddListDTO) (*models.TodoList, error) {
	now := dbx.Timestamp(r.now())
	l := &models.TodoList{
		ID:          uuid.NewString(),
		UserID:      dto.UserID,
		Title:       dto.Title,
		Description: dto.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query :=
		`INSERT INTO todo_lists (id, user_id, title, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, l.ID, l.UserID, l.Title, l.Description, l.CreatedAt, l.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return l, nil
}

// Update changes title and description; the owner is immutable.
func (r *SQLRepository) Update(ctx context.Context, dto models.UpdateListDTO) (*models.TodoList, error) {
	query :=
		`UPDATE todo_lists SET title = $2, description = $3, updated_at = $4
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, dto.ID, dto.Title, dto.Description, dbx.Timestamp(r.now()))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	return r.GetByID(ctx, dto.ID)
}

// Delete removes the list; its tasks cascade.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo_lists WHERE id = $1`, id)
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
