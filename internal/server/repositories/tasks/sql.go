// Package tasks provides the source-of-truth repository for tasks.
package tasks

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

const selectTask = `SELECT id, list_id, title, description, is_completed, due_date, created_at, updated_at FROM tasks`

type SQLRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var due sql.NullTime
	if err := s.Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.IsCompleted, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = dbx.TimestampPtr(&due.Time)
	}
	t.CreatedAt = dbx.Timestamp(t.CreatedAt)
	t.UpdatedAt = dbx.Timestamp(t.UpdatedAt)
	return t, nil
}

// GetAll returns the list's tasks oldest first.
func (r *SQLRepository) GetAll(ctx context.Context, listID string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTask+` WHERE list_id = $1 ORDER BY created_at, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, selectTask+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) Add(ctx context.Context, dto models.AddTaskDTO) (*models.Task, error) {
	now := dbx.Timestamp(r.now())
	t := &models.Task{
		ID:          uuid.NewString(),
		ListID:      dto.ListID,
		Title:       dto.Title,
		Description: dto.Description,
		DueDate:     dbx.TimestampPtr(dto.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query :=
		`INSERT INTO tasks (id, list_id, title, description, is_completed, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, t.ID, t.ListID, t.Title, t.Description, t.IsCompleted, nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

// Update rewrites the mutable fields; the owning list never changes.
func (r *SQLRepository) Update(ctx context.Context, dto models.UpdateTaskDTO) (*models.Task, error) {
	query :=
		`UPDATE tasks SET title = $2, description = $3, is_completed = $4, due_date = $5, updated_at = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, dto.ID, dto.Title, dto.Description, dto.IsCompleted, nullTime(dbx.TimestampPtr(dto.DueDate)), dbx.Timestamp(r.now()))
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

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
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

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
