package tasks

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	GetAll(ctx context.Context, listID string) ([]*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Add(ctx context.Context, dto models.AddTaskDTO) (*models.Task, error)
	Update(ctx context.Context, dto models.UpdateTaskDTO) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}
