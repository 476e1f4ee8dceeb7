package lists

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	GetAll(ctx context.Context, userID string) ([]*models.TodoList, error)
	GetByID(ctx context.Context, id string) (*models.TodoList, error)
	Add(ctx context.Context, dto models.AddListDTO) (*models.TodoList, error)
	Update(ctx context.Context, dto models.UpdateListDTO) (*models.TodoList, error)
	Delete(ctx context.Context, id string) error
}
