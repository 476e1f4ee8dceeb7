package users

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, dto models.AddUserDTO) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	Update(ctx context.Context, dto models.UpdateUserDTO) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
