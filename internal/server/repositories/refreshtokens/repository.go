package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

// Repository persists at most one refresh token per user.
type Repository interface {
	// Upsert stores token for its user, replacing any previous one.
	Upsert(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// Rotate swaps oldToken for newToken only if oldToken is still present
	// and unexpired at now. It returns common.ErrorNotFound otherwise.
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
