package repositories

import (
	"context"

	"github.com/vidvault/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (int64, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}
