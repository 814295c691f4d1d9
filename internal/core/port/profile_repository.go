package port

import (
	"context"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// ProfileUpdate carries the mutable profile fields for a save operation.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	AvatarURL *string
}

// ProfileRepository provides access to persisted user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
	Update(ctx context.Context, id string, update ProfileUpdate) (*domain.Profile, error)
	SearchByUsername(ctx context.Context, query string, limit int) ([]domain.Profile, error)
}
