package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
)

var (
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidProfileUpdate indicates the update payload carries no usable fields.
	ErrInvalidProfileUpdate = errors.New("profile update is empty")
)

// ProfileService coordinates identity resolution and profile reads/writes.
type ProfileService struct {
	profiles     port.ProfileRepository
	posts        port.PostRepository
	interactions port.InteractionRepository
	logger       *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(
	profiles port.ProfileRepository,
	posts port.PostRepository,
	interactions port.InteractionRepository,
	logger *zap.Logger,
) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles:     profiles,
		posts:        posts,
		interactions: interactions,
		logger:       logger,
	}
}

// CurrentProfile resolves the ambient identity for an authenticated caller.
func (s *ProfileService) CurrentProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	return profile, nil
}

// PublicProfile resolves a profile by username. When viewerID is non-empty the
// result carries the viewer's follow relationship for the follow button state.
func (s *ProfileService) PublicProfile(ctx context.Context, username, viewerID string) (*domain.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrProfileNotFound
	}

	profile, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	if viewerID != "" && viewerID != profile.ID {
		following, err := s.interactions.IsFollowing(ctx, viewerID, profile.ID)
		if err != nil {
			// Follow state is decoration; the profile itself is still served.
			s.logger.Warn("failed to resolve follow state",
				zap.String("viewer_id", viewerID),
				zap.String("profile_id", profile.ID),
				zap.Error(err),
			)
		} else {
			profile.IsFollowing = &following
		}
	}

	return profile, nil
}

// PostsFor lists the newest posts on a public profile page.
func (s *ProfileService) PostsFor(ctx context.Context, username string, limit int) ([]domain.Post, error) {
	profile, err := s.PublicProfile(ctx, username, "")
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, profile.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// UpdateProfile applies the supplied fields and returns the stored profile.
// The caller replaces its ambient identity wholesale with the result.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update port.ProfileUpdate) (*domain.Profile, error) {
	if update.FullName == nil && update.Bio == nil && update.AvatarURL == nil {
		return nil, ErrInvalidProfileUpdate
	}

	profile, err := s.profiles.Update(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}

// Search performs a substring match over usernames and full names.
func (s *ProfileService) Search(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	results, err := s.profiles.SearchByUsername(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return results, nil
}
