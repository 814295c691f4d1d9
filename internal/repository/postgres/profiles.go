package postgres

import (
	"context"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/social-platform-feed/internal/core/domain"
	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
)

var profileColumns = []string{
	"id",
	"username",
	"full_name",
	"avatar_url",
	"bio",
	"posts_count",
	"followers_count",
	"following_count",
	"created_at",
}

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewProfileRepository(exec pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a profile by identifier.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	stmt, args, err := r.builder.
		Select(profileColumns...).
		From("feed.profiles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	return r.scanProfile(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByUsername retrieves a profile by its unique username.
func (r *ProfileRepository) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	stmt, args, err := r.builder.
		Select(profileColumns...).
		From("feed.profiles").
		Where(squirrel.Eq{"username": strings.ToLower(strings.TrimSpace(username))}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	return r.scanProfile(r.exec.QueryRow(ctx, stmt, args...))
}

// Update applies non-nil fields and returns the stored profile.
func (r *ProfileRepository) Update(ctx context.Context, id string, update port.ProfileUpdate) (*domain.Profile, error) {
	query := r.builder.Update("feed.profiles").Where(squirrel.Eq{"id": id})

	changed := false
	if update.FullName != nil {
		query = query.Set("full_name", *update.FullName)
		changed = true
	}
	if update.Bio != nil {
		query = query.Set("bio", *update.Bio)
		changed = true
	}
	if update.AvatarURL != nil {
		query = query.Set("avatar_url", *update.AvatarURL)
		changed = true
	}

	if !changed {
		return r.GetByID(ctx, id)
	}

	stmt, args, err := query.Suffix("RETURNING " + strings.Join(profileColumns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update profile sql: %w", err)
	}

	return r.scanProfile(r.exec.QueryRow(ctx, stmt, args...))
}

// SearchByUsername returns profiles whose username or full name contains the query.
func (r *ProfileRepository) SearchByUsername(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(query) + "%"
	stmt, args, err := r.builder.
		Select(profileColumns...).
		From("feed.profiles").
		Where(squirrel.Or{
			squirrel.Like{"lower(username)": pattern},
			squirrel.Like{"lower(full_name)": pattern},
		}).
		OrderBy("username ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search profiles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		profile   domain.Profile
		fullName  *string
		avatarURL *string
		bio       *string
	)

	if err := row.Scan(
		&profile.ID,
		&profile.Username,
		&fullName,
		&avatarURL,
		&bio,
		&profile.Counts.Posts,
		&profile.Counts.Followers,
		&profile.Counts.Following,
		&profile.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	if fullName != nil {
		profile.FullName = *fullName
	}
	if avatarURL != nil {
		profile.AvatarURL = *avatarURL
	}
	if bio != nil {
		profile.Bio = *bio
	}

	return &profile, nil
}
