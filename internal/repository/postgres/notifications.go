package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// NotificationRepository implements port.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewNotificationRepository constructs a PostgreSQL-backed notification repository.
func NewNotificationRepository(exec pgExecutor) *NotificationRepository {
	return &NotificationRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert persists a materialized notification row.
func (r *NotificationRepository) Insert(ctx context.Context, event domain.NotificationEvent) error {
	var postID any
	if event.PostID != "" {
		postID = event.PostID
	}

	stmt, args, err := r.builder.
		Insert("feed.notifications").
		Columns("id", "type", "user_id", "actor_id", "post_id", "created_at", "read").
		Values(event.ID, event.Type, event.TargetUserID, event.ActorID, postID, event.CreatedAt, event.Read).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// ListForUser returns the newest notifications for a user, actor data joined in.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	stmt, args, err := r.builder.
		Select(
			"n.id",
			"n.type",
			"n.user_id",
			"n.actor_id",
			"p.username",
			"p.avatar_url",
			"n.post_id",
			"n.created_at",
			"n.read",
		).
		From("feed.notifications n").
		Join("feed.profiles p ON p.id = n.actor_id").
		Where(squirrel.Eq{"n.user_id": userID}).
		OrderBy("n.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notifications sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		var (
			event     domain.NotificationEvent
			avatarURL *string
			postID    *string
		)

		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.TargetUserID,
			&event.ActorID,
			&event.ActorUsername,
			&avatarURL,
			&postID,
			&event.CreatedAt,
			&event.Read,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}

		if avatarURL != nil {
			event.ActorAvatarURL = *avatarURL
		}
		if postID != nil {
			event.PostID = *postID
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return events, nil
}

// MarkAllRead flips every unread notification for the user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.
		Update("feed.notifications").
		Set("read", true).
		Where(squirrel.Eq{"user_id": userID, "read": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}

	return nil
}
