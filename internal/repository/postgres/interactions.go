package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/repository"
)

// InteractionRepository implements port.InteractionRepository using PostgreSQL.
// Each toggle runs in a transaction so the marker row and the counter always
// move together.
type InteractionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewInteractionRepository constructs a PostgreSQL-backed interaction repository.
func NewInteractionRepository(exec pgExecutor) *InteractionRepository {
	return &InteractionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ToggleLike flips the like marker for (userID, postID) and adjusts the post counter.
func (r *InteractionRepository) ToggleLike(ctx context.Context, userID, postID string) (port.ToggleResult, error) {
	return r.togglePostMarker(ctx, "feed.likes", "likes_count", userID, postID)
}

// ToggleBookmark flips the bookmark marker for (userID, postID). Bookmarks are
// private, so no counter is exposed, but the author is still resolved for the
// change stream.
func (r *InteractionRepository) ToggleBookmark(ctx context.Context, userID, postID string) (port.ToggleResult, error) {
	return r.togglePostMarker(ctx, "feed.bookmarks", "", userID, postID)
}

// ToggleFollow flips the follow edge and adjusts both follower counters.
func (r *InteractionRepository) ToggleFollow(ctx context.Context, followerID, followeeID string) (port.ToggleResult, error) {
	var result port.ToggleResult

	if followerID == followeeID {
		return result, fmt.Errorf("cannot follow self")
	}

	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin toggle follow: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	stmt, args, err := r.builder.
		Select("1").
		From("feed.profiles").
		Where(squirrel.Eq{"id": followeeID}).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build select followee sql: %w", err)
	}
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		if err == pgx.ErrNoRows {
			return result, repository.ErrNotFound
		}
		return result, fmt.Errorf("check followee: %w", err)
	}

	deleted, err := r.deleteMarker(ctx, tx, "feed.follows", squirrel.Eq{
		"follower_id": followerID,
		"followee_id": followeeID,
	})
	if err != nil {
		return result, err
	}

	delta := 1
	if deleted {
		delta = -1
	} else {
		stmt, args, err := r.builder.
			Insert("feed.follows").
			Columns("follower_id", "followee_id").
			Values(followerID, followeeID).
			ToSql()
		if err != nil {
			return result, fmt.Errorf("build insert follow sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return result, fmt.Errorf("insert follow: %w", err)
		}
	}

	if err := r.bumpProfileCounter(ctx, tx, followeeID, "followers_count", delta); err != nil {
		return result, err
	}
	if err := r.bumpProfileCounter(ctx, tx, followerID, "following_count", delta); err != nil {
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit toggle follow: %w", err)
	}

	return port.ToggleResult{Set: !deleted, TargetUserID: followeeID}, nil
}

func (r *InteractionRepository) togglePostMarker(ctx context.Context, table, counterColumn, userID, postID string) (port.ToggleResult, error) {
	var result port.ToggleResult

	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin toggle: %w", err)
	}
	defer tx.Rollback(ctx)

	var authorID string
	stmt, args, err := r.builder.
		Select("author_id").
		From("feed.posts").
		Where(squirrel.Eq{"id": postID}).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build select post sql: %w", err)
	}
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&authorID); err != nil {
		if err == pgx.ErrNoRows {
			return result, repository.ErrNotFound
		}
		return result, fmt.Errorf("resolve post author: %w", err)
	}

	deleted, err := r.deleteMarker(ctx, tx, table, squirrel.Eq{
		"user_id": userID,
		"post_id": postID,
	})
	if err != nil {
		return result, err
	}

	if !deleted {
		stmt, args, err := r.builder.
			Insert(table).
			Columns("user_id", "post_id").
			Values(userID, postID).
			ToSql()
		if err != nil {
			return result, fmt.Errorf("build insert marker sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return result, fmt.Errorf("insert marker: %w", err)
		}
	}

	if counterColumn != "" {
		delta := 1
		if deleted {
			delta = -1
		}
		stmt := fmt.Sprintf(
			"UPDATE feed.posts SET %s = GREATEST(%s + $1, 0) WHERE id = $2",
			counterColumn, counterColumn,
		)
		if _, err := tx.Exec(ctx, stmt, delta, postID); err != nil {
			return result, fmt.Errorf("bump post counter: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit toggle: %w", err)
	}

	return port.ToggleResult{Set: !deleted, TargetUserID: authorID}, nil
}

// IsFollowing reports whether the follow edge exists.
func (r *InteractionRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("feed.follows").
		Where(squirrel.Eq{"follower_id": followerID, "followee_id": followeeID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select follow sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check follow edge: %w", err)
	}

	return true, nil
}

func (r *InteractionRepository) deleteMarker(ctx context.Context, tx pgx.Tx, table string, where squirrel.Eq) (bool, error) {
	stmt, args, err := r.builder.Delete(table).Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete marker sql: %w", err)
	}

	tag, err := tx.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("delete marker: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *InteractionRepository) bumpProfileCounter(ctx context.Context, tx pgx.Tx, profileID, column string, delta int) error {
	stmt := fmt.Sprintf(
		"UPDATE feed.profiles SET %s = GREATEST(%s + $1, 0) WHERE id = $2",
		column, column,
	)
	if _, err := tx.Exec(ctx, stmt, delta, profileID); err != nil {
		return fmt.Errorf("bump profile counter %s: %w", column, err)
	}
	return nil
}
