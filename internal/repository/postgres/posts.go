package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

// PostRepository implements port.PostRepository using PostgreSQL.
type PostRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPostRepository constructs a PostgreSQL-backed post read repository.
func NewPostRepository(exec pgExecutor) *PostRepository {
	return &PostRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListByAuthor returns the newest posts for a profile page.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]domain.Post, error) {
	if limit <= 0 {
		limit = 20
	}

	stmt, args, err := r.builder.
		Select("id", "author_id", "content_text", "likes_count", "created_at").
		From("feed.posts").
		Where(squirrel.Eq{"author_id": authorID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Content, &post.LikesCount, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}
