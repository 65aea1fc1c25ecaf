package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, postID int64, status models.PostStatus, publishedAt *time.Time) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, workspace_id, content, title, metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	status := post.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.WorkspaceID, post.Content, post.Title, post.Metadata, status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.WorkspaceID, post.Content, post.Title, post.Metadata, status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT id, user_id, workspace_id, content, title, metadata, status, published_at, created_at, updated_at
		FROM posts
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	var publishedAt sql.NullTime
	err := row.Scan(&post.ID, &post.UserID, &post.WorkspaceID, &post.Content, &post.Title, &post.Metadata,
		&post.Status, &publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}

	return &post, nil
}

// UpdateStatus sets the aggregate status. published_at is only stamped the
// first time the post is published.
func (r *postRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, postID int64, status models.PostStatus, publishedAt *time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = COALESCE(published_at, $2),
			updated_at = NOW()
		WHERE id = $3
	`

	var stamp sql.NullTime
	if publishedAt != nil {
		stamp = sql.NullTime{Time: *publishedAt, Valid: true}
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, status, stamp, postID)
	} else {
		result, err = r.db.ExecContext(ctx, query, status, stamp, postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
