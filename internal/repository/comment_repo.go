package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

type CommentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCommentRepository(db *pgxpool.Pool, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{db: db, logger: logger}
}

func (r *CommentRepository) InsertComment(ctx context.Context, c *timeline.Comment) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO task_comments (id, task_instance_id, author_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, c.ID, c.TaskInstanceID, c.AuthorID, c.Content, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert comment", zap.String("task_id", c.TaskInstanceID), zap.Error(err))
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetComment(ctx context.Context, taskID, commentID string) (*timeline.Comment, error) {
	var c timeline.Comment
	err := r.db.QueryRow(ctx, `
        SELECT id, task_instance_id, author_id, content, created_at, updated_at
        FROM task_comments
        WHERE id = $1 AND task_instance_id = $2
    `, commentID, taskID).Scan(&c.ID, &c.TaskInstanceID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timeline.NotFoundf("comment.get", "comment %s", commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) UpdateComment(ctx context.Context, c *timeline.Comment) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE task_comments SET content = $3, updated_at = $4
        WHERE id = $1 AND task_instance_id = $2
    `, c.ID, c.TaskInstanceID, c.Content, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeline.NotFoundf("comment.update", "comment %s", c.ID)
	}
	return nil
}

func (r *CommentRepository) DeleteComment(ctx context.Context, taskID, commentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM task_comments WHERE id = $1 AND task_instance_id = $2`, commentID, taskID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeline.NotFoundf("comment.delete", "comment %s", commentID)
	}
	return nil
}

func (r *CommentRepository) ListComments(ctx context.Context, taskID string) ([]timeline.Comment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, task_instance_id, author_id, content, created_at, updated_at
        FROM task_comments
        WHERE task_instance_id = $1
        ORDER BY created_at, id
    `, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []timeline.Comment{}
	for rows.Next() {
		var c timeline.Comment
		if err := rows.Scan(&c.ID, &c.TaskInstanceID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
