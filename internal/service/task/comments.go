package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
)

const maxCommentLen = 4000

func validateContent(op, content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", timeline.Validationf(op, "comment content is required")
	case len(content) > maxCommentLen:
		return "", timeline.Validationf(op, "comment exceeds %d bytes", maxCommentLen)
	}
	return content, nil
}

func (s *Service) AddComment(ctx context.Context, taskID, authorID, content string) (*timeline.Comment, error) {
	const op = "comment.add"
	content, err := validateContent(op, content)
	if err != nil {
		return nil, err
	}
	if authorID == "" {
		return nil, timeline.Validationf(op, "author is required")
	}
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	now := s.clock()
	c := &timeline.Comment{
		ID:             s.newID(),
		TaskInstanceID: taskID,
		AuthorID:       authorID,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertComment(ctx, c); err != nil {
		return nil, err
	}
	logger.WithTrace(ctx, s.logger).Debug("Comment added",
		zap.String("task_id", taskID),
		zap.String("comment_id", c.ID),
	)
	return c, nil
}

// UpdateComment 作者本人或有管理权限的人可以修改
func (s *Service) UpdateComment(ctx context.Context, taskID, commentID, actorID, content string) (*timeline.Comment, error) {
	const op = "comment.update"
	content, err := validateContent(op, content)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetComment(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actorID && !s.authz.CanModerateComment(ctx, actorID, c) {
		return nil, timeline.Unauthorizedf(op, "actor %s cannot edit comment %s", actorID, commentID)
	}

	c.Content = content
	c.UpdatedAt = s.nextUpdatedAt(c.UpdatedAt)
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, taskID, commentID, actorID string) error {
	const op = "comment.delete"
	c, err := s.store.GetComment(ctx, taskID, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID && !s.authz.CanModerateComment(ctx, actorID, c) {
		return timeline.Unauthorizedf(op, "actor %s cannot delete comment %s", actorID, commentID)
	}
	return s.store.DeleteComment(ctx, taskID, commentID)
}

func (s *Service) ListComments(ctx context.Context, taskID string) ([]timeline.Comment, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, taskID)
}
