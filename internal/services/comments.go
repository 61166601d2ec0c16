package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

type CommentService struct {
	store
	audit *AuditLog
}

func NewCommentService(db *gorm.DB, opTimeout time.Duration, audit *AuditLog) *CommentService {
	return &CommentService{store: newStore(db, opTimeout), audit: audit}
}

func (s *CommentService) AddComment(ctx context.Context, actor *authz.Context, taskID uint, content string) (types.CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.CommentResponse{}, types.Validation("comment content is required")
	}

	comment := models.TaskComment{TaskID: taskID, AccountID: actor.AccountID, Content: content}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		task, err := authz.Require(tx, actor, taskID, authz.CanComment, "comment on")
		if err != nil {
			return err
		}

		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		return s.audit.Append(tx, taskEntry(task, actor.AccountID, ActionCommented, "Comment added"))
	})
	if err != nil {
		return types.CommentResponse{}, err
	}

	return commentResponse(comment), nil
}

func (s *CommentService) ListComments(ctx context.Context, actor *authz.Context, taskID uint) ([]types.CommentResponse, error) {
	var comments []models.TaskComment

	err := s.read(ctx, func(tx *gorm.DB) error {
		if _, err := authz.Require(tx, actor, taskID, authz.CanView, "view"); err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Order("created_at, id").Find(&comments).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentResponse(comment))
	}
	return out, nil
}

func commentResponse(c models.TaskComment) types.CommentResponse {
	return types.CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AccountID: c.AccountID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
