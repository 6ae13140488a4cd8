package service

import (
	"context"
	"fmt"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/google/uuid"
)

// targets resolves the thread or comment a vote or bookmark points at.
type targets struct {
	threads  repository.ThreadRepository
	comments repository.CommentRepository
}

// author returns the target's author, or ErrTargetNotFound.
func (t targets) author(ctx context.Context, targetType models.TargetType, id uuid.UUID) (uuid.UUID, error) {
	switch targetType {
	case models.TargetThread:
		thread, err := t.threads.GetByID(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load thread: %w", err)
		}
		if thread != nil {
			return thread.AuthorID, nil
		}
	case models.TargetComment:
		comment, err := t.comments.GetByID(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load comment: %w", err)
		}
		if comment != nil {
			return comment.AuthorID, nil
		}
	}
	return uuid.Nil, ErrTargetNotFound
}

func ledgerKey(userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) string {
	return userID.String() + ":" + string(targetType) + ":" + targetID.String()
}
