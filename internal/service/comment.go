package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository"
)

// CommentService handles posting and listing comments.
type CommentService struct {
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		logger:   logger,
	}
}

// Post persists a comment for the given user.
//
// Text is trimmed first. Blank or whitespace-only text returns (nil, nil):
// not an error, just nothing to do — the handler redirects back to the feed
// either way and the user sees an unchanged board. This mirrors how the
// board treats an anonymous POST: a non-event, not a failure.
func (s *CommentService) Post(ctx context.Context, userID, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	comment := &model.Comment{
		Text:   text,
		UserID: userID,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("posting comment: %w", err)
	}

	s.logger.Info("comment posted",
		slog.String("id", comment.ID),
		slog.String("userID", userID),
	)

	return comment, nil
}

// List returns the full feed, newest first.
func (s *CommentService) List(ctx context.Context) ([]model.Comment, error) {
	comments, err := s.comments.List(ctx)
	if err != nil {
		s.logger.Error("failed to list comments", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	return comments, nil
}
