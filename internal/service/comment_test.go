package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/avasilyev/commentboard/internal/model"
)

// mockCommentRepo is a hand-written in-memory CommentRepository.
// returnErr, when set, is returned from Create to simulate a storage
// failure without a database.
type mockCommentRepo struct {
	comments  []model.Comment
	nextID    int
	returnErr error
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.nextID++
	comment.ID = fmt.Sprintf("mock-%d", m.nextID)
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *mockCommentRepo) List(_ context.Context) ([]model.Comment, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	// Newest first, like the real store.
	out := make([]model.Comment, 0, len(m.comments))
	for i := len(m.comments) - 1; i >= 0; i-- {
		out = append(out, m.comments[i])
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPost_ValidText(t *testing.T) {
	repo := &mockCommentRepo{}
	svc := NewCommentService(repo, testLogger())

	comment, err := svc.Post(context.Background(), "user-1", "hello")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if comment == nil {
		t.Fatal("Post() returned nil comment for valid text")
	}
	if comment.Text != "hello" {
		t.Errorf("Text = %q, want %q", comment.Text, "hello")
	}
	if comment.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", comment.UserID, "user-1")
	}
	if len(repo.comments) != 1 {
		t.Errorf("stored %d comments, want 1", len(repo.comments))
	}
}

func TestPost_TrimsWhitespace(t *testing.T) {
	repo := &mockCommentRepo{}
	svc := NewCommentService(repo, testLogger())

	comment, err := svc.Post(context.Background(), "user-1", "  hello  \n")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if comment.Text != "hello" {
		t.Errorf("Text = %q, want trimmed %q", comment.Text, "hello")
	}
}

func TestPost_BlankTextIsNoOp(t *testing.T) {
	repo := &mockCommentRepo{}
	svc := NewCommentService(repo, testLogger())

	for _, text := range []string{"", "   ", "\t\n  "} {
		comment, err := svc.Post(context.Background(), "user-1", text)
		if err != nil {
			t.Errorf("Post(%q) error = %v, want nil (silent no-op)", text, err)
		}
		if comment != nil {
			t.Errorf("Post(%q) returned a comment, want nil", text)
		}
	}

	if len(repo.comments) != 0 {
		t.Errorf("stored %d comments, want 0 — blank text must never persist", len(repo.comments))
	}
}

func TestPost_StorageFailurePropagates(t *testing.T) {
	repoErr := errors.New("disk on fire")
	repo := &mockCommentRepo{returnErr: repoErr}
	svc := NewCommentService(repo, testLogger())

	_, err := svc.Post(context.Background(), "user-1", "hello")
	if !errors.Is(err, repoErr) {
		t.Errorf("Post() error = %v, want wrapped %v", err, repoErr)
	}
}

func TestList_PassesThrough(t *testing.T) {
	repo := &mockCommentRepo{}
	svc := NewCommentService(repo, testLogger())

	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.Post(context.Background(), "user-1", text); err != nil {
			t.Fatalf("Post(%q) error = %v", text, err)
		}
	}

	comments, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("List() returned %d comments, want 3", len(comments))
	}
	if comments[0].Text != "three" {
		t.Errorf("first comment = %q, want newest %q", comments[0].Text, "three")
	}
}
