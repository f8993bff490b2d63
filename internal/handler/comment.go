package handler

import (
	"log/slog"
	"net/http"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/service"
)

// CommentHandler accepts comment submissions from the board's form and
// serves the feed as JSON for API clients.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		logger:   logger,
	}
}

// HandlePost accepts a comment from the board's form.
//
// HTTP: POST /comment, form field "text"
//
// Everything about this route ends in a redirect to the feed:
//   - anonymous request → redirect, nothing stored
//   - blank or whitespace-only text → redirect, nothing stored
//   - valid text → comment stored, redirect
//
// Only a storage failure surfaces as an error. The anonymous and blank cases
// are deliberate no-ops, not failures — the form simply has no effect.
func (h *CommentHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	if _, err := h.comments.Post(r.Context(), userID, r.PostFormValue("text")); err != nil {
		h.logger.Error("comment post failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleList returns the feed as JSON, newest first.
//
// HTTP: GET /api/comments
//
// Same data the HTML feed renders; no auth required.
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context())
	if err != nil {
		h.logger.Error("api: listing comments failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if comments == nil {
		comments = []model.Comment{}
	}

	writeJSON(w, http.StatusOK, comments)
}
