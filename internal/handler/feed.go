// Package handler contains the HTTP handlers: the HTML pages and redirects
// that make up the board, and a small JSON API on top of the same services.
//
// Handlers parse requests and write responses — nothing else. Validation
// and rules live in the service layer; SQL lives in the repositories.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/service"
)

// FeedHandler renders the board's single page.
// Templates are parsed once at construction, not per request.
type FeedHandler struct {
	templates *template.Template
	comments  *service.CommentService
	users     *service.AuthService
	logger    *slog.Logger
}

// NewFeedHandler parses the feed templates and creates the handler.
// base.html defines the page frame; feed.html fills its "content" block —
// Go's template composition model.
func NewFeedHandler(
	templateDir string,
	comments *service.CommentService,
	users *service.AuthService,
	logger *slog.Logger,
) (*FeedHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "feed.html"),
	)
	if err != nil {
		return nil, err
	}

	return &FeedHandler{
		templates: tmpl,
		comments:  comments,
		users:     users,
		logger:    logger,
	}, nil
}

// feedData is what the templates render from.
type feedData struct {
	Title    string
	Comments []model.Comment
	User     *model.User // nil for anonymous visitors
}

// HandleFeed serves the board.
//
// HTTP: GET /
//
// The route runs under OptionalAuth: anonymous visitors get the feed with
// login links, a logged-in visitor additionally gets the comment form and
// their name. A session cookie pointing at a user that no longer exists is
// treated as anonymous rather than an error.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context())
	if err != nil {
		h.logger.Error("feed: listing comments failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := feedData{
		Title:    "Comment Board",
		Comments: comments,
	}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		if user, err := h.users.UserByID(r.Context(), userID); err == nil {
			data.User = user
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("feed: rendering template failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
