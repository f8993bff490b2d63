package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/handler"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository/sqlstore"
	"github.com/avasilyev/commentboard/internal/service"
)

// testApp wires the real stack — in-memory SQLite, real services, real
// middleware — behind a chi router with the same route map as the server.
// Only the OAuth providers are fakes with dummy credentials; the callback
// tests below never get past the state check, so no network is involved.
type testApp struct {
	db     *sqlstore.DB
	tokens *auth.TokenService
	router *chi.Mux
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlstore.New(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	github, err := auth.NewProvider(model.ProviderGitHub, "client-id", "client-secret",
		"http://localhost:8080/auth/github")
	require.NoError(t, err)
	providers := map[string]*auth.Provider{model.ProviderGitHub: github}

	authService := service.NewAuthService(db, logger)
	commentService := service.NewCommentService(db, logger)

	feedHandler, err := handler.NewFeedHandler("../../web/templates", commentService, authService, logger)
	require.NoError(t, err)
	authHandler := handler.NewAuthHandler(providers, tokens, authService, logger)
	commentHandler := handler.NewCommentHandler(commentService, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", feedHandler.HandleFeed)
		r.Post("/comment", commentHandler.HandlePost)
	})
	r.Get("/login/{provider}", authHandler.HandleLogin)
	r.Get("/auth/{provider}", authHandler.HandleCallback)
	r.Get("/logout", authHandler.HandleLogout)
	r.Get("/api/comments", commentHandler.HandleList)
	r.With(auth.RequireAuth(tokens)).Get("/api/me", authHandler.HandleMe)

	return &testApp{db: db, tokens: tokens, router: r}
}

// loginUser creates a user directly in the store and returns it with a valid
// session cookie, sidestepping the OAuth dance.
func (app *testApp) loginUser(t *testing.T, providerUserID, name string) (*model.User, *http.Cookie) {
	t.Helper()

	user := &model.User{
		Provider:       model.ProviderGitHub,
		ProviderUserID: providerUserID,
		Name:           name,
	}
	require.NoError(t, app.db.FindOrCreate(context.Background(), user))

	token, err := app.tokens.Generate(user.ID)
	require.NoError(t, err)

	return user, &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func (app *testApp) postComment(text string, cookie *http.Cookie) *httptest.ResponseRecorder {
	form := url.Values{"text": {text}}
	req := httptest.NewRequest(http.MethodPost, "/comment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

func (app *testApp) listComments(t *testing.T) []model.Comment {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var comments []model.Comment
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&comments))
	return comments
}

func TestPostComment(t *testing.T) {
	t.Run("anonymous POST is a redirect and stores nothing", func(t *testing.T) {
		app := newTestApp(t)

		rr := app.postComment("drive-by", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		assert.Empty(t, app.listComments(t))
	})

	t.Run("blank text is a redirect and stores nothing", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginUser(t, "123", "Alice")

		for _, text := range []string{"", "   ", "\n\t "} {
			rr := app.postComment(text, cookie)
			assert.Equal(t, http.StatusSeeOther, rr.Code)
		}
		assert.Empty(t, app.listComments(t))
	})

	t.Run("valid text creates one owned comment", func(t *testing.T) {
		app := newTestApp(t)
		user, cookie := app.loginUser(t, "123", "Alice")

		rr := app.postComment("hello", cookie)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		comments := app.listComments(t)
		require.Len(t, comments, 1)
		assert.Equal(t, "hello", comments[0].Text)
		assert.Equal(t, user.ID, comments[0].UserID)
	})

	t.Run("new comment appears first in the feed", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginUser(t, "123", "Alice")

		app.postComment("older", cookie)
		app.postComment("newer", cookie)

		comments := app.listComments(t)
		require.Len(t, comments, 2)
		assert.Equal(t, "newer", comments[0].Text)
		assert.Equal(t, "older", comments[1].Text)
	})

	t.Run("stale session cookie stores nothing", func(t *testing.T) {
		app := newTestApp(t)

		// A signed cookie for a user that was never created (e.g. the
		// database was recreated). The POST fails at the foreign key and
		// surfaces as a server error; no row is written.
		token, err := app.tokens.Generate("ghost-user")
		require.NoError(t, err)
		rr := app.postComment("boo", &http.Cookie{Name: auth.SessionCookie, Value: token})

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Empty(t, app.listComments(t))
	})
}

func TestFeedPage(t *testing.T) {
	app := newTestApp(t)
	user, cookie := app.loginUser(t, "123", "Alice")
	app.postComment("hello from alice", cookie)

	t.Run("anonymous visitor sees comments and login links", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "hello from alice")
		assert.Contains(t, body, "/login/github")
		assert.NotContains(t, body, "/logout")
	})

	t.Run("logged-in visitor sees their name and the form", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, user.Name)
		assert.Contains(t, body, "/logout")
		assert.Contains(t, body, `action="/comment"`)
	})
}

func TestLogin(t *testing.T) {
	t.Run("unsupported provider is a 400", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/login/google", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("known provider redirects with a state cookie", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/login/github", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

		location := rr.Header().Get("Location")
		assert.Contains(t, location, "client_id=client-id")

		var state string
		for _, c := range rr.Result().Cookies() {
			if c.Name == "oauth_state" {
				state = c.Value
			}
		}
		require.NotEmpty(t, state, "login must set the oauth_state cookie")
		assert.Contains(t, location, "state="+state)
	})
}

func TestCallback(t *testing.T) {
	t.Run("unsupported provider is a 400", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/auth/google?code=x&state=y", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing state cookie is a 400", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/auth/github?code=x&state=y", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("state mismatch is a 400", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/auth/github?code=x&state=wrong", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "right"})
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("user denial redirects back to the feed", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/auth/github?error=access_denied&state=s", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s"})
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
	})
}

func TestAPIMe(t *testing.T) {
	t.Run("anonymous request is a 401", func(t *testing.T) {
		app := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid session returns the user", func(t *testing.T) {
		app := newTestApp(t)
		user, cookie := app.loginUser(t, "123", "Alice")

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "Alice", got.Name)
	})
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.loginUser(t, "123", "Alice")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	// The session cookie is cleared.
	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")
}
