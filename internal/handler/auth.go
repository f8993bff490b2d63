package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/avasilyev/commentboard/internal/auth"
	"github.com/avasilyev/commentboard/internal/service"
)

// stateCookie names the short-lived cookie holding the OAuth state value
// between the login redirect and the provider callback.
const stateCookie = "oauth_state"

// AuthHandler drives the login flow for every configured provider plus
// logout and the session-introspection API endpoint.
//
// The provider map is built at wiring time from the configured credentials;
// the handlers are identical for GitHub and Yandex because the providers
// normalize their own responses.
type AuthHandler struct {
	providers map[string]*auth.Provider
	tokens    *auth.TokenService
	users     *service.AuthService
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	providers map[string]*auth.Provider,
	tokens *auth.TokenService,
	users *service.AuthService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		providers: providers,
		tokens:    tokens,
		users:     users,
		logger:    logger,
	}
}

// provider resolves the {provider} URL parameter. A name outside the
// configured set gets a 400 and the request stops — before any state cookie
// is set and before any network call.
func (h *AuthHandler) provider(w http.ResponseWriter, r *http.Request) (*auth.Provider, bool) {
	name := chi.URLParam(r, "provider")
	p, ok := h.providers[name]
	if !ok {
		http.Error(w, "unsupported provider", http.StatusBadRequest)
		return nil, false
	}
	return p, true
}

// HandleLogin starts the OAuth flow.
//
// HTTP: GET /login/{provider}
//
// The state value is random and single-use; it goes into a short-lived
// HttpOnly cookie and into the authorize URL, and the callback requires the
// two to match. Ten minutes is plenty for the user to click "approve".
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /auth/{provider}?code=xxx&state=yyy
//
//  1. Verify the state parameter against the cookie (login CSRF check)
//  2. Exchange the code for a normalized profile
//  3. Resolve the profile to a user (created on first login)
//  4. Issue the session cookie and send the browser back to the feed
//
// Every failure leaves the visitor anonymous and the database untouched —
// there is no partial login state to clean up.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("callback: missing state cookie", slog.String("provider", p.Name()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("callback: state mismatch", slog.String("provider", p.Name()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// State is single-use — clear the cookie whatever happens next.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The provider sends error= instead of code= when the user cancels.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("callback: authorization denied",
			slog.String("provider", p.Name()),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("callback: exchange failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
		http.Error(w, "OAuth authentication failed", http.StatusBadGateway)
		return
	}

	user, err := h.users.Login(r.Context(), profile)
	if err != nil {
		h.logger.Error("callback: resolving user failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	tokenStr, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("callback: issuing session failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// HttpOnly keeps the token away from page scripts; SameSite=Lax keeps it
	// off cross-site POSTs. Secure stays off for local HTTP development.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /logout
//
// Sessions are stateless, so logout is purely client-side: delete the
// cookie and the browser has nothing left to present.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the session user's profile.
//
// HTTP: GET /api/me
// Auth: required (RequireAuth sets the userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't rely on wiring.
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.users.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
