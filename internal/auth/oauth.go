package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/yandex"

	"github.com/avasilyev/commentboard/internal/model"
)

// Profile is the provider-agnostic identity extracted from a provider's
// profile API. This is all the rest of the application ever sees — handlers
// and services never touch raw GitHub or Yandex responses.
type Profile struct {
	Provider       string // "github" or "yandex"
	ProviderUserID string // provider's stable user ID, stringified
	Name           string // display name, falls back to the login handle
	Email          string // may be empty
}

// fieldRule names the JSON fields to pull out of a provider's profile
// response. Name is the preferred display name field; when it's absent or
// empty the login handle is used instead. That fallback precedence is the
// same for both providers and must stay that way.
type fieldRule struct {
	id    string
	name  string
	login string
	email string
}

// providerSpec is everything provider-specific in one record: where to send
// the user, what to ask for, where the profile lives, and how to read it.
//
// Adding a third provider is one more entry in this table — no new code
// branches anywhere else.
type providerSpec struct {
	endpoint   oauth2.Endpoint
	scopes     []string
	profileURL string
	fields     fieldRule
}

var providerSpecs = map[string]providerSpec{
	model.ProviderGitHub: {
		endpoint:   github.Endpoint,
		scopes:     []string{"read:user", "user:email"},
		profileURL: "https://api.github.com/user",
		fields:     fieldRule{id: "id", name: "name", login: "login", email: "email"},
	},
	model.ProviderYandex: {
		endpoint:   yandex.Endpoint,
		scopes:     []string{"login:email"},
		profileURL: "https://login.yandex.ru/info?format=json",
		fields:     fieldRule{id: "id", name: "display_name", login: "login", email: "default_email"},
	},
}

// SupportedProvider reports whether name is a provider we can log in with.
// Handlers call this before anything else so an unknown name fails with a
// 400 and no network traffic.
func SupportedProvider(name string) bool {
	_, ok := providerSpecs[name]
	return ok
}

// Provider wraps golang.org/x/oauth2 for one identity provider's
// Authorization Code flow.
//
// The flow, for both providers:
//  1. We redirect the browser to the provider's authorize URL (AuthURL).
//  2. The user approves; the provider redirects back with a short-lived code.
//  3. We exchange the code for an access token, server-to-server, using the
//     client secret — the token never touches the browser (Exchange).
//  4. We call the provider's profile API with the token and normalize the
//     response into a Profile.
type Provider struct {
	name       string
	config     *oauth2.Config
	profileURL string
	fields     fieldRule
}

// NewProvider creates a Provider for the named identity source.
// Returns an error for names outside the providerSpecs table.
//
// callbackURL must match the redirect URI registered with the provider
// exactly, e.g. "http://localhost:8080/auth/github".
func NewProvider(name, clientID, clientSecret, callbackURL string) (*Provider, error) {
	spec, ok := providerSpecs[name]
	if !ok {
		return nil, fmt.Errorf("auth: unsupported provider %q", name)
	}

	return &Provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       spec.scopes,
			Endpoint:     spec.endpoint,
		},
		profileURL: spec.profileURL,
		fields:     spec.fields,
	}, nil
}

// Name returns the provider's registry name ("github", "yandex").
func (p *Provider) Name() string {
	return p.name
}

// AuthURL returns the provider URL to redirect the user to.
//
// state is a random single-use string stored in a cookie before the
// redirect; the callback handler verifies the provider echoed it back.
// Without it, an attacker could complete an OAuth flow in the victim's
// browser session (login CSRF).
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for a
// normalized Profile.
//
// Any failure — provider rejecting the code, network trouble, a profile
// response missing its ID — comes back as an error for the handler to turn
// into a request-level failure. Nothing here panics or retries.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code with %s: %w", p.name, err)
	}

	// config.Client returns an *http.Client that attaches the bearer token
	// to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.profileURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching %s profile: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: %s profile API returned status %d", p.name, resp.StatusCode)
	}

	// Decode into a generic map and let the field rule pick values out.
	// UseNumber keeps numeric IDs as their literal digits instead of
	// round-tripping them through float64.
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("auth: decoding %s profile: %w", p.name, err)
	}

	profile, err := p.fields.extract(raw)
	if err != nil {
		return nil, fmt.Errorf("auth: %s profile: %w", p.name, err)
	}
	profile.Provider = p.name

	return profile, nil
}

// extract applies the field rule to a decoded profile response.
func (f fieldRule) extract(raw map[string]any) (*Profile, error) {
	id := stringValue(raw[f.id])
	if id == "" {
		return nil, fmt.Errorf("response has no %q field", f.id)
	}

	// Preferred display name field, else the login handle.
	name := stringValue(raw[f.name])
	if name == "" {
		name = stringValue(raw[f.login])
	}
	if name == "" {
		return nil, fmt.Errorf("response has neither %q nor %q", f.name, f.login)
	}

	return &Profile{
		ProviderUserID: id,
		Name:           name,
		Email:          stringValue(raw[f.email]),
	}, nil
}

// stringValue stringifies a JSON value: strings pass through, numbers keep
// their literal form (GitHub IDs are numeric, Yandex's are strings), and
// anything else — including absent fields and JSON null — becomes "".
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
