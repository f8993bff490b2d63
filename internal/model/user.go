// Package model defines the data structures used throughout the application.
package model

import "time"

// Provider names accepted by the login flow. Anything else is rejected with
// a 400 before we talk to the network.
const (
	ProviderGitHub = "github"
	ProviderYandex = "yandex"
)

// User represents an account created from an external OAuth identity.
//
// The pair (Provider, ProviderUserID) is the external identity: the provider
// name plus the stable numeric ID the provider reports for the account. The
// users table carries a UNIQUE constraint on that pair, so one external
// identity maps to exactly one row. We still generate our own internal string
// ID (xid) so comments reference our keys, not a third party's numbering.
//
// WHY ProviderUserID string (not int64)?
// GitHub reports a number, Yandex reports a string. Storing the stringified
// form keeps the column uniform across providers and costs nothing — we never
// do arithmetic on it.
//
// A user row is written once, on first login, and never updated. Re-logins
// resolve to the existing row; name and email stay whatever the provider
// reported the first time.
type User struct {
	ID             string    `json:"id"             db:"id"`
	Provider       string    `json:"provider"       db:"provider"`
	ProviderUserID string    `json:"providerUserId" db:"provider_user_id"`
	Name           string    `json:"name"           db:"name"`  // display name, falls back to the login handle
	Email          string    `json:"email"          db:"email"` // may be empty (GitHub users can hide it)
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}
