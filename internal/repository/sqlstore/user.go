package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avasilyev/commentboard/internal/apperror"
	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindOrCreate resolves an external identity to a user row.
//
// The common case is two queries: a SELECT that hits an existing row, or a
// SELECT miss followed by an INSERT. The interesting case is the race — two
// first logins for the same identity landing on different server processes
// at the same time. In-process locking can't help there, so the UNIQUE
// constraint on (provider, provider_user_id) arbitrates:
//
//	INSERT ... ON CONFLICT (provider, provider_user_id) DO NOTHING
//
// Exactly one insert wins. The loser sees zero rows affected and re-reads
// the winner's row. Either way the caller ends up with the one canonical
// user, and the row is never updated after creation — a re-login keeps the
// name and email from the first login.
func (db *DB) FindOrCreate(ctx context.Context, user *model.User) error {
	existing, err := db.getByIdentity(ctx, user.Provider, user.ProviderUserID)
	if err == nil {
		*user = *existing
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("sqlstore: looking up user %s/%s: %w",
			user.Provider, user.ProviderUserID, err)
	}

	// First login for this identity — insert a fresh row.
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO users (id, provider, provider_user_id, name, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_user_id) DO NOTHING`),
		user.ID,
		user.Provider,
		user.ProviderUserID,
		user.Name,
		user.Email,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting user %s/%s: %w",
			user.Provider, user.ProviderUserID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Lost the race — a concurrent callback inserted this identity between
	// our SELECT and INSERT. Read back the row that won.
	existing, err = db.getByIdentity(ctx, user.Provider, user.ProviderUserID)
	if err != nil {
		return fmt.Errorf("sqlstore: re-reading user %s/%s after conflict: %w",
			user.Provider, user.ProviderUserID, err)
	}
	*user = *existing
	return nil
}

// getByIdentity looks up a user by (provider, provider_user_id).
// Returns sql.ErrNoRows untranslated — FindOrCreate treats a miss as the
// signal to insert, not as an application-level "not found".
func (db *DB) getByIdentity(ctx context.Context, provider, providerUserID string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT id, provider, provider_user_id, name, email, created_at
		 FROM users
		 WHERE provider = ? AND provider_user_id = ?`),
		provider, providerUserID,
	).Scan(
		&u.ID,
		&u.Provider,
		&u.ProviderUserID,
		&u.Name,
		&u.Email,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID — a stale
// session cookie can reference a user from a wiped database.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT id, provider, provider_user_id, name, email, created_at
		 FROM users WHERE id = ?`),
		id,
	).Scan(
		&u.ID,
		&u.Provider,
		&u.ProviderUserID,
		&u.Name,
		&u.Email,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", id, err)
	}
	return &u, nil
}
