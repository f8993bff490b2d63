package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/avasilyev/commentboard/internal/model"
	"github.com/avasilyev/commentboard/internal/repository"
)

// compile-time check that *DB implements repository.CommentRepository
var _ repository.CommentRepository = (*DB)(nil)

// Create inserts a new comment.
//
// ID and CreatedAt are assigned here, so the caller's struct carries the
// stored values on return (pointer receiver — same convention as the user
// side). The foreign key on user_id means inserting a comment for a
// nonexistent user fails at the database, not silently.
func (db *DB) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO comments (id, text, user_id, created_at)
		 VALUES (?, ?, ?, ?)`),
		comment.ID,
		comment.Text,
		comment.UserID,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating comment: %w", err)
	}

	return nil
}

// List returns every comment, newest first.
//
// The JOIN pulls the author's display name alongside each row so the feed
// renders in a single query. Ties on created_at fall back to id DESC — xid
// strings sort by creation time, so the order stays stable for comments
// written within the same clock tick.
//
// No pagination: the board is a single page and the feed is expected to stay
// small. If that changes, this is the query to revisit.
func (db *DB) List(ctx context.Context) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.text, c.user_id, c.created_at, u.name
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 ORDER BY c.created_at DESC, c.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.UserID, &c.CreatedAt, &c.Author); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments: %w", err)
	}

	return comments, nil
}
