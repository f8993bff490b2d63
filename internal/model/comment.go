package model

import "time"

// Comment is a single entry on the board.
//
// Text is stored trimmed and is never empty — the service layer drops blank
// submissions before they reach the store. UserID references the owning user,
// enforced by a foreign key. Comments are immutable: no edit, no delete.
//
// Author is not a column on the comments table. The list query JOINs users
// and fills in the author's display name so the feed can render a comment
// without a second lookup per row.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	Text      string    `json:"text"      db:"text"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Author    string    `json:"author"    db:"-"` // filled by JOIN on list
}
