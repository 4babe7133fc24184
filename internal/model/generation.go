package model

import "time"

// Generation is one completed makeup-preview run, persisted for the
// history view.
type Generation struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Style     string    `db:"style" json:"style"`
	ImageURL  string    `db:"image_url" json:"imageUrl"`
	Breakdown string    `db:"breakdown" json:"breakdown"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
