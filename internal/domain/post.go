package domain

import "time"

// Post is a blog entry owned by exactly one user. The slug is never stored;
// it is derived from the title on demand.
type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
