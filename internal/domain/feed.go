package domain

import "time"

// FeedPost is a social feed entry. Posting is rate-limited per author.
type FeedPost struct {
	ID        uint      `json:"id"`
	AuthorID  uint      `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
