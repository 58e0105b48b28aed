package domain

import "time"

// Script is a generated video script saved by a user. Content stores the
// script parts joined with the part-break delimiter so the full text
// round-trips through the segmenter.
type Script struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
