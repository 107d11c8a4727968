package models

import "time"

// Post is a single blog post. Description is nil when the post has none;
// it is never stored as an empty string.
type Post struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// DescriptionOr returns the description, or fallback when there is none.
func (p *Post) DescriptionOr(fallback string) string {
	if p.Description == nil {
		return fallback
	}
	return *p.Description
}
