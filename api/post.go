package api

import "time"

type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url"`
	User         string    `json:"user"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PostPage struct {
	Posts      []Post `json:"data"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"total_pages"`
}

// PostProto is the body of a create request. A missing URL is derived from
// the title and a missing Active flag means true.
type PostProto struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	URL        string `json:"url"`
	User       string `json:"user"`
	CategoryID int64  `json:"category_id"`
	Active     *bool  `json:"active"`
}

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Error      string      `json:"error"`
	Violations []Violation `json:"violations,omitempty"`
}
