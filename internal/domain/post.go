package domain

import "time"

// Post is a feed entry: text, images, or both.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	User      *UserRef  `json:"user,omitempty"`
	Content   string    `json:"content,omitempty"`
	ImageURLs []string  `json:"image_urls"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest is the multipart form contract of post creation.
// Images travel as files.
type CreatePostRequest struct {
	Content string `form:"content"`
}

// LikePostRequest toggles the caller's like on a post.
type LikePostRequest struct {
	PostID string `json:"post_id" binding:"required"`
}
