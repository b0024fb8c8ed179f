package domain

import "time"

// Story media types.
const (
	StoryTypeText  = "text"
	StoryTypeImage = "image"
	StoryTypeVideo = "video"
)

// Story is an ephemeral post that expires after a configured lifetime.
type Story struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	User            *UserRef  `json:"user,omitempty"`
	Content         string    `json:"content,omitempty"`
	MediaURL        string    `json:"media_url,omitempty"`
	MediaType       string    `json:"media_type"`
	BackgroundColor string    `json:"background_color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateStoryRequest is the multipart form contract of story creation.
type CreateStoryRequest struct {
	Content         string `form:"content"`
	MediaType       string `form:"media_type" binding:"required"`
	BackgroundColor string `form:"background_color"`
}
