package domain

import "time"

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// Message represents one unit of conversation content between two users.
type Message struct {
	ID          string    `json:"id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	Text        string    `json:"text,omitempty"`
	MessageType string    `json:"message_type"`
	MediaURL    string    `json:"media_url,omitempty"`
	Seen        bool      `json:"seen"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRef is the minimal display form of a user embedded in push events.
type UserRef struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// MessageEvent is a Message with both participants expanded for display.
// The from_user_id/to_user_id keys carry the expanded objects so clients
// can render sender name and avatar without a second lookup.
type MessageEvent struct {
	ID          string    `json:"id"`
	FromUser    UserRef   `json:"from_user_id"`
	ToUser      UserRef   `json:"to_user_id"`
	Text        string    `json:"text,omitempty"`
	MessageType string    `json:"message_type"`
	MediaURL    string    `json:"media_url,omitempty"`
	Seen        bool      `json:"seen"`
	CreatedAt   time.Time `json:"created_at"`
}

// Counterpart returns the participant that is not the given user.
// A self-conversation returns the user itself.
func (e *MessageEvent) Counterpart(userID string) UserRef {
	if e.FromUser.ID == userID {
		return e.ToUser
	}
	return e.FromUser
}

// SendMessageRequest is the multipart form contract of the send endpoint.
// The image file, if any, is read separately from the multipart body.
type SendMessageRequest struct {
	ToUserID string `form:"to_user_id" binding:"required"`
	Text     string `form:"text"`
}

// GetMessagesRequest is the body of the conversation fetch endpoint.
type GetMessagesRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}
