package domain

import "time"

// Connection request states.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
)

// Connection is a mutual-link request between two users.
type Connection struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
