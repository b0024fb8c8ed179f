package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Messaging
	FieldMessageID  = "message_id"
	FieldFromUserID = "from_user_id"
	FieldToUserID   = "to_user_id"
	FieldStoryID    = "story_id"
)
