package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The API reports outcomes in the body rather than the status line:
// every response carries a top-level "success" flag, and application
// failures are returned with HTTP 200 and a human-readable "message".
// The only non-200 failure is opening a delivery stream without a user
// id, which is a 400 before any stream state exists.

// OK sends a successful response, merging the payload fields into the
// top level of the body next to "success": true.
func OK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail sends an application failure with HTTP 200.
func Fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": message,
	})
}

// FailStatus sends a failure with an explicit HTTP status code.
func FailStatus(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// AbortFail aborts the request with an application failure. Used by
// middleware so later handlers do not run.
func AbortFail(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusOK, gin.H{
		"success": false,
		"message": message,
	})
}
