// Package response maps application failures onto the JSON error bodies
// the API exposes. Client-facing messages for downstream failures stay
// generic; detail is logged, never returned.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func BadRequest(c *gin.Context, msg string) {
	Message(c, http.StatusBadRequest, msg)
}

func Unauthorized(c *gin.Context, msg string) {
	Message(c, http.StatusUnauthorized, msg)
}

func NotFound(c *gin.Context, msg string) {
	Message(c, http.StatusNotFound, msg)
}

// Internal replies with a generic server error body.
func Internal(c *gin.Context) {
	Message(c, http.StatusInternalServerError, "server error")
}

// ValidationMessage converts a binding error into a message that names
// the offending field.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
