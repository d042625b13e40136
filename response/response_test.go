package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestMessageHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		fn     func(c *gin.Context)
		status int
		body   string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "title is required") }, http.StatusBadRequest, `{"message":"title is required"}`},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "missing bearer token") }, http.StatusUnauthorized, `{"message":"missing bearer token"}`},
		{"not found", func(c *gin.Context) { NotFound(c, "post not found") }, http.StatusNotFound, `{"message":"post not found"}`},
		{"internal", Internal, http.StatusInternalServerError, `{"message":"server error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.fn(c)

			assert.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestValidationMessage(t *testing.T) {
	validate := validator.New()

	type form struct {
		Name    string `validate:"required"`
		Email   string `validate:"omitempty,email"`
		Message string `validate:"required"`
	}

	err := validate.Struct(form{Email: "ok@example.com", Message: "hi"})
	assert.Equal(t, "name is required", ValidationMessage(err))

	err = validate.Struct(form{Name: "Jane", Email: "nope", Message: "hi"})
	assert.Equal(t, "email must be a valid email address", ValidationMessage(err))
}

func TestValidationMessage_NonValidationError(t *testing.T) {
	assert.Equal(t, "invalid request body", ValidationMessage(errors.New("unexpected EOF")))
	assert.Equal(t, "invalid request body", ValidationMessage(nil))
}
