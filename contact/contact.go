package contact

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"driftwood/response"
)

// Mailer delivers a contact submission. Satisfied by email.EmailService.
type Mailer interface {
	SendContact(name, replyTo, message string) error
}

type ContactModule struct {
	mailer Mailer
	log    *zap.Logger
}

func NewContactModule(mailer Mailer, log *zap.Logger) *ContactModule {
	return &ContactModule{mailer: mailer, log: log}
}

func (m *ContactModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/contact", m.submit)
	router.POST("/contact", m.submitForm)
}

type contactRequest struct {
	Name    string `json:"name" form:"name" binding:"required"`
	Email   string `json:"email" form:"email" binding:"required,email"`
	Message string `json:"message" form:"message" binding:"required"`
}

// submit handles the JSON API used by the landing page contact section.
// Nothing is persisted; the submission goes straight to the mailer.
func (m *ContactModule) submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.ValidationMessage(err))
		return
	}

	if err := m.mailer.SendContact(req.Name, req.Email, req.Message); err != nil {
		m.log.Error("contact email delivery failed", zap.Error(err))
		response.Message(c, http.StatusInternalServerError, "failed to send message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message sent"})
}

// submitForm is the no-JS fallback: a plain form post with a flash
// message on redirect.
func (m *ContactModule) submitForm(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "site_contact.html", gin.H{
			"error":   response.ValidationMessage(err),
			"name":    c.PostForm("name"),
			"email":   c.PostForm("email"),
			"message": c.PostForm("message"),
		})
		return
	}

	if err := m.mailer.SendContact(req.Name, req.Email, req.Message); err != nil {
		m.log.Error("contact email delivery failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "site_contact.html", gin.H{
			"error":   "failed to send message, please try again later",
			"name":    req.Name,
			"email":   req.Email,
			"message": req.Message,
		})
		return
	}

	session := sessions.Default(c)
	session.AddFlash("Thanks for reaching out! We'll get back to you soon.")
	session.Save()

	c.Redirect(http.StatusFound, "/contact")
}
