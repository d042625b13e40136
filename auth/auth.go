package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"driftwood/models"
	"driftwood/response"
)

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore looks up admin credentials. The system seeds a single
// record, but nothing here assumes there is only one.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
}

type gormCredentialStore struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) CredentialStore {
	return &gormCredentialStore{db: db}
}

func (s *gormCredentialStore) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type AuthModule struct {
	creds  CredentialStore
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

func NewAuthModule(creds CredentialStore, secret string, ttl time.Duration, log *zap.Logger) *AuthModule {
	return &AuthModule{
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		log:    log,
	}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", a.login)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.ValidationMessage(err))
		return
	}

	user, err := a.creds.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, ErrCredentialNotFound) {
			a.log.Error("credential lookup failed", zap.Error(err))
		}
		response.Unauthorized(c, "invalid username or password")
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := a.issueToken(user.Username)
	if err != nil {
		a.log.Error("signing token failed", zap.Error(err))
		response.Internal(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *AuthModule) issueToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// RequireAuth guards the protected endpoints. Any valid token grants
// access; there is no per-resource authorization beyond this.
func (a *AuthModule) RequireAuth(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		response.Unauthorized(c, "missing bearer token")
		c.Abort()
		return
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		response.Unauthorized(c, "invalid or expired token")
		c.Abort()
		return
	}

	if sub, err := token.Claims.GetSubject(); err == nil {
		c.Set("username", sub)
	}
	c.Next()
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
