package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
)

const sessionTTL = 12 * time.Hour

// AuthService gates the dashboard behind a TOTP code. With no secret
// configured the gate is disabled (local development).
type AuthService struct {
	logger     *zap.Logger
	totpSecret string

	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewAuthService(logger *zap.Logger, totpSecret string) *AuthService {
	return &AuthService{
		logger:     logger,
		totpSecret: totpSecret,
		sessions:   make(map[string]time.Time),
	}
}

func (a *AuthService) Enabled() bool {
	return a.totpSecret != ""
}

// Login validates a TOTP code and returns a session token on success.
func (a *AuthService) Login(code string) (string, bool) {
	if !totp.Validate(code, a.totpSecret) {
		a.logger.Warn("TOTP validation failed")
		return "", false
	}

	token := uuid.NewString()

	a.mu.Lock()
	a.sessions[token] = time.Now().Add(sessionTTL)
	a.mu.Unlock()

	a.logger.Info("Operator logged in")
	return token, true
}

func (a *AuthService) isValidSession(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	expiry, ok := a.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(a.sessions, token)
		return false
	}
	return true
}

// AuthMiddleware checks the session cookie on every API request. The login
// endpoint and the Canva OAuth callback are exempt; the provider redirects
// the operator's browser there without our cookie context.
func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		switch c.Request.URL.Path {
		case "/api/v1/auth/login", "/api/v1/canva/callback":
			c.Next()
			return
		}

		token, err := c.Cookie("auth_token")
		if err != nil || !a.isValidSession(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
