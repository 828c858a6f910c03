package canva

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"postdeck/internal/config"
	"postdeck/internal/models"
)

// TokenStore persists the singleton OAuth token record.
type TokenStore interface {
	Get(ctx context.Context) (*models.CanvaToken, error)
	Upsert(ctx context.Context, token *models.CanvaToken) error
}

// Service drives the Canva OAuth lifecycle and the design export flow.
type Service struct {
	config *config.CanvaConfig
	tokens TokenStore
	logger *zap.Logger
	client *http.Client

	pollInterval time.Duration
	pollAttempts int
}

func NewService(cfg *config.CanvaConfig, tokens TokenStore, logger *zap.Logger) *Service {
	return &Service{
		config: cfg,
		tokens: tokens,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: 2 * time.Second,
		pollAttempts: 15,
	}
}

type ConnectionStatus struct {
	Connected bool `json:"connected"`
	Expired   bool `json:"expired,omitempty"`
}

// Status reports whether a usable token exists. Expiry is detected lazily
// here; an expired token with a refresh token is refreshed transparently,
// and a live token is never mutated.
func (s *Service) Status(ctx context.Context) ConnectionStatus {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load canva token", zap.Error(err))
		return ConnectionStatus{Connected: false}
	}
	if token == nil {
		return ConnectionStatus{Connected: false}
	}

	if token.Expired(time.Now()) {
		if token.RefreshToken == "" {
			return ConnectionStatus{Connected: false, Expired: true}
		}
		if _, err := s.refresh(ctx, token); err != nil {
			s.logger.Warn("Canva token refresh failed", zap.Error(err))
			return ConnectionStatus{Connected: false, Expired: true}
		}
	}

	return ConnectionStatus{Connected: true}
}

// ensureAccessToken returns a live access token, refreshing on expiry.
// Data calls go through this so authorization problems surface as
// "not connected" instead of deep vendor 401s.
func (s *Service) ensureAccessToken(ctx context.Context) (string, error) {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		return "", err
	}
	if token == nil {
		return "", ErrNotConnected
	}

	if token.Expired(time.Now()) {
		if token.RefreshToken == "" {
			return "", ErrTokenExpired
		}
		refreshed, err := s.refresh(ctx, token)
		if err != nil {
			return "", ErrTokenExpired
		}
		return refreshed.AccessToken, nil
	}

	return token.AccessToken, nil
}
