package canva

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"postdeck/internal/models"
)

var (
	ErrNotConnected = errors.New("canva is not connected")
	ErrTokenExpired = errors.New("canva token expired, re-authorization required")
)

// AuthRequest carries everything the handler needs to start the PKCE flow:
// the redirect URL plus the state and verifier it must stash in short-lived
// cookies for the callback.
type AuthRequest struct {
	URL      string
	State    string
	Verifier string
}

// BeginAuth generates a PKCE verifier, its S256 challenge and an
// anti-forgery state token, and builds the authorization URL.
func (s *Service) BeginAuth() (*AuthRequest, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(buf)

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	state := uuid.NewString()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.config.ClientID)
	q.Set("redirect_uri", s.config.RedirectURI)
	q.Set("scope", s.config.Scopes)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", state)

	return &AuthRequest{
		URL:      s.config.AuthURL + "?" + q.Encode(),
		State:    state,
		Verifier: verifier,
	}, nil
}

// CompleteAuth exchanges the authorization code plus the original verifier
// for a token pair and overwrites the singleton token record.
func (s *Service) CompleteAuth(ctx context.Context, code, verifier string) error {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("redirect_uri", s.config.RedirectURI)

	token, err := s.requestToken(ctx, form)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	if err := s.tokens.Upsert(ctx, token); err != nil {
		return err
	}

	s.logger.Info("Canva account connected")
	return nil
}

// refresh exchanges the refresh token for a fresh pair and updates the
// record. Callers treat a failure as "disconnected", never as fatal.
func (s *Service) refresh(ctx context.Context, current *models.CanvaToken) (*models.CanvaToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", current.RefreshToken)

	token, err := s.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	// Some responses omit the rotated refresh token; keep the old one.
	if token.RefreshToken == "" {
		token.RefreshToken = current.RefreshToken
	}

	if err := s.tokens.Upsert(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Info("Canva token refreshed")
	return token, nil
}

func (s *Service) requestToken(ctx context.Context, form url.Values) (*models.CanvaToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("canva token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("canva token endpoint returned no access token")
	}

	token := &models.CanvaToken{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
	}
	if parsed.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
		token.ExpiresAt = &expiresAt
	}

	return token, nil
}
