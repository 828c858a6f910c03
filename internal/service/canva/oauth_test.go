package canva

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"postdeck/internal/config"
	"postdeck/internal/models"
)

type fakeTokenStore struct {
	token   *models.CanvaToken
	upserts int
}

func (f *fakeTokenStore) Get(ctx context.Context) (*models.CanvaToken, error) {
	return f.token, nil
}

func (f *fakeTokenStore) Upsert(ctx context.Context, token *models.CanvaToken) error {
	f.token = token
	f.upserts++
	return nil
}

func newTestService(cfg config.CanvaConfig, store TokenStore) *Service {
	return NewService(&cfg, store, zap.NewNop())
}

func TestBeginAuthDerivesChallengeFromVerifier(t *testing.T) {
	svc := newTestService(config.CanvaConfig{
		ClientID:    "client-1",
		RedirectURI: "http://localhost:5620/api/v1/canva/callback",
		AuthURL:     "https://www.canva.com/api/oauth/authorize",
		Scopes:      "design:meta:read",
	}, &fakeTokenStore{})

	auth, err := svc.BeginAuth()
	if err != nil {
		t.Fatalf("begin auth: %v", err)
	}
	if auth.State == "" || auth.Verifier == "" {
		t.Fatalf("state and verifier must be populated")
	}

	parsed, err := url.Parse(auth.URL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := parsed.Query()

	if q.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected S256 method, got %q", q.Get("code_challenge_method"))
	}
	if q.Get("state") != auth.State {
		t.Fatalf("state in url does not match returned state")
	}

	sum := sha256.Sum256([]byte(auth.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if q.Get("code_challenge") != want {
		t.Fatalf("challenge %q is not S256(verifier)", q.Get("code_challenge"))
	}

	// Two flows never share state or verifier
	second, err := svc.BeginAuth()
	if err != nil {
		t.Fatalf("begin auth: %v", err)
	}
	if second.State == auth.State || second.Verifier == auth.Verifier {
		t.Fatalf("state/verifier must be fresh per flow")
	}
}

func TestCompleteAuthExchangesCodeAndUpserts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-1" || pass != "secret-1" {
			t.Errorf("missing or wrong basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" {
			t.Errorf("unexpected grant type %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("code") != "auth-code" || r.Form.Get("code_verifier") != "the-verifier" {
			t.Errorf("code/verifier not forwarded: %v", r.Form)
		}
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer srv.Close()

	store := &fakeTokenStore{}
	svc := newTestService(config.CanvaConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     srv.URL,
	}, store)

	if err := svc.CompleteAuth(context.Background(), "auth-code", "the-verifier"); err != nil {
		t.Fatalf("complete auth: %v", err)
	}

	if store.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", store.upserts)
	}
	if store.token.AccessToken != "at-1" || store.token.RefreshToken != "rt-1" {
		t.Fatalf("token pair not persisted: %+v", store.token)
	}
	if store.token.ExpiresAt == nil {
		t.Fatalf("expiry must be recorded when expires_in is present")
	}
}

func TestCompleteAuthFailureDoesNotUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	store := &fakeTokenStore{}
	svc := newTestService(config.CanvaConfig{TokenURL: srv.URL}, store)

	err := svc.CompleteAuth(context.Background(), "bad-code", "v")
	if err == nil {
		t.Fatalf("expected exchange failure")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("vendor status missing from error: %v", err)
	}
	if store.upserts != 0 {
		t.Fatalf("failed exchange must not touch the token record")
	}
}

func TestStatusIsIdempotentForLiveToken(t *testing.T) {
	future := time.Now().Add(time.Hour)
	store := &fakeTokenStore{token: &models.CanvaToken{AccessToken: "at", ExpiresAt: &future}}
	svc := newTestService(config.CanvaConfig{}, store)

	for i := 0; i < 2; i++ {
		status := svc.Status(context.Background())
		if !status.Connected || status.Expired {
			t.Fatalf("call %d: expected connected, got %+v", i+1, status)
		}
	}
	if store.upserts != 0 {
		t.Fatalf("status check mutated a live token record")
	}
}

func TestStatusRefreshesExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "rt-old" {
			t.Errorf("unexpected refresh form: %v", r.Form)
		}
		w.Write([]byte(`{"access_token":"at-new","expires_in":3600}`))
	}))
	defer srv.Close()

	past := time.Now().Add(-time.Minute)
	store := &fakeTokenStore{token: &models.CanvaToken{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    &past,
	}}
	svc := newTestService(config.CanvaConfig{TokenURL: srv.URL}, store)

	status := svc.Status(context.Background())
	if !status.Connected {
		t.Fatalf("expected connected after refresh, got %+v", status)
	}
	if store.token.AccessToken != "at-new" {
		t.Fatalf("refreshed access token not stored")
	}
	if store.token.RefreshToken != "rt-old" {
		t.Fatalf("missing refresh token in response must keep the previous one")
	}
}

func TestStatusExpiredWithoutRefreshToken(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	store := &fakeTokenStore{token: &models.CanvaToken{AccessToken: "at", ExpiresAt: &past}}
	svc := newTestService(config.CanvaConfig{}, store)

	status := svc.Status(context.Background())
	if status.Connected || !status.Expired {
		t.Fatalf("expected disconnected+expired, got %+v", status)
	}
}

func TestStatusDisconnectedWithoutToken(t *testing.T) {
	svc := newTestService(config.CanvaConfig{}, &fakeTokenStore{})
	if status := svc.Status(context.Background()); status.Connected {
		t.Fatalf("expected disconnected without a token record")
	}
}
