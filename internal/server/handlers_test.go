package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postdeck/internal/config"
	"postdeck/internal/models"
	"postdeck/internal/service"
	"postdeck/internal/service/canva"
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

func newCallbackTestServer(t *testing.T, store canva.TokenStore) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	srv := &Server{
		Config:       &config.Config{},
		Router:       gin.New(),
		Logger:       logger,
		AuthService:  service.NewAuthService(logger, ""),
		CanvaService: canva.NewService(&config.CanvaConfig{TokenURL: "http://127.0.0.1:0"}, store, logger),
	}
	srv.setupRoutes()
	return srv
}

func TestCanvaCallbackStateMismatch(t *testing.T) {
	store := &fakeTokenStore{}
	srv := newCallbackTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/canva/callback?code=abc&state=attacker", nil)
	req.AddCookie(&http.Cookie{Name: "canva_oauth_state", Value: "legit"})
	req.AddCookie(&http.Cookie{Name: "canva_code_verifier", Value: "verifier"})

	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "canva_error=invalid_state") {
		t.Fatalf("expected invalid_state flag, got %q", loc)
	}
	if store.upserts != 0 {
		t.Fatalf("state mismatch must not create or update the token record")
	}
}

func TestCanvaCallbackMissingParams(t *testing.T) {
	store := &fakeTokenStore{}
	srv := newCallbackTestServer(t, store)

	// No code, no cookies
	req := httptest.NewRequest(http.MethodGet, "/api/v1/canva/callback?state=x", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "canva_error=missing_params") {
		t.Fatalf("expected missing_params flag, got %q", loc)
	}
	if store.upserts != 0 {
		t.Fatalf("incomplete callback must not touch the token record")
	}
}

func TestCanvaCallbackProviderError(t *testing.T) {
	srv := newCallbackTestServer(t, &fakeTokenStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/canva/callback?error=access_denied", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "canva_error=access_denied") {
		t.Fatalf("expected provider error to be forwarded, got %q", loc)
	}
}
