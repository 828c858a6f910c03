package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"postdeck/internal/service"
	"postdeck/internal/service/canva"
	"postdeck/internal/service/linkedin"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, ok := s.AuthService.Login(req.Code)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		return
	}

	c.SetCookie("auth_token", token, 43200, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt must be between 1 and 2000 characters"})
		return
	}

	allowed, remaining := s.RateLimiter.Admit(c.ClientIP())
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     "Rate limit exceeded, try again later",
			"remaining": 0,
		})
		return
	}

	draft, err := s.GenerateService.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		s.Logger.Error("Failed to generate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate"})
		return
	}

	// One key per configured provider, error placeholders included.
	resp := gin.H{"id": draft.ID, "remaining": remaining}
	for providerID, output := range draft.Outputs {
		resp[providerID] = output
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePublish(c *gin.Context) {
	var req struct {
		DraftID       uint   `json:"draft_id" binding:"required"`
		SelectedModel string `json:"selected_model" binding:"required"`
		Text          string `json:"text" binding:"required,min=1,max=3000"`
		ImageURL      string `json:"image_url" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid publish request"})
		return
	}

	draft, err := s.DraftService.Get(req.DraftID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return
	}

	// The client rejects error placeholders too, but never trust it.
	output, ok := draft.Outputs[req.SelectedModel]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider for this draft"})
		return
	}
	if service.IsErrorOutput(output) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Selected provider failed, pick another response"})
		return
	}

	result, err := s.Publisher.Publish(c.Request.Context(), linkedin.PublishRequest{
		DraftID:  req.DraftID,
		Provider: req.SelectedModel,
		Text:     req.Text,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, linkedin.ErrPublishDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("Failed to publish", zap.Uint("draft_id", req.DraftID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"linkedin_post_id": result.PostID,
		"dry_run":          result.DryRun,
		"message":          result.Message,
	})
}

func (s *Server) handleListDrafts(c *gin.Context) {
	drafts, err := s.DraftService.List(50)
	if err != nil {
		s.Logger.Error("Failed to list drafts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list drafts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

func (s *Server) handleGetDraft(c *gin.Context) {
	var uri struct {
		ID uint `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draft id"})
		return
	}

	draft, err := s.DraftService.Get(uri.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (s *Server) handleCanvaStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.CanvaService.Status(c.Request.Context()))
}

func (s *Server) handleCanvaAuth(c *gin.Context) {
	auth, err := s.CanvaService.BeginAuth()
	if err != nil {
		s.Logger.Error("Failed to begin canva auth", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start authorization"})
		return
	}

	// Short-lived PKCE cookies, cleared again by the callback.
	c.SetCookie("canva_oauth_state", auth.State, 600, "/", "", false, true)
	c.SetCookie("canva_code_verifier", auth.Verifier, 600, "/", "", false, true)

	c.Redirect(http.StatusFound, auth.URL)
}

func (s *Server) handleCanvaCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		s.Logger.Warn("Canva authorization denied", zap.String("error", errParam))
		c.Redirect(http.StatusFound, "/?canva_error="+errParam)
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	storedState, stateErr := c.Cookie("canva_oauth_state")
	verifier, verifierErr := c.Cookie("canva_code_verifier")

	if code == "" || state == "" || stateErr != nil || verifierErr != nil {
		c.Redirect(http.StatusFound, "/?canva_error=missing_params")
		return
	}
	if state != storedState {
		s.Logger.Warn("Canva callback state mismatch")
		c.Redirect(http.StatusFound, "/?canva_error=invalid_state")
		return
	}

	c.SetCookie("canva_oauth_state", "", -1, "/", "", false, true)
	c.SetCookie("canva_code_verifier", "", -1, "/", "", false, true)

	if err := s.CanvaService.CompleteAuth(c.Request.Context(), code, verifier); err != nil {
		s.Logger.Error("Canva token exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/?canva_error=token_exchange")
		return
	}

	c.Redirect(http.StatusFound, "/?canva_connected=1")
}

func (s *Server) handleCanvaDesigns(c *gin.Context) {
	designs, continuation, err := s.CanvaService.ListDesigns(c.Request.Context(), c.Query("continuation"))
	if err != nil {
		if errors.Is(err, canva.ErrNotConnected) || errors.Is(err, canva.ErrTokenExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("Failed to list canva designs", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to list designs"})
		return
	}

	resp := gin.H{"items": designs}
	if continuation != "" {
		resp["continuation"] = continuation
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCanvaExport(c *gin.Context) {
	var req struct {
		DesignID string `json:"design_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "design_id is required"})
		return
	}

	assetURL, err := s.CanvaService.ExportDesign(c.Request.Context(), req.DesignID)
	if err != nil {
		switch {
		case errors.Is(err, canva.ErrNotConnected) || errors.Is(err, canva.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, canva.ErrExportTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		default:
			s.Logger.Error("Canva export failed", zap.String("design_id", req.DesignID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "image_url": assetURL})
}
