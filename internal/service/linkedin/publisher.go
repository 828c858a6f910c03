package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"postdeck/internal/config"
)

// ErrPublishDisabled is the kill-switch rejection; no network call has been
// made when it is returned.
var ErrPublishDisabled = errors.New("publishing is disabled")

// DraftStore records the publish outcome on the originating draft.
type DraftStore interface {
	SetPublishResult(id uint, selectedModel, finalText, imageURL, postID string, published bool) error
}

type Publisher struct {
	config *config.LinkedInConfig
	drafts DraftStore
	logger *zap.Logger
	client *http.Client
}

func NewPublisher(cfg *config.LinkedInConfig, drafts DraftStore, logger *zap.Logger) *Publisher {
	return &Publisher{
		config: cfg,
		drafts: drafts,
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type PublishRequest struct {
	DraftID  uint
	Provider string
	Text     string
	ImageURL string
}

type PublishResult struct {
	PostID  string `json:"post_id"`
	DryRun  bool   `json:"dry_run"`
	Message string `json:"message"`
}

// Publish sanitizes the text, optionally uploads the image, submits the
// post, and records the outcome on the draft. Without live credentials it
// runs in dry-run mode: the draft is updated as if published, but no
// outbound call happens and the published flag stays false.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if !p.config.PublishEnabled {
		return nil, ErrPublishDisabled
	}

	text := StripMarkup(req.Text)
	dryRun := p.isDryRun()

	var postID string
	if dryRun {
		postID = "dry-run-" + uuid.NewString()
		p.logger.Info("LinkedIn credentials not configured, running dry-run publish",
			zap.Uint("draft_id", req.DraftID))
	} else {
		var assetURN string
		if req.ImageURL != "" {
			urn, err := p.uploadImage(ctx, req.ImageURL)
			if err != nil {
				// Deliberate: an image failure aborts the whole publish,
				// never a silent text-only post.
				return nil, fmt.Errorf("image upload failed: %w", err)
			}
			assetURN = urn
		}

		var err error
		postID, err = p.createPost(ctx, text, assetURN)
		if err != nil {
			return nil, fmt.Errorf("post submission failed: %w", err)
		}
	}

	published := !dryRun
	if err := p.drafts.SetPublishResult(req.DraftID, req.Provider, text, req.ImageURL, postID, published); err != nil {
		return nil, err
	}

	message := "Post published to LinkedIn"
	if dryRun {
		message = "Dry run: LinkedIn credentials not configured, no post was created"
	}

	p.logger.Info("Publish completed",
		zap.Uint("draft_id", req.DraftID),
		zap.String("post_id", postID),
		zap.Bool("dry_run", dryRun))

	return &PublishResult{
		PostID:  postID,
		DryRun:  dryRun,
		Message: message,
	}, nil
}

// isDryRun reports whether the configured credentials are absent or still
// the sample placeholders.
func (p *Publisher) isDryRun() bool {
	token := strings.TrimSpace(p.config.AccessToken)
	author := strings.TrimSpace(p.config.AuthorURN)
	if token == "" || author == "" {
		return true
	}

	switch strings.ToLower(token) {
	case "your-linkedin-access-token", "changeme":
		return true
	}
	return false
}

// uploadImage downloads the asset bytes, registers an upload with LinkedIn
// and PUTs the bytes to the returned upload URL. Returns the asset URN to
// reference from the post.
func (p *Publisher) uploadImage(ctx context.Context, imageURL string) (string, error) {
	data, err := p.downloadImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	uploadURL, assetURN, err := p.registerUpload(ctx)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+p.config.AccessToken)

	resp, err := p.client.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("failed to upload image bytes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("image upload returned status %d: %s", resp.StatusCode, string(body))
	}

	return assetURN, nil
}

func (p *Publisher) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read image bytes: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned no data")
	}

	return data, nil
}

func (p *Publisher) registerUpload(ctx context.Context) (uploadURL, assetURN string, err error) {
	body, err := json.Marshal(map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   p.config.AuthorURN,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIBaseURL+"/assets?action=registerUpload", bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("linkedin API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}

	mechanism, ok := parsed.Value.UploadMechanism["com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"]
	if !ok || mechanism.UploadURL == "" || parsed.Value.Asset == "" {
		return "", "", fmt.Errorf("register upload response missing upload url or asset")
	}

	return mechanism.UploadURL, parsed.Value.Asset, nil
}

func (p *Publisher) createPost(ctx context.Context, text, assetURN string) (string, error) {
	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": text},
		"shareMediaCategory": "NONE",
	}
	if assetURN != "" {
		shareContent["shareMediaCategory"] = "IMAGE"
		shareContent["media"] = []map[string]any{
			{
				"status": "READY",
				"media":  assetURN,
			},
		}
	}

	body, err := json.Marshal(map[string]any{
		"author":         p.config.AuthorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIBaseURL+"/ugcPosts", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("linkedin API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// Post id lives in the x-restli-id header; older responses carry it in
	// the body instead.
	if postID := resp.Header.Get("x-restli-id"); postID != "" {
		return postID, nil
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.ID != "" {
		return parsed.ID, nil
	}

	return "", fmt.Errorf("post created but no post id in response")
}
