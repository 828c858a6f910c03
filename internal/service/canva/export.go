package canva

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

var (
	ErrExportFailed  = errors.New("canva export job failed")
	ErrExportTimeout = errors.New("canva export timed out")
)

// Design is one entry from the operator's design list.
type Design struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ListDesigns fetches one page of the operator's designs, following Canva's
// continuation-cursor pagination.
func (s *Service) ListDesigns(ctx context.Context, continuation string) ([]Design, string, error) {
	accessToken, err := s.ensureAccessToken(ctx)
	if err != nil {
		return nil, "", err
	}

	endpoint := s.config.APIBaseURL + "/designs"
	if continuation != "" {
		endpoint += "?continuation=" + url.QueryEscape(continuation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("canva API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Items []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Thumbnail struct {
				URL string `json:"url"`
			} `json:"thumbnail"`
		} `json:"items"`
		Continuation string `json:"continuation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	designs := make([]Design, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		designs = append(designs, Design{
			ID:           item.ID,
			Title:        item.Title,
			ThumbnailURL: item.Thumbnail.URL,
		})
	}

	return designs, parsed.Continuation, nil
}

type exportJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result struct {
		URLs []string `json:"urls"`
	} `json:"result"`
	URLs  []string `json:"urls"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExportDesign submits a PNG export job and polls it to a terminal state,
// blocking the caller for the bounded polling window. A poll attempt that
// fails transiently is skipped, not fatal; only the submit step aborts
// immediately.
func (s *Service) ExportDesign(ctx context.Context, designID string) (string, error) {
	accessToken, err := s.ensureAccessToken(ctx)
	if err != nil {
		return "", err
	}

	job, err := s.submitExport(ctx, accessToken, designID)
	if err != nil {
		return "", fmt.Errorf("failed to create export job: %w", err)
	}

	s.logger.Info("Canva export job created",
		zap.String("design_id", designID),
		zap.String("job_id", job.ID))

	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}

		polled, err := s.exportStatus(ctx, accessToken, job.ID)
		if err != nil {
			s.logger.Warn("Export status poll failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		switch polled.Status {
		case "success":
			assetURL := extractAssetURL(polled)
			if assetURL == "" {
				return "", fmt.Errorf("export succeeded but no asset url in response")
			}
			return assetURL, nil
		case "failed":
			if polled.Error.Message != "" {
				return "", fmt.Errorf("%w: %s", ErrExportFailed, polled.Error.Message)
			}
			return "", ErrExportFailed
		}
	}

	return "", ErrExportTimeout
}

func (s *Service) submitExport(ctx context.Context, accessToken, designID string) (*exportJob, error) {
	body, err := json.Marshal(map[string]any{
		"design_id": designID,
		"format":    map[string]string{"type": "png"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/exports", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("canva API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Job exportJob `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Job.ID == "" {
		return nil, fmt.Errorf("canva API returned no job id")
	}

	return &parsed.Job, nil
}

func (s *Service) exportStatus(ctx context.Context, accessToken, jobID string) (*exportJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/exports/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("canva API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Job exportJob `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed.Job, nil
}

// extractAssetURL tolerates the response-shape variance between API
// versions: result.urls first, then a top-level urls list.
func extractAssetURL(job *exportJob) string {
	if len(job.Result.URLs) > 0 {
		return job.Result.URLs[0]
	}
	if len(job.URLs) > 0 {
		return job.URLs[0]
	}
	return ""
}
