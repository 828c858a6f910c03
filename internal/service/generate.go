package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"postdeck/internal/config"
	"postdeck/internal/models"
	"postdeck/internal/provider"
	"postdeck/internal/provider/gemini"
	"postdeck/internal/provider/openaicompat"
)

// DraftCreator is the slice of DraftService the coordinator needs.
type DraftCreator interface {
	Create(prompt string, outputs models.OutputMap) (*models.Draft, error)
}

// GenerateService fans one prompt out to every configured provider and
// records the settled results as a draft.
type GenerateService struct {
	providers []provider.Named
	drafts    DraftCreator
	logger    *zap.Logger
}

func NewGenerateService(providers []provider.Named, drafts DraftCreator, logger *zap.Logger) *GenerateService {
	return &GenerateService{
		providers: providers,
		drafts:    drafts,
		logger:    logger,
	}
}

// BuildProviders resolves provider configs into named clients. Unknown types
// are a configuration error, caught at startup rather than mid-request.
func BuildProviders(configs []config.ProviderConfig) ([]provider.Named, error) {
	var named []provider.Named
	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("provider with empty id")
		}

		var client provider.Provider
		switch cfg.Type {
		case "openai":
			client = openaicompat.New(openaicompat.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey})
		case "gemini":
			client = gemini.New(gemini.Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey})
		default:
			return nil, fmt.Errorf("unknown provider type %q for %s", cfg.Type, cfg.ID)
		}

		label := cfg.Label
		if label == "" {
			label = cfg.ID
		}

		named = append(named, provider.Named{
			ID:           cfg.ID,
			Label:        label,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Client:       client,
		})
	}
	return named, nil
}

// ErrorOutput renders a failed provider slot. The leading bracket is the
// contract downstream consumers use to mark a slot non-selectable.
func ErrorOutput(label, reason string) string {
	return fmt.Sprintf("[%s error: %s]", label, reason)
}

// IsErrorOutput reports whether a stored output is a failure placeholder
// rather than selectable content.
func IsErrorOutput(output string) bool {
	return strings.HasPrefix(output, "[")
}

// Generate calls every provider concurrently and waits for all of them to
// settle. A failed call never aborts the batch and no call cancels a
// sibling; the result always carries one slot per configured provider.
func (s *GenerateService) Generate(ctx context.Context, prompt string) (*models.Draft, error) {
	type settled struct {
		id    string
		label string
		text  string
		err   error
	}

	results := make(chan settled, len(s.providers))
	for _, p := range s.providers {
		go func(p provider.Named) {
			text, err := p.Client.Generate(ctx, provider.GenerateRequest{
				Model:        p.Model,
				SystemPrompt: p.SystemPrompt,
				Prompt:       prompt,
			})
			results <- settled{id: p.ID, label: p.Label, text: text, err: err}
		}(p)
	}

	outputs := make(models.OutputMap, len(s.providers))
	for range s.providers {
		r := <-results
		if r.err != nil {
			s.logger.Warn("Provider call failed",
				zap.String("provider", r.id),
				zap.Error(r.err))
			outputs[r.id] = ErrorOutput(r.label, r.err.Error())
			continue
		}
		outputs[r.id] = r.text
	}

	draft, err := s.drafts.Create(prompt, outputs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generation completed",
		zap.Uint("draft_id", draft.ID),
		zap.Int("providers", len(s.providers)))

	return draft, nil
}
