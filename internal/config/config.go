package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"postdeck/pkg/logger"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Logger    logger.Config    `yaml:"logger"`
	Auth      AuthConfig       `yaml:"auth"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Providers []ProviderConfig `yaml:"providers"`
	Canva     CanvaConfig      `yaml:"canva"`
	LinkedIn  LinkedInConfig   `yaml:"linkedin"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type AuthConfig struct {
	TOTPSecret string `yaml:"totp_secret"`
}

type RateLimitConfig struct {
	Window string `yaml:"window"`
	Limit  int    `yaml:"limit"`
}

// ProviderConfig describes one LLM backend. Type selects the wire shape:
// "openai" for any chat-completions compatible API, "gemini" for Google's
// generateContent API.
type ProviderConfig struct {
	ID           string `yaml:"id"`
	Label        string `yaml:"label"`
	Type         string `yaml:"type"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

type CanvaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
	Scopes       string `yaml:"scopes"`
}

type LinkedInConfig struct {
	AccessToken    string `yaml:"access_token"`
	AuthorURN      string `yaml:"author_urn"`
	APIBaseURL     string `yaml:"api_base_url"`
	PublishEnabled bool   `yaml:"publish_enabled"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5620
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.RateLimit.Window == "" {
		cfg.RateLimit.Window = "60s"
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 10
	}
	if cfg.Canva.AuthURL == "" {
		cfg.Canva.AuthURL = "https://www.canva.com/api/oauth/authorize"
	}
	if cfg.Canva.TokenURL == "" {
		cfg.Canva.TokenURL = "https://api.canva.com/rest/v1/oauth/token"
	}
	if cfg.Canva.APIBaseURL == "" {
		cfg.Canva.APIBaseURL = "https://api.canva.com/rest/v1"
	}
	if cfg.Canva.Scopes == "" {
		cfg.Canva.Scopes = "design:meta:read design:content:read asset:read"
	}
	if cfg.LinkedIn.APIBaseURL == "" {
		cfg.LinkedIn.APIBaseURL = "https://api.linkedin.com/v2"
	}

	return cfg, nil
}
