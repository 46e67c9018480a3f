package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted by AUTH_PROVIDER
const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"
)

// Config holds the application configuration
type Config struct {
	ServerAddress  string
	Environment    string
	LogLevel       string
	DatabasePath   string
	SiteConfigPath string
	Site           SiteConfig
	Provider       ProviderConfig
	Cookie         CookieConfig
	Cleanup        CleanupConfig
}

// ProviderConfig selects and configures the auth provider
type ProviderConfig struct {
	Name    string
	Timeout time.Duration

	// Supabase
	URL     string
	AnonKey string

	// Local
	TokenSecret string
	TokenTTL    time.Duration
}

// CookieConfig holds session cookie settings
type CookieConfig struct {
	Name    string
	Secrets []string // first secret signs, all of them verify
	Domain  string
	Secure  bool
}

// CleanupConfig holds the expired session purge schedule (local provider only)
type CleanupConfig struct {
	Schedule string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	timeout, err := getDuration("PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getDuration("LOCAL_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/starterkit.db"),
		SiteConfigPath: os.Getenv("SITE_CONFIG"),
		Provider: ProviderConfig{
			Name:        strings.ToLower(getEnv("AUTH_PROVIDER", ProviderSupabase)),
			Timeout:     timeout,
			URL:         strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			AnonKey:     os.Getenv("SUPABASE_ANON_KEY"),
			TokenSecret: os.Getenv("LOCAL_TOKEN_SECRET"),
			TokenTTL:    tokenTTL,
		},
		Cookie: CookieConfig{
			Name:    getEnv("COOKIE_NAME", "sb_token"),
			Secrets: parseCommaSeparatedList(os.Getenv("COOKIE_SECRETS")),
			Domain:  os.Getenv("COOKIE_DOMAIN"),
			Secure:  getEnv("COOKIE_SECURE", "false") == "true",
		},
		Cleanup: CleanupConfig{
			Schedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@every 15m"),
		},
	}

	site, err := LoadSite(cfg.SiteConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Site = *site

	return cfg, nil
}

// Validate checks the selected provider has everything it needs
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider.Name {
	case ProviderSupabase:
		if c.Provider.URL == "" {
			errs = append(errs, errors.New("SUPABASE_URL is required for the supabase provider"))
		}
		if c.Provider.AnonKey == "" {
			errs = append(errs, errors.New("SUPABASE_ANON_KEY is required for the supabase provider"))
		}
	case ProviderLocal:
		if c.Provider.TokenSecret == "" {
			errs = append(errs, errors.New("LOCAL_TOKEN_SECRET is required for the local provider"))
		}
		if c.Provider.TokenTTL <= 0 {
			errs = append(errs, errors.New("LOCAL_TOKEN_TTL must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.Provider.Name))
	}

	if c.Cookie.Name == "" {
		errs = append(errs, errors.New("COOKIE_NAME cannot be empty"))
	}
	if c.Environment == "production" && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SECURE must be true in production"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
