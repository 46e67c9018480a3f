package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds the page metadata rendered by the page shell
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Tagline     string `yaml:"tagline"`
	RepoURL     string `yaml:"repo_url"`
}

// DefaultSite is used when no site file is configured
func DefaultSite() SiteConfig {
	return SiteConfig{
		Title:       "Starter Kit",
		Description: "Welcome to Starter Kit",
		Tagline:     "Sign in or create an account to continue.",
	}
}

// LoadSite reads a YAML site file; missing keys keep their defaults
func LoadSite(path string) (*SiteConfig, error) {
	site := DefaultSite()
	if path == "" {
		return &site, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	if err := yaml.Unmarshal(content, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site config: %w", err)
	}

	return &site, nil
}

// AuthPageTitle is the document title of the sign-in page
func (s SiteConfig) AuthPageTitle() string {
	return s.Title + " - Sign In or Sign Up"
}
