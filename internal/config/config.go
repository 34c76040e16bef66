// Package config loads engine configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// API server
	ListenAddr  string `envconfig:"TRACKD_LISTEN_ADDR" default:":8080"`
	AuthMode    string `envconfig:"TRACKD_AUTH_MODE" default:"api-key"`
	APIKey      string `envconfig:"TRACKD_API_KEY"`
	CORSOrigins string `envconfig:"TRACKD_CORS_ORIGINS"`

	// Storage
	DBPath string `envconfig:"TRACKD_DB_PATH" default:"trackd.db"`

	// Sync
	SyncInterval    time.Duration `envconfig:"TRACKD_SYNC_INTERVAL" default:"5m"`
	DefaultLookback time.Duration `envconfig:"TRACKD_DEFAULT_LOOKBACK" default:"24h"`
	AutoSyncOnBoot  bool          `envconfig:"TRACKD_AUTO_SYNC" default:"false"`

	// Inclusion filters
	MinDurationMinutes int    `envconfig:"TRACKD_MIN_DURATION_MINUTES" default:"1"`
	ExcludePatterns    string `envconfig:"TRACKD_EXCLUDE_PATTERNS"` // comma-separated title substrings
	DisabledSources    string `envconfig:"TRACKD_DISABLED_SOURCES"` // comma-separated source kinds

	// Classification
	TenantDomain   string `envconfig:"TRACKD_TENANT_DOMAIN"`
	ClientDomains  string `envconfig:"TRACKD_CLIENT_DOMAINS"` // comma-separated known client domains
	DefaultProject string `envconfig:"TRACKD_DEFAULT_PROJECT" default:"General"`
	DefaultClient  string `envconfig:"TRACKD_DEFAULT_CLIENT" default:"Unassigned"`
	RulesPath      string `envconfig:"TRACKD_RULES_PATH"` // YAML rules file (optional)

	// Review policy defaults (adjustable at runtime through the API)
	PolicyAutoApprove         bool    `envconfig:"TRACKD_POLICY_AUTO_APPROVE" default:"false"`
	PolicyConfidenceThreshold float64 `envconfig:"TRACKD_POLICY_CONFIDENCE_THRESHOLD" default:"0.8"`
	PolicyRequireApproval     bool    `envconfig:"TRACKD_POLICY_REQUIRE_APPROVAL" default:"false"`

	// Entry building
	BillableConfidence float64 `envconfig:"TRACKD_BILLABLE_CONFIDENCE" default:"0.7"`

	// Slack notifications (optional — pending entries only)
	SlackBotToken string `envconfig:"TRACKD_SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"TRACKD_SLACK_CHANNEL"`
}

// SlackEnabled returns true if Slack notification settings are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// ClientDomainList returns the parsed list of known client domains.
func (c *Config) ClientDomainList() []string {
	return splitList(c.ClientDomains)
}

// ExcludePatternList returns the parsed list of title exclude patterns.
func (c *Config) ExcludePatternList() []string {
	return splitList(c.ExcludePatterns)
}

// DisabledSourceList returns the parsed list of disabled source kinds.
func (c *Config) DisabledSourceList() []string {
	return splitList(c.DisabledSources)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.AuthMode == "api-key" && c.APIKey == "" {
		return fmt.Errorf("auth mode %q requires TRACKD_API_KEY (or set TRACKD_AUTH_MODE=none)", c.AuthMode)
	}
	if c.PolicyConfidenceThreshold < 0 || c.PolicyConfidenceThreshold > 1 {
		return fmt.Errorf("policy confidence threshold must be in [0,1], got %v", c.PolicyConfidenceThreshold)
	}
	if c.BillableConfidence < 0 || c.BillableConfidence > 1 {
		return fmt.Errorf("billable confidence must be in [0,1], got %v", c.BillableConfidence)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %v", c.SyncInterval)
	}
	if c.DefaultLookback <= 0 {
		return fmt.Errorf("default lookback must be positive, got %v", c.DefaultLookback)
	}
	if c.MinDurationMinutes < 0 {
		return fmt.Errorf("minimum duration must not be negative, got %d", c.MinDurationMinutes)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
