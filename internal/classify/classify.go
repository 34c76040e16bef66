// Package classify assigns project, client, and category labels to activities.
package classify

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
)

// Category is the internal/external split derived from participant domains.
type Category string

const (
	CategoryInternal Category = "internal"
	CategoryExternal Category = "external"
)

// Classification is the label set attached to one activity.
type Classification struct {
	Project  string   `json:"project"`
	Client   string   `json:"client"`
	Category Category `json:"category"`
}

// KeywordRule maps a title keyword to a project/client pair. Rules are
// evaluated in declaration order; the first match wins.
type KeywordRule struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Project string `yaml:"project" json:"project"`
	Client  string `yaml:"client" json:"client"`
}

// DomainRule maps a participant domain to a project/client pair. Like keyword
// rules, order decides ties.
type DomainRule struct {
	Domain  string `yaml:"domain" json:"domain"`
	Project string `yaml:"project" json:"project"`
	Client  string `yaml:"client" json:"client"`
}

// Config holds the rule tables and fallbacks for a Classifier.
type Config struct {
	// TenantDomain is the tenant's own domain; activities whose sender and
	// participants all belong to it are categorized internal.
	TenantDomain string

	KeywordRules []KeywordRule
	DomainRules  []DomainRule

	// Defaults used when no rule matches.
	DefaultProject string
	DefaultClient  string
}

// Classifier performs deterministic, order-sensitive rule matching.
type Classifier struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a Classifier from the given config.
func New(cfg Config, logger zerolog.Logger) *Classifier {
	if cfg.DefaultProject == "" {
		cfg.DefaultProject = "General"
	}
	if cfg.DefaultClient == "" {
		cfg.DefaultClient = "Unassigned"
	}
	return &Classifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

// Classify returns the label set for a. Matching order: keyword rules against
// the title, then domain rules against sender and participants, then the
// configured defaults.
func (c *Classifier) Classify(a activity.Activity) Classification {
	cl := Classification{
		Project:  c.cfg.DefaultProject,
		Client:   c.cfg.DefaultClient,
		Category: c.category(a),
	}

	title := strings.ToLower(a.Title)
	for _, rule := range c.cfg.KeywordRules {
		if rule.Keyword == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(rule.Keyword)) {
			cl.Project = rule.Project
			cl.Client = rule.Client
			return cl
		}
	}

	for _, rule := range c.cfg.DomainRules {
		if c.matchesDomain(a, strings.ToLower(rule.Domain)) {
			cl.Project = rule.Project
			cl.Client = rule.Client
			return cl
		}
	}

	return cl
}

// category applies the canonical domain-match rule: internal only when the
// sender and every participant belong to the tenant domain.
func (c *Classifier) category(a activity.Activity) Category {
	if c.cfg.TenantDomain == "" {
		return CategoryExternal
	}
	tenant := strings.ToLower(c.cfg.TenantDomain)
	if a.SenderDomain() != tenant {
		return CategoryExternal
	}
	for _, p := range a.Participants {
		if activity.DomainOf(p) != tenant {
			return CategoryExternal
		}
	}
	return CategoryInternal
}

func (c *Classifier) matchesDomain(a activity.Activity, domain string) bool {
	if domain == "" {
		return false
	}
	if a.SenderDomain() == domain {
		return true
	}
	for _, p := range a.Participants {
		if activity.DomainOf(p) == domain {
			return true
		}
	}
	return false
}
