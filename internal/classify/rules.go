package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the on-disk representation of the rule tables. YAML sequences
// keep declaration order, which the matcher relies on.
type RulesFile struct {
	Keywords []KeywordRule `yaml:"keywords"`
	Domains  []DomainRule  `yaml:"domains"`

	DefaultProject string `yaml:"default_project"`
	DefaultClient  string `yaml:"default_client"`
}

// LoadRules reads a YAML rules file and merges it into cfg. File values win
// over the incoming defaults; rule tables are replaced, not appended.
func LoadRules(path string, cfg Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading rules file: %w", err)
	}

	var f RulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return cfg, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	if len(f.Keywords) > 0 {
		cfg.KeywordRules = f.Keywords
	}
	if len(f.Domains) > 0 {
		cfg.DomainRules = f.Domains
	}
	if f.DefaultProject != "" {
		cfg.DefaultProject = f.DefaultProject
	}
	if f.DefaultClient != "" {
		cfg.DefaultClient = f.DefaultClient
	}
	return cfg, nil
}
