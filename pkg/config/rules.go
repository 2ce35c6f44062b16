package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules is the on-disk classification rules document. It overrides the
// environment-derived configuration where set.
type Rules struct {
	// MasterData names reference resources whose GET responses are
	// cacheable for the configured TTL.
	MasterData []string `yaml:"master_data" json:"master_data"`

	// Transactional names volatile resources that must never be cached.
	Transactional []string `yaml:"transactional" json:"transactional"`

	// AllowedOrigins extends the browser origin allowlist.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`

	// MasterDataTTLSeconds overrides the cacheable-response lifetime.
	MasterDataTTLSeconds int `yaml:"master_data_ttl_seconds" json:"master_data_ttl_seconds"`
}

// LoadRules reads and parses a rules file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules Rules
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing YAML rules: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing JSON rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &rules, nil
}

// Validate checks a rules document for correctness. A resource name listed
// in both sets would make every classification of it ambiguous, so it is
// rejected here rather than silently resolved at request time.
func (r *Rules) Validate() error {
	if r.MasterDataTTLSeconds < 0 {
		return fmt.Errorf("master_data_ttl_seconds must not be negative, got %d", r.MasterDataTTLSeconds)
	}

	transactional := make(map[string]struct{}, len(r.Transactional))
	for _, name := range r.Transactional {
		transactional[name] = struct{}{}
	}
	for _, name := range r.MasterData {
		if _, ok := transactional[name]; ok {
			return fmt.Errorf("resource %q listed as both master data and transactional", name)
		}
	}

	return nil
}

// Apply overlays the rules onto a Config. Only fields the document sets
// are overridden.
func (r *Rules) Apply(cfg *Config) {
	if len(r.MasterData) > 0 {
		cfg.MasterData = r.MasterData
	}
	if len(r.Transactional) > 0 {
		cfg.Transactional = r.Transactional
	}
	if len(r.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, r.AllowedOrigins...)
	}
	if r.MasterDataTTLSeconds > 0 {
		cfg.MasterDataTTL = time.Duration(r.MasterDataTTLSeconds) * time.Second
	}
}
