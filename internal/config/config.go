// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config maps viper settings onto types.SyncConfig. Values come from
// thesis-sync.yaml, THESIS_SYNC_* environment variables, the legacy
// PURE_API_KEY / PURE_API_BASE_URL / DATA_DIR variables and the .secrets/
// directory, in that order of increasing precedence except secrets, which
// only fill an API key nothing else provided.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/thesis-sync/internal/secrets"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

// EnvPrefix prefixes every automatically bound environment variable.
const EnvPrefix = "THESIS_SYNC"

// ErrMissingAPIKey is returned when no upstream API key is configured.
var ErrMissingAPIKey = errors.New("upstream API key is required (set PURE_API_KEY or .secrets/pure-api-key)")

// ErrInvalid wraps every other validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Defaults keyed by viper path.
var defaults = map[string]any{
	"pure.base_url":      "https://vbn.aau.dk/ws/api/524",
	"pure.projects_path": "student-theses",
	"pure.page_size":     100,
	"pure.page_delay":    500 * time.Millisecond,
	"pure.lookup_delay":  200 * time.Millisecond,
	"pure.max_retries":   5,
	"pure.timeout":       30 * time.Second,
	"pure.user_agent":    "thesis-sync/1.0",

	"geocode.enabled":    true,
	"geocode.base_url":   "https://nominatim.openstreetmap.org/search",
	"geocode.delay":      time.Second,
	"geocode.timeout":    30 * time.Second,
	"geocode.user_agent": "AAU-Student-Project-Portal/1.0",

	"enrich.locales":          []string{"en", "da"},
	"enrich.project_url_base": "https://vbn.aau.dk/en/studentthesis",
	"enrich.person_url_base":  "https://vbn.aau.dk/da/persons",

	"output.dir":           "data",
	"output.version":       "1.0.0",
	"output.partner_limit": 100,

	"ledger.path": ".thesis-sync/history.db",

	"workers":        1,
	"progress_every": 25,
}

// legacyEnv binds the environment names used by earlier sync scripts.
var legacyEnv = map[string]string{
	"pure.api_key":  "PURE_API_KEY",
	"pure.base_url": "PURE_API_BASE_URL",
	"output.dir":    "DATA_DIR",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// ApplySecrets fills the API key from the secrets map when no other source
// set one.
func ApplySecrets(v *viper.Viper, s map[string]string) {
	if v.GetString("pure.api_key") != "" {
		return
	}
	if key := s[secrets.PureAPIKey]; key != "" {
		v.Set("pure.api_key", key)
	}
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (types.SyncConfig, error) {
	var cfg types.SyncConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Pure.APIKey = strings.TrimSpace(cfg.Pure.APIKey)
	return cfg, Validate(cfg)
}

// Validate checks cfg for values the pipeline cannot run with.
func Validate(cfg types.SyncConfig) error {
	if cfg.Pure.APIKey == "" {
		return ErrMissingAPIKey
	}

	var problems []string
	if err := checkURL(cfg.Pure.BaseURL); err != nil {
		problems = append(problems, "pure.base_url: "+err.Error())
	}
	if cfg.Pure.PageSize <= 0 {
		problems = append(problems, fmt.Sprintf("pure.page_size must be positive, got %d", cfg.Pure.PageSize))
	}
	if cfg.Pure.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("pure.max_retries must not be negative, got %d", cfg.Pure.MaxRetries))
	}
	if cfg.Pure.PageDelay < 0 || cfg.Pure.LookupDelay < 0 || cfg.Geocode.Delay < 0 {
		problems = append(problems, "delays must not be negative")
	}
	if cfg.Geocode.Enabled {
		if err := checkURL(cfg.Geocode.BaseURL); err != nil {
			problems = append(problems, "geocode.base_url: "+err.Error())
		}
		if strings.TrimSpace(cfg.Geocode.UserAgent) == "" {
			problems = append(problems, "geocode.user_agent is required when geocoding is enabled")
		}
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		problems = append(problems, "output.dir is required")
	}
	if cfg.Output.PartnerLimit < 0 {
		problems = append(problems, fmt.Sprintf("output.partner_limit must not be negative, got %d", cfg.Output.PartnerLimit))
	}
	if cfg.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1, got %d", cfg.Workers))
	}
	if cfg.ProgressEvery < 0 {
		problems = append(problems, fmt.Sprintf("progress_every must not be negative, got %d", cfg.ProgressEvery))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
