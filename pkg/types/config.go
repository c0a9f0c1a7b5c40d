package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// PureConfig holds settings for the upstream research-information API.
type PureConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root (e.g. "https://vbn.aau.dk/ws/api/524").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates every request. Required.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// ProjectsPath is the listing endpoint relative to BaseURL.
	ProjectsPath string `json:"projects_path" yaml:"projects_path" mapstructure:"projects_path"`

	// PageSize is the number of records requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// PageDelay is the minimum interval between page requests (default 500ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// LookupDelay is the minimum interval between organization/person
	// lookups (default 200ms). Cache hits are not delayed.
	LookupDelay time.Duration `json:"lookup_delay" yaml:"lookup_delay" mapstructure:"lookup_delay"`

	// MaxRetries bounds retries of transient failures (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// GeocodeConfig holds settings for the optional geocoding stage.
type GeocodeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled turns geocoding on. When off, only coordinates already attached
	// to an organization's address are used.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL is the search endpoint of a Nominatim-compatible service.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Delay is the minimum interval between geocoding calls (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// EnrichConfig holds settings for deriving output records.
type EnrichConfig struct {
	// Locales is the text precedence (default ["en", "da"]).
	Locales []string `json:"locales" yaml:"locales" mapstructure:"locales"`

	// ProjectURLBase prefixes the project identifier when a record has no
	// portal URL of its own.
	ProjectURLBase string `json:"project_url_base" yaml:"project_url_base" mapstructure:"project_url_base"`

	// PersonURLBase prefixes a supervisor's profile identifier.
	PersonURLBase string `json:"person_url_base" yaml:"person_url_base" mapstructure:"person_url_base"`
}

// OutputConfig holds settings for the published artifacts.
type OutputConfig struct {
	// Dir is the directory receiving projects.json, organizations.json and
	// metadata.json.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Version is the artifact version tag (default "1.0.0").
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// PartnerLimit caps the ranked partner facet; 0 keeps every partner.
	PartnerLimit int `json:"partner_limit" yaml:"partner_limit" mapstructure:"partner_limit"`
}

// LedgerConfig holds settings for the run history database.
type LedgerConfig struct {
	// Path is the SQLite file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// SyncConfig groups all stage configurations for one sync run.
type SyncConfig struct {
	Pure    PureConfig    `json:"pure" yaml:"pure" mapstructure:"pure"`
	Geocode GeocodeConfig `json:"geocode" yaml:"geocode" mapstructure:"geocode"`
	Enrich  EnrichConfig  `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger" mapstructure:"ledger"`

	// Workers is the enrichment concurrency degree (default 1: sequential).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ProgressEvery is how many records pass between progress log lines.
	ProgressEvery int `json:"progress_every" yaml:"progress_every" mapstructure:"progress_every"`
}
