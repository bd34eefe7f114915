// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScorerMode selects the similarity-scoring backend.
type ScorerMode string

const (
	ModeBaseline ScorerMode = "baseline"
	ModeFS       ScorerMode = "fs"
)

// Thresholds holds the dual-threshold three-way decision policy: scores
// at or above Accept merge, scores at or below Reject create a new
// profile, and anything in between routes to review.
type Thresholds struct {
	Accept float64 `json:"accept_threshold" yaml:"accept_threshold"`
	Reject float64 `json:"reject_threshold" yaml:"reject_threshold"`
}

// DefaultThresholds returns the default policy for mode. The baseline
// backend scores in [0,1]; Fellegi-Sunter scores are unbounded
// log-likelihood sums, so its defaults sit symmetrically around zero.
func DefaultThresholds(mode ScorerMode) Thresholds {
	if mode == ModeFS {
		return Thresholds{Accept: 3.0, Reject: -3.0}
	}
	return Thresholds{Accept: 0.90, Reject: 0.20}
}

// RunConfig is the single immutable configuration struct for a run. The
// CLI flag surface collapses into this one value; nothing downstream
// reads flags or environment directly.
type RunConfig struct {
	// Mode selects the scorer backend: "baseline" or "fs".
	Mode ScorerMode `json:"mode" yaml:"mode"`

	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`

	// TitleThreshold is the Damerau-Levenshtein ratio cutoff for fuzzy
	// title dedup. Default 0.95.
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// Seed drives every seeded RNG, the run clock, and the deterministic
	// author_id namespace. Default 42.
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxWorkers bounds the fetch-worker pool.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// MUTablePath points at the Fellegi-Sunter m/u parameter table.
	// Required when Mode is "fs".
	MUTablePath string `json:"mu_table_path,omitempty" yaml:"mu_table_path,omitempty"`

	// RedactionSalt is concatenated with mention names before hashing for
	// the trace log. Loaded as a secret, never logged or serialized.
	RedactionSalt string `json:"-" yaml:"-"`

	// Limit caps the number of publications ingested; zero means no limit.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Language is reserved for locale-sensitive normalization. The
	// normalizers are locale-independent and nothing reads this field; it
	// reaches the run manifest only as part of config_hash.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// RunID labels this run in the trace and manifest. If empty the
	// driver mints one.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
}

// DefaultRunConfig returns a RunConfig with every default set.
func DefaultRunConfig() RunConfig {
	mode := ModeBaseline
	return RunConfig{
		Mode:           mode,
		Thresholds:     DefaultThresholds(mode),
		TitleThreshold: 0.95,
		Seed:           42,
		MaxWorkers:     4,
	}
}

// Validate checks threshold ordering and mode/MU-table consistency at
// load time, before any record is ingested.
func (c RunConfig) Validate() error {
	if c.Mode != ModeBaseline && c.Mode != ModeFS {
		return &ConfigError{Field: "mode", Reason: "must be \"baseline\" or \"fs\", got " + string(c.Mode)}
	}
	if c.Thresholds.Accept <= c.Thresholds.Reject {
		return &ConfigError{Field: "thresholds", Reason: "accept_threshold must be greater than reject_threshold"}
	}
	if c.Mode == ModeFS && c.MUTablePath == "" {
		return &ConfigError{Field: "mu_table_path", Reason: "required when mode is \"fs\""}
	}
	if c.TitleThreshold < 0 || c.TitleThreshold > 1 {
		return &ConfigError{Field: "title_threshold", Reason: "must be in [0, 1]"}
	}
	if c.MaxWorkers < 1 {
		return &ConfigError{Field: "max_workers", Reason: "must be at least 1"}
	}
	return nil
}

// ConfigError reports an invalid RunConfig field, surfaced at startup
// before any stage runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config field " + e.Field + ": " + e.Reason
}

// MUEntry holds the (m, u) conditional-probability pair for one comparison
// bin under Fellegi-Sunter scoring.
type MUEntry struct {
	M float64 `json:"m"`
	U float64 `json:"u"`
}

// MUTable maps feature name to bin name to (m, u). Loaded once per run
// from the JSON file named by RunConfig.MUTablePath.
type MUTable map[string]map[string]MUEntry
