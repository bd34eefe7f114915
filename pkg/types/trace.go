// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ScriptType classifies the Unicode script mix of a redacted name, for
// the structural summary carried in a trace record.
type ScriptType string

const (
	ScriptLatin    ScriptType = "latin"
	ScriptCyrillic ScriptType = "cyrillic"
	ScriptCJK      ScriptType = "cjk"
	ScriptMixed    ScriptType = "mixed"
	ScriptOther    ScriptType = "other"
)

// NameStructure is a privacy-preserving structural summary of a mention
// name: no plaintext, only counts and a script classification.
type NameStructure struct {
	TokenCount     int        `json:"token_count"`
	AvgTokenLength float64    `json:"avg_token_length"`
	ScriptType     ScriptType `json:"script_type"`
}

// TraceRecord is one line of trace.jsonl (or review.jsonl for UNKNOWN
// decisions). It carries no plaintext name, DOI, title, or affiliation
// string anywhere.
type TraceRecord struct {
	RunID                string                  `json:"run_id"`
	Seq                  int64                   `json:"seq"`
	Timestamp            time.Time               `json:"timestamp"`
	Decision             DecisionKind            `json:"decision"`
	ScoreTotal           float64                 `json:"score_total"`
	ScoreComponents      map[string]FeatureScore `json:"score_components"`
	Thresholds           Thresholds              `json:"thresholds"`
	BestAuthorID         *string                 `json:"best_author_id"`
	MentionPos           int                     `json:"mention_position"`
	MentionNameRedacted  string                  `json:"mention_name_redacted"`
	MentionNameStructure NameStructure           `json:"mention_name_structure"`

	// PublicationID is the SHA-256 redaction of the publication's id, not
	// the id itself: a DOI-derived publication_id embeds the raw DOI, and
	// writing that verbatim here would put a plaintext DOI in every record
	// for that publication. Stable across every record for the same
	// publication within one run's salt, so records can still be
	// correlated by it.
	PublicationID     string `json:"publication_id"`
	DeterministicHash string `json:"deterministic_hash"`
}

// RunManifest is written once at the end of a run (or on abort/cancel),
// recording everything needed to audit or reproduce the run.
type RunManifest struct {
	RunID          string         `json:"run_id"`
	ConfigHash     string         `json:"config_hash"`
	CodeVersion    string         `json:"code_version"`
	Seed           int64          `json:"seed"`
	Mode           ScorerMode     `json:"mode"`
	Thresholds     Thresholds     `json:"thresholds"`
	InputCount     int            `json:"input_count"`
	DecisionCounts map[string]int `json:"decision_counts"`
	FailedDOIs     []string       `json:"failed_dois,omitempty"`
	SkippedReasons map[string]int `json:"skipped_reasons,omitempty"`
	Status         string         `json:"status"`
	Reason         string         `json:"reason,omitempty"`
	Cancelled      bool           `json:"cancelled,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}
