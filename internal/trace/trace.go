// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trace implements the redacted, deterministic decision-trace
// JSONL writer, the review-queue writer, and the run manifest.
package trace

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

const redactedPrefixLen = 12

// Writer appends decision records to a trace stream and, for UNKNOWN
// decisions, to a parallel review-queue stream. It is owned exclusively
// by the decision lane: no two goroutines may call Append concurrently.
type Writer struct {
	runID  string
	salt   string
	trace  io.Writer
	review io.Writer
	seq    int64
}

// NewWriter builds a Writer over already-open trace and review streams.
// salt is the run's redaction_salt, loaded as a secret and never logged.
func NewWriter(runID, salt string, traceStream, reviewStream io.Writer) *Writer {
	return &Writer{runID: runID, salt: salt, trace: traceStream, review: reviewStream}
}

// Append assigns the next monotonic seq, redacts mentionName, and writes
// exactly one JSONL record to the trace stream (and, for UNKNOWN
// decisions, to the review stream too).
func (w *Writer) Append(decision types.Decision, thresholds types.Thresholds, breakdown map[string]types.FeatureScore, mentionName string, now time.Time) error {
	w.seq++

	var bestAuthorID *string
	if decision.BestAuthorID != "" {
		bestAuthorID = &decision.BestAuthorID
	}

	record := types.TraceRecord{
		RunID:                w.runID,
		Seq:                  w.seq,
		Timestamp:            now.UTC(),
		Decision:             decision.Kind,
		ScoreTotal:           decision.ScoreTotal,
		ScoreComponents:      breakdown,
		Thresholds:           thresholds,
		BestAuthorID:         bestAuthorID,
		MentionPos:           decision.MentionPos,
		MentionNameRedacted:  RedactName(mentionName, w.salt),
		MentionNameStructure: NameStructureOf(mentionName),
		PublicationID:        RedactID(decision.PublicationID, w.salt),
	}
	record.DeterministicHash = DeterministicHash(record)

	if err := writeJSONLine(w.trace, record); err != nil {
		return fmt.Errorf("writing trace record: %w", err)
	}

	if decision.Kind == types.DecisionUnknown && w.review != nil {
		if err := writeJSONLine(w.review, record); err != nil {
			return fmt.Errorf("writing review record: %w", err)
		}
	}
	return nil
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// RedactName returns the first 12 hex characters of SHA-256(name+salt),
// never the plaintext name.
func RedactName(name, salt string) string {
	sum := sha256.Sum256([]byte(name + salt))
	return fmt.Sprintf("%x", sum)[:redactedPrefixLen]
}

// RedactID returns the full hex SHA-256 of value+salt. Used for
// publication_id: a publication_id minted from a DOI embeds that DOI
// verbatim (see pipeline.MintPublicationID), so writing it unredacted
// into the trace would leak the plaintext DOI. The full digest (not
// truncated like RedactName) keeps distinct publications from colliding
// in a large run while still correlating every record for the same
// publication under one run's salt.
func RedactID(value, salt string) string {
	sum := sha256.Sum256([]byte(value + salt))
	return fmt.Sprintf("%x", sum)
}

// NameStructureOf derives the structural summary carried in a trace
// record without retaining any plaintext: token count, average token
// length, and a coarse script classification.
func NameStructureOf(name string) types.NameStructure {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return types.NameStructure{ScriptType: types.ScriptOther}
	}
	var totalRunes int
	for _, tok := range tokens {
		totalRunes += len([]rune(tok))
	}
	return types.NameStructure{
		TokenCount:     len(tokens),
		AvgTokenLength: float64(totalRunes) / float64(len(tokens)),
		ScriptType:     classifyScript(name),
	}
}

func classifyScript(s string) types.ScriptType {
	var latin, cyrillic, cjk bool
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin = true
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic = true
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
			cjk = true
		}
	}
	count := 0
	for _, present := range []bool{latin, cyrillic, cjk} {
		if present {
			count++
		}
	}
	switch {
	case count > 1:
		return types.ScriptMixed
	case latin:
		return types.ScriptLatin
	case cyrillic:
		return types.ScriptCyrillic
	case cjk:
		return types.ScriptCJK
	default:
		return types.ScriptOther
	}
}

// DeterministicHash computes the canonical hash over a trace record's
// structural fields: SHA-256 over
// "run_id|seq|publication_id|mention_position|decision|best_author_id|score_total",
// pipe-separated, with score_total formatted via strconv.FormatFloat(v,
// 'g', -1, 64). Every input is already redacted or structural, so the
// hash itself carries no plaintext.
func DeterministicHash(r types.TraceRecord) string {
	best := ""
	if r.BestAuthorID != nil {
		best = *r.BestAuthorID
	}
	canonical := strings.Join([]string{
		r.RunID,
		strconv.FormatInt(r.Seq, 10),
		r.PublicationID,
		strconv.Itoa(r.MentionPos),
		string(r.Decision),
		best,
		strconv.FormatFloat(r.ScoreTotal, 'g', -1, 64),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%x", sum)
}

// WriteManifest atomically writes manifest as run_manifest.json to path,
// using a temp-file-then-rename so readers never observe a partially
// written file.
func WriteManifest(path string, manifest types.RunManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run manifest: %w", err)
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".run-manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp manifest file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp manifest file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp manifest file: %w", err)
	}
	return nil
}
