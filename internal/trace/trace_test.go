// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

func TestRedactNameNeverLeaksPlaintext(t *testing.T) {
	redacted := RedactName("Zhang Wei", "pepper")
	if len(redacted) != redactedPrefixLen {
		t.Fatalf("redacted length = %d, want %d", len(redacted), redactedPrefixLen)
	}
	if strings.Contains(redacted, "Zhang") || strings.Contains(redacted, "Wei") {
		t.Fatalf("redacted value %q leaks plaintext", redacted)
	}

	want := fmt.Sprintf("%x", sha256.Sum256([]byte("Zhang Wei"+"pepper")))[:redactedPrefixLen]
	if redacted != want {
		t.Fatalf("RedactName = %q, want %q", redacted, want)
	}
}

func TestRedactNameDifferentSaltsDiffer(t *testing.T) {
	a := RedactName("Zhang Wei", "salt-a")
	b := RedactName("Zhang Wei", "salt-b")
	if a == b {
		t.Fatal("expected different salts to produce different redactions")
	}
}

func TestNameStructureOfLatin(t *testing.T) {
	s := NameStructureOf("John A. Smith")
	if s.TokenCount != 3 {
		t.Fatalf("token count = %d, want 3", s.TokenCount)
	}
	if s.ScriptType != types.ScriptLatin {
		t.Fatalf("script type = %q, want latin", s.ScriptType)
	}
}

func TestNameStructureOfCJK(t *testing.T) {
	s := NameStructureOf("张伟")
	if s.ScriptType != types.ScriptCJK {
		t.Fatalf("script type = %q, want cjk", s.ScriptType)
	}
}

func TestNameStructureOfMixed(t *testing.T) {
	s := NameStructureOf("张 Wei")
	if s.ScriptType != types.ScriptMixed {
		t.Fatalf("script type = %q, want mixed", s.ScriptType)
	}
}

func TestNameStructureOfEmpty(t *testing.T) {
	s := NameStructureOf("")
	if s.TokenCount != 0 || s.ScriptType != types.ScriptOther {
		t.Fatalf("empty name structure = %+v, want zero token count and other script", s)
	}
}

func TestDeterministicHashStableForSameInputs(t *testing.T) {
	best := "a1"
	r := types.TraceRecord{
		RunID: "run-1", Seq: 3, PublicationID: "p1", MentionPos: 2,
		Decision: types.DecisionMerge, BestAuthorID: &best, ScoreTotal: 0.73,
	}
	h1 := DeterministicHash(r)
	h2 := DeterministicHash(r)
	if h1 != h2 {
		t.Fatalf("DeterministicHash not stable: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64 (hex sha256)", len(h1))
	}
}

func TestDeterministicHashChangesWithSeq(t *testing.T) {
	base := types.TraceRecord{RunID: "run-1", Seq: 1, PublicationID: "p1", Decision: types.DecisionNew}
	other := base
	other.Seq = 2
	if DeterministicHash(base) == DeterministicHash(other) {
		t.Fatal("expected different seq to produce different hash")
	}
}

func TestAppendRedactsDOIDerivedPublicationID(t *testing.T) {
	var traceBuf, reviewBuf bytes.Buffer
	w := NewWriter("run-1", "pepper", &traceBuf, &reviewBuf)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	decision := types.Decision{
		Kind: types.DecisionNew, PublicationID: "doi:10.1038/x", MentionPos: 1, ScoreTotal: 0.1,
	}
	if err := w.Append(decision, types.Thresholds{}, nil, "Zhang Wei", now); err != nil {
		t.Fatalf("Append: %v", err)
	}

	line := strings.TrimRight(traceBuf.String(), "\n")
	if strings.Contains(line, "10.1038/x") {
		t.Fatalf("trace line leaks plaintext DOI via publication_id: %s", line)
	}

	var rec types.TraceRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.PublicationID == "doi:10.1038/x" {
		t.Fatal("publication_id was not redacted")
	}
	if rec.PublicationID != RedactID("doi:10.1038/x", "pepper") {
		t.Fatalf("publication_id = %q, want RedactID output", rec.PublicationID)
	}
}

func TestAppendWritesOneLinePerDecisionAndReviewOnlyForUnknown(t *testing.T) {
	var traceBuf, reviewBuf bytes.Buffer
	w := NewWriter("run-1", "pepper", &traceBuf, &reviewBuf)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	thresholds := types.Thresholds{Accept: 0.9, Reject: 0.2}

	merge := types.Decision{Kind: types.DecisionMerge, PublicationID: "p1", MentionPos: 1, BestAuthorID: "a1", ScoreTotal: 0.95}
	if err := w.Append(merge, thresholds, nil, "Zhang Wei", now); err != nil {
		t.Fatalf("Append merge: %v", err)
	}

	unknown := types.Decision{Kind: types.DecisionUnknown, PublicationID: "p2", MentionPos: 1, BestAuthorID: "a2", ScoreTotal: 0.5}
	if err := w.Append(unknown, thresholds, nil, "John Smith", now); err != nil {
		t.Fatalf("Append unknown: %v", err)
	}

	traceLines := strings.Split(strings.TrimRight(traceBuf.String(), "\n"), "\n")
	if len(traceLines) != 2 {
		t.Fatalf("trace line count = %d, want 2", len(traceLines))
	}
	reviewLines := strings.Split(strings.TrimRight(reviewBuf.String(), "\n"), "\n")
	if len(reviewLines) != 1 {
		t.Fatalf("review line count = %d, want 1", len(reviewLines))
	}

	for _, raw := range traceLines {
		var rec types.TraceRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			t.Fatalf("unmarshal trace line: %v", err)
		}
		if strings.Contains(raw, "Zhang") || strings.Contains(raw, "Wei") || strings.Contains(raw, "John") || strings.Contains(raw, "Smith") {
			t.Fatalf("trace line leaks plaintext name: %s", raw)
		}
	}

	var first types.TraceRecord
	if err := json.Unmarshal([]byte(traceLines[0]), &first); err != nil {
		t.Fatalf("unmarshal first trace line: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("first record seq = %d, want 1", first.Seq)
	}
	var second types.TraceRecord
	if err := json.Unmarshal([]byte(traceLines[1]), &second); err != nil {
		t.Fatalf("unmarshal second trace line: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("second record seq = %d, want 2", second.Seq)
	}
}

func TestWriteManifestIsAtomicAndReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run_manifest.json")

	manifest := types.RunManifest{
		RunID: "run-1", Mode: types.ModeBaseline, Seed: 42,
		Thresholds:     types.Thresholds{Accept: 0.9, Reject: 0.2},
		InputCount:     10,
		DecisionCounts: map[string]int{"merge": 4, "new": 5, "unknown": 1},
		Status:         "completed",
	}
	if err := WriteManifest(path, manifest); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".run-manifest-") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got types.RunManifest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.RunID != "run-1" || got.InputCount != 10 {
		t.Fatalf("manifest round-trip mismatch: %+v", got)
	}
}
