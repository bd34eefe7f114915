// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a full disambiguation run: bounded fan-out
// fetching of raw publication records, a serial single-writer decision
// lane, cancellation polling, and run-manifest assembly.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/dedup"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/decide"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/index"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/trace"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// RawRecord is one bibliographic record as fetched from upstream,
// before deduplication or normalization.
type RawRecord struct {
	Ref      string
	DOI      string
	Title    string
	Year     int
	Journal  string
	Mentions []types.AuthorMention
}

// Fetcher retrieves one raw record. The only suspension point in the
// core pipeline lives behind this interface: the upstream fetch is
// external, not in-core.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (RawRecord, error)
}

// Deps bundles everything a Run needs beyond the input ref list.
type Deps struct {
	Fetcher   Fetcher
	Index     *index.Index
	Engine    *decide.Engine
	Dedup     *dedup.Deduplicator
	Trace     *trace.Writer
	Config    types.RunConfig
	Progress  io.Writer
	Cancelled func() bool // polled before each publication; nil means never cancelled

	// Clock stamps decisions and trace records. When nil, Run substitutes
	// SeededClock(Config.Seed): re-running the same input with the same
	// seed must reproduce trace.jsonl byte for byte, and wall-clock
	// timestamps would break that. Manifest started/finished times come
	// from the caller's now func instead and may be real time.
	Clock func() time.Time

	// OnResolved, if set, is called once per MERGE/NEW decision with the
	// mention's publication id and position (the two parts of
	// evaluate.MentionID) and the profile it resolved to, so the caller can assemble the final cluster assignment for
	// results.json without the pipeline owning that output format.
	OnResolved func(publicationID string, mentionPos int, authorID string)

	// Debug, if set, receives one line per decision with its full
	// comparison vector (--debug). Never redacted: this is a local
	// operator stream, not the privacy-scoped trace log.
	Debug io.Writer
}

type fetchResult struct {
	ref    string
	record RawRecord
	err    error
}

// Run fans out fetching of refs across Config.MaxWorkers, then commits
// decisions serially in input order, returning the completed or
// cancelled run's manifest.
func Run(ctx context.Context, refs []string, deps Deps, now func() time.Time) (types.RunManifest, error) {
	manifest := types.RunManifest{
		RunID:          deps.Config.RunID,
		ConfigHash:     ConfigHash(deps.Config),
		CodeVersion:    CodeVersion,
		Seed:           deps.Config.Seed,
		Mode:           deps.Config.Mode,
		Thresholds:     deps.Config.Thresholds,
		InputCount:     len(refs),
		DecisionCounts: map[string]int{},
		SkippedReasons: map[string]int{},
		StartedAt:      now(),
	}

	if deps.Clock == nil {
		deps.Clock = SeededClock(deps.Config.Seed)
	}

	fetched, err := fetchAll(ctx, refs, deps)
	if err != nil {
		manifest.Status = "aborted"
		manifest.Reason = err.Error()
		manifest.FinishedAt = now()
		return manifest, err
	}

	for _, result := range fetched {
		if result.err != nil {
			manifest.FailedDOIs = append(manifest.FailedDOIs, result.ref)
			manifest.SkippedReasons["fetch_error"]++
			continue
		}

		if deps.Cancelled != nil && deps.Cancelled() {
			manifest.Cancelled = true
			manifest.Status = "cancelled"
			manifest.FinishedAt = now()
			return manifest, nil
		}

		if err := commitRecord(result.record, deps, &manifest); err != nil {
			manifest.Status = "aborted"
			manifest.Reason = err.Error()
			manifest.FinishedAt = now()
			return manifest, err
		}
	}

	manifest.Status = "completed"
	manifest.FinishedAt = now()
	return manifest, nil
}

// fetchAll runs Fetch for every ref across a bounded worker pool,
// preserving the caller's ref order in the returned slice regardless of
// completion order: decisions are committed in publication-ingest
// order, not fetch-completion order.
func fetchAll(ctx context.Context, refs []string, deps Deps) ([]fetchResult, error) {
	results := make([]fetchResult, len(refs))

	maxWorkers := deps.Config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			record, err := deps.Fetcher.Fetch(gCtx, ref)
			results[i] = fetchResult{ref: ref, record: record, err: err}
			return nil // fetch errors are recorded per-record, not fatal to the run
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	return results, nil
}

// commitRecord runs one raw record through dedup, decision, and trace,
// committing all of a publication's decisions together.
func commitRecord(record RawRecord, deps Deps, manifest *types.RunManifest) error {
	title := normalize.Title(record.Title)
	dedupResult := deps.Dedup.Check(record.DOI, title)
	if dedupResult.Duplicate {
		manifest.SkippedReasons[fmt.Sprintf("duplicate_%s", dedupResult.Reason)]++
		return nil
	}

	pubID := MintPublicationID(record.DOI, title)
	deps.Dedup.Admit(pubID, record.DOI, title)

	pub := &types.Publication{
		PublicationID:   pubID,
		DOI:             record.DOI,
		Title:           record.Title,
		NormalizedTitle: title,
		Year:            record.Year,
		Journal:         record.Journal,
		Mentions:        record.Mentions,
	}

	ts := deps.Clock()
	decisions := make([]types.Decision, 0, len(pub.Mentions))
	for _, mention := range pub.Mentions {
		decision, err := deps.Engine.Decide(pub, mention, ts)
		if err != nil {
			return fmt.Errorf("deciding mention %d of publication %q: %w", mention.Position, pub.PublicationID, err)
		}
		decisions = append(decisions, decision)
		manifest.DecisionCounts[string(decision.Kind)]++

		if decision.ResolvedAuthorID != "" && deps.OnResolved != nil {
			deps.OnResolved(pub.PublicationID, mention.Position, decision.ResolvedAuthorID)
		}

		if deps.Debug != nil {
			fmt.Fprintf(deps.Debug, "%s#%d: %s score=%v components=%v\n",
				pub.PublicationID, mention.Position, decision.Kind, decision.ScoreTotal, decision.Comparison.ComponentBreakdown())
		}

		if deps.Trace != nil {
			breakdown := decision.Comparison.ComponentBreakdown()
			if err := deps.Trace.Append(decision, deps.Config.Thresholds, breakdown, mention.Name, ts); err != nil {
				return fmt.Errorf("tracing mention %d of publication %q: %w", mention.Position, pub.PublicationID, err)
			}
		}
	}

	if err := deps.Engine.CommitPublication(decisions, ts); err != nil {
		return fmt.Errorf("committing publication %q: %w", pub.PublicationID, err)
	}

	if deps.Progress != nil {
		fmt.Fprintf(deps.Progress, "publication %s: %d mention(s) decided\n", pub.PublicationID, len(decisions))
	}
	return nil
}

// MintPublicationID derives a stable id from the DOI when present, or
// from the normalized title otherwise, so re-ingesting the same record
// always resolves to the same publication.
func MintPublicationID(doi, normalizedTitle string) string {
	if doi != "" {
		return fmt.Sprintf("doi:%s", doi)
	}
	sum := sha256.Sum256([]byte(normalizedTitle))
	return fmt.Sprintf("title:%x", sum[:8])
}

// ConfigHash deterministically summarizes the run configuration
// (excluding the redaction salt, which is a secret) for the manifest's
// audit trail.
func ConfigHash(cfg types.RunConfig) string {
	cfg.RedactionSalt = ""
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:16]
}

// SeededClock returns a clock whose every reading is a pure function of
// seed and call order: it starts at the Unix epoch offset by seed
// seconds and advances one second per call. Used to stamp decisions and
// trace records so identical runs produce identical output.
func SeededClock(seed int64) func() time.Time {
	t := time.Unix(seed, 0).UTC()
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// CodeVersion is set at build time via ldflags.
var CodeVersion = "dev"
