// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decide implements the three-way decision engine: blocking,
// candidate scoring, the MERGE/NEW/UNKNOWN decision, and the profile
// mutations that follow it.
package decide

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/compare"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/index"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
	"github.com/Soulbeaters/incremental-author-disambiguation/internal/score"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// ContradictionError reports a data contradiction that aborts the run:
// a comparator returning NaN, or a NEW decision that would violate
// ORCID uniqueness.
type ContradictionError struct {
	Reason string
}

func (e *ContradictionError) Error() string { return "contradiction: " + e.Reason }

// Engine holds everything the decision procedure needs across mentions
// in a single run: the shared Index, the active scorer backend and
// thresholds, the MU table (FS mode only), and the deterministic
// author_id namespace derived from the run seed.
type Engine struct {
	idx         *index.Index
	mode        types.ScorerMode
	thresholds  types.Thresholds
	muTable     types.MUTable
	idNamespace uuid.UUID
}

// New builds an Engine. seed should be the run's seed; the same seed
// always produces the same author_id sequence for the same input order.
func New(idx *index.Index, mode types.ScorerMode, thresholds types.Thresholds, muTable types.MUTable, seed int64) *Engine {
	namespace := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("incremental-author-disambiguation/seed/%d", seed)))
	return &Engine{idx: idx, mode: mode, thresholds: thresholds, muTable: muTable, idNamespace: namespace}
}

// mintAuthorID deterministically derives a new author_id from the
// publication and mention position that caused its creation, so re-runs
// of the same input with the same seed produce byte-identical ids.
func (e *Engine) mintAuthorID(publicationID string, mentionPos int) string {
	data := fmt.Sprintf("%s|%d", publicationID, mentionPos)
	return uuid.NewSHA1(e.idNamespace, []byte(data)).String()
}

// candidateScore pairs a candidate author_id with its comparison vector,
// used only while selecting the best candidate in Decide.
type candidateScore struct {
	authorID   string
	comparison types.ComparisonVector
}

// Decide blocks, scores, and classifies one mention within pub. It
// mutates the Index immediately for MERGE and NEW (profile creation and
// set union);
// co-mention coauthor wiring is deferred to CommitPublication. now is
// supplied by the caller so tests and replays control the timestamp.
func (e *Engine) Decide(pub *types.Publication, mention types.AuthorMention, now time.Time) (types.Decision, error) {
	candidates := e.idx.Block(mention.Name, mention.ORCID, mention.Affiliations)

	if len(candidates) == 0 {
		return e.decideNew(pub, mention, now, types.ComparisonVector{ScoreTotal: e.thresholds.Reject})
	}

	best, err := e.scoreBest(pub, mention, candidates)
	if err != nil {
		return types.Decision{}, err
	}

	switch {
	case best.comparison.ScoreTotal >= e.thresholds.Accept:
		return e.decideMerge(pub, mention, best, now)
	case best.comparison.ScoreTotal <= e.thresholds.Reject:
		return e.decideNew(pub, mention, now, best.comparison)
	default:
		return types.Decision{
			Kind:          types.DecisionUnknown,
			PublicationID: pub.PublicationID,
			MentionPos:    mention.Position,
			MentionName:   mention.Name,
			BestAuthorID:  best.authorID,
			ScoreTotal:    best.comparison.ScoreTotal,
			Comparison:    best.comparison,
		}, nil
	}
}

// scoreBest scores every candidate and returns the single best by
// (score desc, author_id asc).
func (e *Engine) scoreBest(pub *types.Publication, mention types.AuthorMention, candidates []string) (candidateScore, error) {
	var best candidateScore
	haveBest := false

	for _, candidateID := range candidates {
		profile := e.idx.Get(candidateID)
		if profile == nil {
			continue // id not yet resolvable within this batch
		}

		inputs := e.buildInputs(pub.Journal, mention, profile)

		var cv types.ComparisonVector
		var err error
		if e.mode == types.ModeFS {
			cv, err = score.FellegiSunter(inputs, e.muTable)
		} else {
			cv, err = score.Baseline(inputs)
		}
		if err != nil {
			return candidateScore{}, &ContradictionError{Reason: err.Error()}
		}
		cv.CandidateID = candidateID

		if !haveBest || isBetterCandidate(cv.ScoreTotal, candidateID, best.comparison.ScoreTotal, best.authorID) {
			best = candidateScore{authorID: candidateID, comparison: cv}
			haveBest = true
		}
	}
	return best, nil
}

// isBetterCandidate implements the (score desc, author_id asc) tie-break.
func isBetterCandidate(candidateScoreTotal float64, id string, bestScore float64, bestID string) bool {
	if candidateScoreTotal != bestScore {
		return candidateScoreTotal > bestScore
	}
	return id < bestID
}

// buildInputs runs all five comparators for one (mention, profile) pair.
// journal is the enclosing publication's journal title, compared
// against the profile's accumulated journal set.
func (e *Engine) buildInputs(journal string, mention types.AuthorMention, profile *types.Author) []score.Input {
	nameSim, nameBin := compare.Name(mention.Name, profile.CanonicalName, profile.SortedAliases())
	orcidSim, orcidBin := compare.ORCID(mention.ORCID, profile.ORCID)
	coauthorSim, coauthorBin := compare.Coauthor(mention.Coauthors, e.coauthorProjection(profile))
	journalSim, journalBin := compare.Journal(journal, profile.Journals)
	affSim, affBin := compare.Affiliation(mention.Affiliations, profile.Affiliations)

	return []score.Input{
		{Feature: score.FeatureName, RawSimilarity: nameSim, Bin: nameBin},
		{Feature: score.FeatureORCID, RawSimilarity: orcidSim, Bin: orcidBin},
		{Feature: score.FeatureCoauthor, RawSimilarity: coauthorSim, Bin: coauthorBin},
		{Feature: score.FeatureJournal, RawSimilarity: journalSim, Bin: journalBin},
		{Feature: score.FeatureAffiliation, RawSimilarity: affSim, Bin: affBin},
	}
}

// coauthorProjection reduces a profile's coauthor_ids to the
// surname+initial keys of the profiles they resolve to, comparable
// against a mention's raw coauthor name list via compare.Coauthor.
// Unresolvable ids are skipped.
func (e *Engine) coauthorProjection(profile *types.Author) map[string]struct{} {
	keys := make(map[string]struct{}, len(profile.CoauthorIDs))
	for id := range profile.CoauthorIDs {
		coauthor := e.idx.Get(id)
		if coauthor == nil {
			continue
		}
		surname, initial := normalize.SurnameInitialKey(coauthor.CanonicalName)
		if surname == "" {
			continue
		}
		keys[surname+"\x00"+initial] = struct{}{}
	}
	return keys
}

// decideMerge applies the MERGE mutation: union the mention's
// affiliations, alias, publication, and journal into the target
// profile.
func (e *Engine) decideMerge(pub *types.Publication, mention types.AuthorMention, best candidateScore, now time.Time) (types.Decision, error) {
	delta := index.Delta{
		Aliases:        []string{mention.Name},
		Affiliations:   mention.Affiliations,
		PublicationIDs: []string{pub.PublicationID},
	}
	if pub.Journal != "" {
		delta.Journals = []string{pub.Journal}
	}
	if err := e.idx.Update(best.authorID, delta, now); err != nil {
		return types.Decision{}, fmt.Errorf("merge update: %w", err)
	}

	return types.Decision{
		Kind:             types.DecisionMerge,
		PublicationID:    pub.PublicationID,
		MentionPos:       mention.Position,
		MentionName:      mention.Name,
		BestAuthorID:     best.authorID,
		ScoreTotal:       best.comparison.ScoreTotal,
		Comparison:       best.comparison,
		ResolvedAuthorID: best.authorID,
	}, nil
}

// decideNew mints a deterministic author_id and inserts a fresh
// profile. An ORCID collision here is a data contradiction.
func (e *Engine) decideNew(pub *types.Publication, mention types.AuthorMention, now time.Time, cv types.ComparisonVector) (types.Decision, error) {
	if mention.ORCID != "" && e.idx.FindByORCID(mention.ORCID) != nil {
		return types.Decision{}, &ContradictionError{Reason: fmt.Sprintf("NEW decision would duplicate orcid %q", mention.ORCID)}
	}

	newID := e.mintAuthorID(pub.PublicationID, mention.Position)
	profile := types.NewAuthor(newID, mention.Name, now)
	profile.ORCID = mention.ORCID
	for _, aff := range mention.Affiliations {
		profile.Affiliations[aff] = struct{}{}
	}
	profile.PublicationIDs[pub.PublicationID] = struct{}{}
	if pub.Journal != "" {
		profile.Journals[pub.Journal] = struct{}{}
	}

	if err := e.idx.Insert(profile); err != nil {
		return types.Decision{}, &ContradictionError{Reason: err.Error()}
	}

	return types.Decision{
		Kind:             types.DecisionNew,
		PublicationID:    pub.PublicationID,
		MentionPos:       mention.Position,
		MentionName:      mention.Name,
		ScoreTotal:       cv.ScoreTotal,
		Comparison:       cv,
		ResolvedAuthorID: newID,
	}, nil
}

// CommitPublication wires within-publication co-authorship once every
// mention in a publication has reached a terminal decision: every
// MERGE/NEW profile in decisions is linked to every other MERGE/NEW
// profile's coauthor set. UNKNOWN mentions contribute no edge. All
// coauthor mutations for one publication are applied in this single
// pass at the pipeline's commit boundary.
func (e *Engine) CommitPublication(decisions []types.Decision, now time.Time) error {
	resolved := make([]string, 0, len(decisions))
	for _, d := range decisions {
		if d.Kind == types.DecisionUnknown {
			continue
		}
		resolved = append(resolved, d.ResolvedAuthorID)
	}
	sort.Strings(resolved)

	for _, id := range resolved {
		peers := make([]string, 0, len(resolved)-1)
		for _, other := range resolved {
			if other != id {
				peers = append(peers, other)
			}
		}
		if len(peers) == 0 {
			continue
		}
		if err := e.idx.Update(id, index.Delta{CoauthorIDs: peers}, now); err != nil {
			return fmt.Errorf("commit publication: wiring coauthors for %q: %w", id, err)
		}
	}
	return nil
}
