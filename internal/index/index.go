// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index implements the in-memory author store: the live profile
// set plus its blocking dictionaries. The Index is the sole owner of
// Author profiles; it never touches Publications or Mentions.
package index

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/normalize"
	"github.com/Soulbeaters/incremental-author-disambiguation/pkg/types"
)

// DuplicateError reports an Insert that would violate the author_id or
// ORCID uniqueness invariant.
type DuplicateError struct {
	Field string // "author_id" or "orcid"
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %q already present in index", e.Field, e.Value)
}

// Delta describes the set-union mutation Update applies to a profile.
// Every field is additive; nothing is ever removed.
type Delta struct {
	Aliases        []string
	Affiliations   []string
	CoauthorIDs    []string
	Journals       []string
	PublicationIDs []string
}

// Index is the single-writer, multi-reader author store. All mutation
// happens on the decision lane; reads are safe from any goroutine
// while no write is in flight, guarded here with a mutex so tests and
// callers outside the pipeline's single-writer discipline stay correct.
type Index struct {
	mu sync.RWMutex

	byID             map[string]*types.Author
	byORCID          map[string]*types.Author
	bySurname        map[string][]string
	bySurnameInitial map[[2]string][]string
	byAffiliation    map[string][]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byID:             make(map[string]*types.Author),
		byORCID:          make(map[string]*types.Author),
		bySurname:        make(map[string][]string),
		bySurnameInitial: make(map[[2]string][]string),
		byAffiliation:    make(map[string][]string),
	}
}

// Get returns the profile for id, or nil if absent.
func (idx *Index) Get(id string) *types.Author {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byID[id]
}

// FindByORCID returns the profile whose orcid equals orcid, or nil.
func (idx *Index) FindByORCID(orcid string) *types.Author {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.byORCID[orcid]
}

// Len returns the number of live profiles.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

// Insert adds a new profile. It fails with a *DuplicateError if
// author_id or orcid is already present.
func (idx *Index) Insert(a *types.Author) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byID[a.AuthorID]; exists {
		return &DuplicateError{Field: "author_id", Value: a.AuthorID}
	}
	if a.ORCID != "" {
		if _, exists := idx.byORCID[a.ORCID]; exists {
			return &DuplicateError{Field: "orcid", Value: a.ORCID}
		}
	}

	idx.byID[a.AuthorID] = a
	if a.ORCID != "" {
		idx.byORCID[a.ORCID] = a
	}
	for alias := range a.Aliases {
		idx.indexName(alias, a.AuthorID)
	}
	idx.indexName(a.CanonicalName, a.AuthorID)
	for aff := range a.Affiliations {
		idx.indexAffiliation(aff, a.AuthorID)
	}
	return nil
}

// Update applies delta to the profile identified by id: alias,
// affiliation, coauthor, journal, and publication sets are unioned in;
// updated_at is refreshed; canonical_name and orcid are never touched.
func (idx *Index) Update(id string, delta Delta, now time.Time) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	a, ok := idx.byID[id]
	if !ok {
		return fmt.Errorf("update: author_id %q not found", id)
	}

	for _, alias := range delta.Aliases {
		if alias == "" || alias == a.CanonicalName {
			continue
		}
		if _, already := a.Aliases[alias]; !already {
			a.Aliases[alias] = struct{}{}
			idx.indexName(alias, id)
		}
	}
	for _, aff := range delta.Affiliations {
		if aff == "" {
			continue
		}
		if _, already := a.Affiliations[aff]; !already {
			a.Affiliations[aff] = struct{}{}
			idx.indexAffiliation(aff, id)
		}
	}
	for _, cid := range delta.CoauthorIDs {
		if cid == "" || cid == id {
			continue
		}
		a.CoauthorIDs[cid] = struct{}{}
	}
	for _, j := range delta.Journals {
		if j == "" {
			continue
		}
		a.Journals[j] = struct{}{}
	}
	for _, pid := range delta.PublicationIDs {
		if pid == "" {
			continue
		}
		a.PublicationIDs[pid] = struct{}{}
	}
	a.UpdatedAt = now
	return nil
}

// Block produces the deduplicated, sorted candidate author_id set for a
// mention: the union of the ORCID lookup, the surname bucket, the
// surname+initial bucket, and every affiliation bucket.
func (idx *Index) Block(mentionName, mentionORCID string, affiliations []string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]struct{})

	if mentionORCID != "" {
		if a, ok := idx.byORCID[mentionORCID]; ok {
			seen[a.AuthorID] = struct{}{}
		}
	}

	normalized := normalize.Name(mentionName)
	surname := normalize.Surname(normalized)
	initial := normalize.FirstInitial(normalized)

	for _, id := range idx.bySurname[surname] {
		seen[id] = struct{}{}
	}
	for _, id := range idx.bySurnameInitial[[2]string{surname, initial}] {
		seen[id] = struct{}{}
	}
	for _, aff := range affiliations {
		key := normalize.Institution(aff)
		for _, id := range idx.byAffiliation[key] {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// indexName registers rawName's surname and surname+initial keys
// against authorID. Callers must hold idx.mu for writing.
func (idx *Index) indexName(rawName, authorID string) {
	normalized := normalize.Name(rawName)
	surname := normalize.Surname(normalized)
	initial := normalize.FirstInitial(normalized)
	if surname == "" {
		return
	}
	idx.bySurname[surname] = insertSorted(idx.bySurname[surname], authorID)
	idx.bySurnameInitial[[2]string{surname, initial}] = insertSorted(idx.bySurnameInitial[[2]string{surname, initial}], authorID)
}

// indexAffiliation registers rawAffiliation against authorID. Callers
// must hold idx.mu for writing.
func (idx *Index) indexAffiliation(rawAffiliation, authorID string) {
	key := normalize.Institution(rawAffiliation)
	if key == "" {
		return
	}
	idx.byAffiliation[key] = insertSorted(idx.byAffiliation[key], authorID)
}

// insertSorted inserts id into a lexicographically sorted list,
// skipping the insert if id is already present.
func insertSorted(list []string, id string) []string {
	i := sort.SearchStrings(list, id)
	if i < len(list) && list[i] == id {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}
