// Package store provides the reference match state container consumed by the
// UI layer. It is constructed explicitly and injected; there is no package
// singleton.
package store

import (
	"context"
	"sync"

	"github.com/marlow/watchdex/internal/domain"
)

// Status is the lifecycle state of the store.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusMatching Status = "matching"
	StatusMatched  Status = "matched"
	StatusFailed   Status = "failed"
)

// Matcher scores an extraction against the reference library.
type Matcher interface {
	FindMatches(ctx context.Context, extraction *domain.WatchPhotoExtraction, sessionID string) ([]domain.MatchResult, error)
}

// Snapshot is an immutable view of the store. Mutation methods return fresh
// snapshots; callers never observe shared mutable state.
type Snapshot struct {
	Status   Status
	Matches  []domain.MatchResult
	Selected *domain.MatchResult
	Error    string
}

// ReferenceStore holds the latest extraction's match results and the
// selected match, and orchestrates calls to the matcher.
//
// Every FindMatches call is stamped with a monotonically increasing sequence
// number; a call whose number is no longer the latest when it resolves is
// discarded, so a slow superseded request can never clobber newer results.
type ReferenceStore struct {
	mu      sync.Mutex
	matcher Matcher
	lastSeq uint64
	snap    Snapshot
}

// New creates a ReferenceStore bound to the given matcher.
// Parameters:
//   - matcher: match service or equivalent implementation.
// Returns:
//   - *ReferenceStore: store in the idle state.
func New(matcher Matcher) *ReferenceStore {
	return &ReferenceStore{
		matcher: matcher,
		snap:    Snapshot{Status: StatusIdle},
	}
}

// FindMatches runs a matching request and applies the outcome unless a newer
// request was issued meanwhile. On success the top-ranked match is
// auto-selected; on failure the match list is cleared and the error message
// recorded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - extraction: attributes to match.
//   - sessionID: analysis session identifier; may be blank.
// Returns:
//   - Snapshot: store state after this call resolved.
//   - error: the matcher error, nil when superseded or successful.
func (s *ReferenceStore) FindMatches(ctx context.Context, extraction *domain.WatchPhotoExtraction, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	s.lastSeq++
	seq := s.lastSeq
	s.snap.Status = StatusMatching
	s.snap.Error = ""
	s.mu.Unlock()

	matches, err := s.matcher.FindMatches(ctx, extraction, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.lastSeq {
		// A newer request owns the state now.
		return s.copyLocked(), nil
	}

	if err != nil {
		s.snap = Snapshot{
			Status:  StatusFailed,
			Matches: []domain.MatchResult{},
			Error:   err.Error(),
		}
		return s.copyLocked(), err
	}

	s.snap = Snapshot{
		Status:  StatusMatched,
		Matches: matches,
	}
	if len(matches) > 0 {
		top := matches[0]
		s.snap.Selected = &top
	}
	return s.copyLocked(), nil
}

// SelectMatch sets the selected match to the result with the given reference
// ID, or to nil when it is not in the current list. Allowed in any state;
// never touches the status or error fields.
func (s *ReferenceStore) SelectMatch(referenceID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Selected = nil
	for i := range s.snap.Matches {
		if s.snap.Matches[i].ReferenceID == referenceID {
			m := s.snap.Matches[i]
			s.snap.Selected = &m
			break
		}
	}
	return s.copyLocked()
}

// ClearResults resets the store to the idle state with all fields nulled.
// Always permitted, regardless of the current state.
func (s *ReferenceStore) ClearResults() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeq++ // invalidates any in-flight request
	s.snap = Snapshot{Status: StatusIdle}
	return s.copyLocked()
}

// Snapshot returns a copy of the current state.
func (s *ReferenceStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *ReferenceStore) copyLocked() Snapshot {
	out := Snapshot{
		Status: s.snap.Status,
		Error:  s.snap.Error,
	}
	if s.snap.Matches != nil {
		out.Matches = make([]domain.MatchResult, len(s.snap.Matches))
		copy(out.Matches, s.snap.Matches)
	}
	if s.snap.Selected != nil {
		sel := *s.snap.Selected
		out.Selected = &sel
	}
	return out
}
