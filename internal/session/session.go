package session

import (
	"slices"
	"sync"
	"time"

	"github.com/gnoswap-labs/semdiff/internal/compare"
	"github.com/gnoswap-labs/semdiff/internal/ir"
)

type cacheEntry struct {
	State        compare.CacheState
	Verdict      compare.Verdict
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Session is the state shared by every comparison of one run: the pairwise
// result cache, the callee pairs found without a body and the calls worth
// inlining. It is safe for concurrent use.
type Session struct {
	entries map[compare.Pair]cacheEntry
	mutex   sync.RWMutex

	missing     []compare.MissingDefinition
	seenMissing map[compare.MissingDefinition]bool
	inline      []compare.InlineCandidate
}

var _ compare.Session = (*Session)(nil)

func New() *Session {
	return &Session{
		entries:     make(map[compare.Pair]cacheEntry),
		seenMissing: make(map[compare.MissingDefinition]bool),
	}
}

func (s *Session) Lookup(l, r *ir.Procedure) (compare.CacheState, compare.Verdict) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := compare.Pair{Left: l, Right: r}
	entry, exists := s.entries[key]
	if !exists {
		return compare.NotStarted, 0
	}
	entry.LastAccessed = time.Now()
	s.entries[key] = entry

	return entry.State, entry.Verdict
}

func (s *Session) Begin(l, r *ir.Procedure) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	s.entries[compare.Pair{Left: l, Right: r}] = cacheEntry{
		State:        compare.InProgress,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

func (s *Session) Finish(l, r *ir.Procedure, v compare.Verdict) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := compare.Pair{Left: l, Right: r}
	entry := s.entries[key]
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.State = compare.Done
	entry.Verdict = v
	entry.LastAccessed = time.Now()
	s.entries[key] = entry
}

// AddMissingDefinition records d once.
func (s *Session) AddMissingDefinition(d compare.MissingDefinition) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.seenMissing[d] {
		return
	}
	s.seenMissing[d] = true
	s.missing = append(s.missing, d)
}

func (s *Session) EnqueueInlineCandidate(c compare.InlineCandidate) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.inline = append(s.inline, c)
}

// MissingDefinitions returns the recorded bodyless callee pairs in the order
// they were found.
func (s *Session) MissingDefinitions() []compare.MissingDefinition {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return slices.Clone(s.missing)
}

// InlineCandidates returns the queued inline candidates.
func (s *Session) InlineCandidates() []compare.InlineCandidate {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return slices.Clone(s.inline)
}

// Len returns the number of cached pairs.
func (s *Session) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// InvalidateAll forgets every cached verdict. The missing definitions and
// inline candidates are kept.
func (s *Session) InvalidateAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[compare.Pair]cacheEntry)
}
