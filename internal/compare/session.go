package compare

import "github.com/gnoswap-labs/semdiff/internal/ir"

// CacheState is the state of a procedure pair in the pairwise result cache.
type CacheState int

const (
	NotStarted CacheState = iota
	// InProgress pairs are on the comparison stack. They count as equal,
	// which breaks cycles between mutually recursive procedures.
	InProgress
	Done
)

func (s CacheState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case InProgress:
		return "InProgress"
	case Done:
		return "Done"
	default:
		return "?"
	}
}

// Pair is an ordered pair of procedures, left from the old version and right
// from the new one.
type Pair struct {
	Left  *ir.Procedure
	Right *ir.Procedure
}

// MissingDefinition records a compared callee pair lacking a body.
type MissingDefinition struct {
	Left  string
	Right string
	// LeftMissing and RightMissing tell which side has no body.
	LeftMissing  bool
	RightMissing bool
}

// InlineCandidate records a call mismatch that inlining the callees into
// their callers might resolve. Either call may be nil.
type InlineCandidate struct {
	Caller Pair
	Left   *ir.Operation
	Right  *ir.Operation
}

// Session is the orchestrator state shared by all comparisons of one run.
// The comparator reads and writes it but does not own it.
type Session interface {
	// Lookup returns the cache state of (l, r) and, when Done, its verdict.
	Lookup(l, r *ir.Procedure) (CacheState, Verdict)
	// Begin marks (l, r) as InProgress.
	Begin(l, r *ir.Procedure)
	// Finish stores the verdict of (l, r) and marks it Done.
	Finish(l, r *ir.Procedure, v Verdict)
	AddMissingDefinition(d MissingDefinition)
	EnqueueInlineCandidate(c InlineCandidate)
}

type memoEntry struct {
	state   CacheState
	verdict Verdict
}

// memo is the session used when the caller provides none. It has no
// locking and drops the side obligations.
type memo struct {
	entries map[Pair]memoEntry
}

func newMemo() *memo {
	return &memo{entries: make(map[Pair]memoEntry)}
}

func (m *memo) Lookup(l, r *ir.Procedure) (CacheState, Verdict) {
	e := m.entries[Pair{l, r}]
	return e.state, e.verdict
}

func (m *memo) Begin(l, r *ir.Procedure) {
	m.entries[Pair{l, r}] = memoEntry{state: InProgress}
}

func (m *memo) Finish(l, r *ir.Procedure, v Verdict) {
	m.entries[Pair{l, r}] = memoEntry{state: Done, verdict: v}
}

func (m *memo) AddMissingDefinition(MissingDefinition) {}
func (m *memo) EnqueueInlineCandidate(InlineCandidate) {}
