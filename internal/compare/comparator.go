// Package compare decides whether two versions of a procedure are
// equivalent.
//
// The comparator walks both control-flow graphs breadth first from their
// entries and compares matched blocks operation by operation. Local values
// are interchangeable when they were numbered identically on each side, so
// renaming never matters. Compiler noise is absorbed by a set of rules:
// ignorable casts and negations are skipped, field-access chains compare by
// the member they select, allocations compare by the aggregate they
// allocate, independent operations may be found a few positions away, and
// branches compare modulo swapped targets with a negated condition.
//
// The first difference that no rule explains rejects the pair.
package compare

import (
	"cmp"
	"maps"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// Options configures a Comparator.
type Options struct {
	// ControlFlowOnly relaxes integer and array types so that only the
	// control flow and the values compared along it matter.
	ControlFlowOnly bool
	// RelocationDistance is how many positions ahead an operation may be
	// found when independent operations were reordered.
	RelocationDistance int
	// Lookahead bounds the number of consecutive ignorable operations
	// skipped at one position.
	Lookahead int
	// SideEffectFree callees compare equal by name without recursion.
	SideEffectFree []string
	// Allocators take the allocated size as their first argument.
	Allocators []string
	// Memsets take (destination, fill value, size).
	Memsets []string
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		RelocationDistance: 4,
		Lookahead:          16,
		SideEffectFree: []string{
			"printk", "_printk", "__dynamic_pr_debug", "__warn_printk",
			"llvm.dbg.value", "llvm.dbg.declare", "llvm.lifetime.start", "llvm.lifetime.end",
		},
		Allocators: []string{"kmalloc", "__kmalloc", "kzalloc", "kmalloc_large", "malloc", "calloc", "new"},
		Memsets:    []string{"memset", "llvm.memset.p0i8.i64", "llvm.memset"},
	}
}

// Comparator compares procedure pairs within one session.
type Comparator struct {
	opts    Options
	session Session
	logger  *zap.Logger
}

// New creates a comparator. A nil session uses a private memo table that
// discards side obligations; a nil logger disables logging.
func New(opts Options, session Session, logger *zap.Logger) *Comparator {
	if session == nil {
		session = newMemo()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{opts: opts, session: session, logger: logger}
}

// Compare compares l with r, consulting the session cache.
func (c *Comparator) Compare(l, r *ir.Procedure) Report {
	switch state, v := c.session.Lookup(l, r); state {
	case Done:
		return Report{Left: l.Name(), Right: r.Name(), Verdict: v, Reason: ReasonCached}
	case InProgress:
		return Report{Left: l.Name(), Right: r.Name(), Verdict: Equal, Reason: ReasonInProgress}
	}

	c.session.Begin(l, r)
	rep := newRun(c, l, r).exec()
	c.session.Finish(l, r, rep.Verdict)

	if rep.Verdict == NotEqual {
		fields := []zap.Field{
			zap.String("left", l.Name()),
			zap.String("right", r.Name()),
			zap.Stringer("reason", rep.Reason),
			zap.String("detail", rep.Detail),
		}
		if m := rep.Mismatch; m != nil {
			fields = append(fields, zap.String("left_block", m.LeftBlock), zap.String("right_block", m.RightBlock))
		}
		c.logger.Debug("procedures differ", fields...)
	}
	return rep
}

// failure is the first unexplained difference of a run.
type failure struct {
	reason     ReasonCode
	detail     string
	left       *ir.Operation
	right      *ir.Operation
	leftBlock  *ir.Block
	rightBlock *ir.Block
}

// side holds the per-procedure half of the run state.
type side struct {
	proc  *ir.Procedure
	debug *ir.DebugInfo

	// serial numbers of locals and blocks, assigned on first sight
	values map[ir.Value]int
	blocks map[*ir.Block]int

	// ignorable operations resolve to the value they stand for
	alias map[*ir.Operation]ir.Value
	// negations consumed only by branches, mapped to their operand
	negation map[*ir.Operation]ir.Value
}

func newSide(p *ir.Procedure) *side {
	s := &side{
		proc:     p,
		values:   make(map[ir.Value]int),
		blocks:   make(map[*ir.Block]int),
		alias:    make(map[*ir.Operation]ir.Value),
		negation: make(map[*ir.Operation]ir.Value),
	}
	if p.Module != nil {
		s.debug = p.Module.Debug
	}
	s.findIgnorable()
	return s
}

// run is the state of one top-level comparison. It is rebuilt for every
// pair, nested callee comparisons get their own.
type run struct {
	c    *Comparator
	l, r *side

	// swapped records conditional branches whose targets pair crosswise
	swapped map[*ir.Operation]bool
	// negated records inverse comparisons matched with each other
	negated map[*ir.Operation]bool

	missing []MissingDefinition
	inline  []InlineCandidate

	curL, curR *ir.Block
	fail       *failure
}

func newRun(c *Comparator, l, r *ir.Procedure) *run {
	return &run{
		c:       c,
		l:       newSide(l),
		r:       newSide(r),
		swapped: make(map[*ir.Operation]bool),
		negated: make(map[*ir.Operation]bool),
	}
}

// checkpoint is a restorable snapshot of the mutable run state.
type checkpoint struct {
	lv, rv  map[ir.Value]int
	lb, rb  map[*ir.Block]int
	swapped map[*ir.Operation]bool
	negated map[*ir.Operation]bool
	missing int
	inline  int
	fail    *failure
}

func (r *run) save() checkpoint {
	return checkpoint{
		lv:      maps.Clone(r.l.values),
		rv:      maps.Clone(r.r.values),
		lb:      maps.Clone(r.l.blocks),
		rb:      maps.Clone(r.r.blocks),
		swapped: maps.Clone(r.swapped),
		negated: maps.Clone(r.negated),
		missing: len(r.missing),
		inline:  len(r.inline),
		fail:    r.fail,
	}
}

func (r *run) restore(cp checkpoint) {
	r.l.values, r.r.values = cp.lv, cp.rv
	r.l.blocks, r.r.blocks = cp.lb, cp.rb
	r.swapped, r.negated = cp.swapped, cp.negated
	r.missing = r.missing[:cp.missing]
	r.inline = r.inline[:cp.inline]
	r.fail = cp.fail
}

// differ records the first failure of the current attempt and returns res.
func (r *run) differ(res int, reason ReasonCode, detail string, left, right *ir.Operation) int {
	if res == 0 {
		return 0
	}
	if r.fail == nil {
		r.fail = &failure{
			reason:     reason,
			detail:     detail,
			left:       left,
			right:      right,
			leftBlock:  r.curL,
			rightBlock: r.curR,
		}
	}
	return res
}

func (r *run) exec() Report {
	rep := Report{Left: r.l.proc.Name(), Right: r.r.proc.Name()}
	res := r.compareProcedures()

	for _, d := range r.missing {
		r.c.session.AddMissingDefinition(d)
	}
	for _, ic := range r.inline {
		r.c.session.EnqueueInlineCandidate(ic)
	}

	if res == 0 {
		rep.Verdict = Equal
		rep.Reason = ReasonSameStructure
		return rep
	}
	rep.Verdict = NotEqual
	if f := r.fail; f != nil {
		rep.Reason = f.reason
		rep.Detail = f.detail
		m := &Mismatch{Left: f.left, Right: f.right}
		if f.leftBlock != nil {
			m.LeftBlock = f.leftBlock.Name()
		}
		if f.rightBlock != nil {
			m.RightBlock = f.rightBlock.Name()
		}
		rep.Mismatch = m
	}
	return rep
}

// compareProcedures compares signatures, then blocks in breadth-first order
// from the entries.
func (r *run) compareProcedures() int {
	lp, rp := r.l.proc, r.r.proc
	if res := r.cmpSignatures(lp.Sig, rp.Sig); res != 0 {
		return r.differ(res, ReasonSignature, lp.Sig.String()+" vs "+rp.Sig.String(), nil, nil)
	}
	if lp.IsDeclaration() || rp.IsDeclaration() {
		r.missing = append(r.missing, MissingDefinition{
			Left:         lp.Name(),
			Right:        rp.Name(),
			LeftMissing:  lp.IsDeclaration(),
			RightMissing: rp.IsDeclaration(),
		})
		res := cmp.Compare(len(lp.Blocks), len(rp.Blocks))
		return r.differ(res, ReasonMissingDefinition, "", nil, nil)
	}
	for i := range lp.Params {
		r.cmpValues(lp.Params[i], rp.Params[i])
	}

	type pair struct{ l, r *ir.Block }
	queue := []pair{{lp.Entry(), rp.Entry()}}
	visited := map[*ir.Block]bool{lp.Entry(): true}
	for len(queue) > 0 {
		bp := queue[0]
		queue = queue[1:]
		r.curL, r.curR = bp.l, bp.r

		if res := r.cmpBlockRefs(bp.l, bp.r); res != 0 {
			return r.differ(res, ReasonDifferentBranch, "blocks "+bp.l.Name()+" and "+bp.r.Name()+" do not correspond", nil, nil)
		}
		if res := r.cmpBlocks(bp.l, bp.r); res != 0 {
			return res
		}

		tl, tr := bp.l.Terminator(), bp.r.Terminator()
		ls, rs := tl.Targets, tr.Targets
		if r.swapped[tl] {
			rs = []*ir.Block{rs[1], rs[0]}
		}
		for i := range ls {
			if !visited[ls[i]] {
				visited[ls[i]] = true
				queue = append(queue, pair{ls[i], rs[i]})
			}
		}
	}
	return 0
}

func (r *run) cmpSignatures(a, b *ir.Type) int {
	if res := cmpBool(a.Variadic, b.Variadic); res != 0 {
		return res
	}
	if res := cmp.Compare(len(a.Params), len(b.Params)); res != 0 {
		return res
	}
	if res := r.cmpTypes(a.Result, b.Result); res != 0 {
		return res
	}
	for i := range a.Params {
		if res := r.cmpTypes(a.Params[i], b.Params[i]); res != 0 {
			return res
		}
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
