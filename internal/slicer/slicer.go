// Package slicer reduces a procedure to the part whose execution or result
// can be influenced by one tracked symbol (a parameter or a global).
//
// Slicing runs in three phases. Marking finds the operations that depend on
// the symbol, including whole blocks that are control dependent on a
// dependent branch. Closure adds the operands those operations need and
// decides, for every branch that is kept out of the slice, which successor
// to follow. Rewriting replaces excluded branches by jumps, deletes excluded
// operations and removes the blocks that became empty.
package slicer

import (
	"slices"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// Options configures a Slicer.
type Options struct {
	// AlwaysInclude names marker intrinsics that stay in the slice whenever
	// one of their arguments is dependent.
	AlwaysInclude []string
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{AlwaysInclude: []string{"llvm.dbg.value", "llvm.dbg.declare"}}
}

// Stats describes the outcome of one slicing run.
type Stats struct {
	Dependent            int
	Included             int
	RemovedOps           int
	RemovedBlocks        int
	RewrittenTerminators int
	// Changed reports whether the procedure was modified.
	Changed bool
}

// Slicer slices procedures by dependency on a tracked symbol.
type Slicer struct {
	opts   Options
	logger *zap.Logger
}

// New creates a slicer. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Slicer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slicer{opts: opts, logger: logger}
}

// state is rebuilt for every (procedure, symbol) pair.
type state struct {
	proc   *ir.Procedure
	symbol ir.Value

	dependent      map[*ir.Operation]bool
	included       map[*ir.Operation]bool
	affected       map[*ir.Block]bool
	includedBlocks map[*ir.Block]bool
	choice         map[*ir.Block]*ir.Block

	dom  *ir.DomTree
	work []*ir.Operation
	// synthesized is set when a return was replaced during closure.
	synthesized bool
}

func newState(p *ir.Procedure, symbol ir.Value) *state {
	return &state{
		proc:           p,
		symbol:         symbol,
		dependent:      make(map[*ir.Operation]bool),
		included:       make(map[*ir.Operation]bool),
		affected:       make(map[*ir.Block]bool),
		includedBlocks: make(map[*ir.Block]bool),
		choice:         make(map[*ir.Block]*ir.Block),
	}
}

// SliceByDependency slices p by symbol and reports whether anything in p
// depends on it. p is only modified when it does.
func (s *Slicer) SliceByDependency(p *ir.Procedure, symbol ir.Value) bool {
	return s.Run(p, symbol).Dependent > 0
}

// Run slices p by symbol and returns statistics about the rewrite.
func (s *Slicer) Run(p *ir.Procedure, symbol ir.Value) Stats {
	if p.IsDeclaration() || symbol == nil {
		return Stats{}
	}
	st := newState(p, symbol)
	s.mark(st)
	if len(st.dependent) == 0 {
		s.logger.Debug("nothing depends on symbol",
			zap.String("procedure", p.Name()),
			zap.String("symbol", symbol.Ref()))
		return Stats{}
	}

	s.close(st)
	stats := s.rewrite(st)
	stats.Dependent = len(st.dependent)
	stats.Included = len(st.included)

	s.logger.Debug("sliced procedure",
		zap.String("procedure", p.Name()),
		zap.String("symbol", symbol.Ref()),
		zap.Int("dependent", stats.Dependent),
		zap.Int("removed_ops", stats.RemovedOps),
		zap.Int("removed_blocks", stats.RemovedBlocks),
		zap.Bool("changed", stats.Changed))
	return stats
}

// mark is phase 1: a single forward pass in layout order.
func (s *Slicer) mark(st *state) {
	for _, b := range st.proc.Blocks {
		if st.affected[b] {
			continue
		}
		for _, op := range b.Ops {
			if st.dependent[op] || !s.dependsOn(st, op) {
				continue
			}
			st.markDependent(op)
			if op.IsTerminator() && len(b.Succs()) > 1 {
				s.markAffected(st, op)
			}
		}
	}
}

func (s *Slicer) dependsOn(st *state, op *ir.Operation) bool {
	if op.Op == ir.OpPhi {
		for _, in := range op.Incoming {
			if st.affected[in] {
				return true
			}
		}
	}
	if op.Op == ir.OpCall && s.isAlwaysIncluded(op) {
		for _, a := range op.Args() {
			if st.isDependentValue(a) {
				return true
			}
		}
		return false
	}
	for _, v := range op.Operands {
		if st.isDependentValue(v) {
			return true
		}
	}
	return false
}

func (s *Slicer) isAlwaysIncluded(call *ir.Operation) bool {
	callee := call.CalledProcedure()
	return callee != nil && slices.Contains(s.opts.AlwaysInclude, callee.Name())
}

// markAffected marks every block reachable through some but not all
// successors of the dependent branch t.
func (s *Slicer) markAffected(st *state, t *ir.Operation) {
	succs := t.Block().Succs()
	sets := make([]map[*ir.Block]bool, len(succs))
	for i, succ := range succs {
		sets[i] = ir.Reachable(succ)
	}
	for _, b := range st.proc.Blocks {
		n := 0
		for _, set := range sets {
			if set[b] {
				n++
			}
		}
		if n == 0 || n == len(sets) || st.affected[b] {
			continue
		}
		st.affected[b] = true
		st.includedBlocks[b] = true
		for _, op := range b.Ops {
			st.markDependent(op)
		}
	}
}

func (st *state) isDependentValue(v ir.Value) bool {
	if v == st.symbol {
		return true
	}
	op, ok := v.(*ir.Operation)
	return ok && st.dependent[op]
}

func (st *state) markDependent(op *ir.Operation) {
	st.dependent[op] = true
	st.include(op)
}

// include adds op and its block to the slice and queues op for closure.
func (st *state) include(op *ir.Operation) {
	if st.included[op] {
		return
	}
	st.included[op] = true
	st.includedBlocks[op.Block()] = true
	st.work = append(st.work, op)
}

// closeOperands includes the operands of every queued operation, except
// those of phis, which only matter along their own edges.
func (st *state) closeOperands() {
	for len(st.work) > 0 {
		op := st.work[len(st.work)-1]
		st.work = st.work[:len(st.work)-1]
		if op.Op == ir.OpPhi {
			continue
		}
		for _, v := range op.Operands {
			if o, ok := v.(*ir.Operation); ok {
				st.include(o)
			}
		}
	}
}
