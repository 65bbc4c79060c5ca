package slicer

import (
	"slices"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// rewrite is phase 3.
func (s *Slicer) rewrite(st *state) Stats {
	var stats Stats
	stats.RewrittenTerminators = s.rewriteTerminators(st)
	stats.RemovedOps = s.removeOperations(st)
	stats.RemovedBlocks = s.removeBlocks(st)
	stats.Changed = st.synthesized ||
		stats.RewrittenTerminators > 0 ||
		stats.RemovedOps > 0 ||
		stats.RemovedBlocks > 0
	return stats
}

// rewriteTerminators turns every excluded terminator into a jump to the
// successor chosen for its block.
func (s *Slicer) rewriteTerminators(st *state) int {
	n := 0
	for _, b := range st.proc.Blocks {
		t := b.Terminator()
		if t == nil || st.included[t] {
			continue
		}
		target, ok := st.choice[b]
		if !ok {
			st.included[t] = true
			continue
		}
		if t.Op == ir.OpBr && t.Targets[0] == target {
			st.included[t] = true
			continue
		}
		for _, succ := range b.Succs() {
			if succ != target {
				succ.RemovePhiIncoming(b)
			}
		}
		b.SetTerminator(ir.NewBranch(target))
		st.included[b.Terminator()] = true
		n++
	}
	return n
}

// removeOperations deletes every operation outside the slice. Remaining
// uses see an undefined value.
func (s *Slicer) removeOperations(st *state) int {
	n := 0
	for _, b := range st.proc.Blocks {
		for _, op := range slices.Clone(b.Ops) {
			if st.included[op] || op.IsTerminator() {
				continue
			}
			if op.HasResult() {
				st.proc.ReplaceAllUsesWith(op, ir.Undef(op.Typ))
			}
			b.Remove(op)
			n++
		}
	}
	return n
}

func (s *Slicer) removeBlocks(st *state) int {
	n := s.removeUnreachable(st)

	for entry := st.proc.Entry(); entry != nil && !st.includedBlocks[entry]; entry = st.proc.Entry() {
		succ := soleSuccessor(entry)
		if succ == nil || succ == entry || len(succ.Preds()) != 1 {
			break
		}
		for _, phi := range succ.Phis() {
			v, ok := phi.IncomingFor(entry)
			if !ok {
				v = ir.Undef(phi.Typ)
			}
			st.proc.ReplaceAllUsesWith(phi, v)
			succ.Remove(phi)
		}
		st.proc.RemoveBlock(entry)
		st.proc.SetEntry(succ)
		n++
	}

	for _, b := range slices.Clone(st.proc.Blocks) {
		if st.includedBlocks[b] || b.IsDetached() || b.IsEntry() {
			continue
		}
		if s.fold(st, b) {
			n++
			continue
		}
		s.logger.Debug("keeping block outside the slice",
			zap.String("procedure", st.proc.Name()),
			zap.String("block", b.Name()))
	}
	return n
}

// removeUnreachable deletes the excluded blocks no longer reachable from the
// entry. Included blocks always stay.
func (s *Slicer) removeUnreachable(st *state) int {
	live := ir.Reachable(st.proc.Entry())
	var dead []*ir.Block
	for _, b := range st.proc.Blocks {
		if !live[b] && !st.includedBlocks[b] {
			dead = append(dead, b)
		}
	}
	for _, b := range dead {
		for _, op := range b.Ops {
			if op.HasResult() {
				st.proc.ReplaceAllUsesWith(op, ir.Undef(op.Typ))
			}
		}
		st.proc.RemoveBlock(b)
	}
	return len(dead)
}

// fold removes b, an empty block jumping to its successor, by redirecting
// its predecessors to that successor. It refuses when a phi of the
// successor would receive two different values along one edge.
func (s *Slicer) fold(st *state, b *ir.Block) bool {
	succ := soleSuccessor(b)
	if succ == nil || succ == b || len(b.Ops) != 1 {
		return false
	}
	preds := b.Preds()
	if slices.Contains(preds, b) {
		return false
	}

	phis := succ.Phis()
	for _, phi := range phis {
		v, _ := phi.IncomingFor(b)
		for _, p := range preds {
			if w, ok := phi.IncomingFor(p); ok && !sameValue(w, v) {
				return false
			}
		}
	}

	for _, phi := range phis {
		v, _ := phi.IncomingFor(b)
		phi.RemoveIncoming(b)
		for _, p := range preds {
			if _, ok := phi.IncomingFor(p); !ok {
				phi.AddIncoming(v, p)
			}
		}
	}
	for _, p := range preds {
		p.Terminator().ReplaceTarget(b, succ)
	}
	st.proc.RemoveBlock(b)
	return true
}

func soleSuccessor(b *ir.Block) *ir.Block {
	t := b.Terminator()
	if t == nil || t.Op != ir.OpBr {
		return nil
	}
	return t.Targets[0]
}

func sameValue(a, b ir.Value) bool {
	if a == b {
		return true
	}
	ca, ok1 := a.(*ir.Const)
	cb, ok2 := b.(*ir.Const)
	return ok1 && ok2 && ca.SameValue(cb) && ir.Identical(ca.Typ, cb.Typ)
}
