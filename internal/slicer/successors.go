package slicer

import (
	"slices"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// close is phase 2. It includes the operands of dependent operations, keeps
// the return terminators and picks one successor for every excluded
// terminator. Terminators that need more than one successor are included,
// which may pull in more operations, so decisions repeat until stable.
func (s *Slicer) close(st *state) {
	st.dom = ir.Dominators(st.proc)
	s.keepReturns(st)
	st.closeOperands()

	for round := 1; ; round++ {
		clear(st.choice)
		forced := false
		for _, b := range st.proc.Blocks {
			t := b.Terminator()
			if t == nil || st.included[t] {
				continue
			}
			succs := b.Succs()
			if len(succs) == 0 {
				st.include(t)
				continue
			}
			keep := st.necessarySuccessors(b, succs)
			if len(keep) > 1 {
				s.logger.Debug("terminator needs several successors",
					zap.String("block", b.Name()),
					zap.Int("round", round))
				st.include(t)
				forced = true
				continue
			}
			st.choice[b] = keep[0]
		}
		for _, b := range st.strandingChoices() {
			s.logger.Debug("choice would strand the slice",
				zap.String("block", b.Name()),
				zap.Int("round", round))
			st.include(b.Terminator())
			forced = true
		}
		st.closeOperands()
		if !forced {
			return
		}
	}
}

// keepReturns includes the return terminators. A return whose value does not
// depend on the symbol is replaced by a return of a constant.
func (s *Slicer) keepReturns(st *state) {
	for _, b := range st.proc.ReturnBlocks() {
		ret := b.Terminator()
		if st.included[ret] {
			continue
		}
		if len(ret.Operands) > 0 {
			if _, ok := ret.Operands[0].(*ir.Const); !ok {
				var v ir.Value = ir.Undef(ret.Operands[0].Type())
				if rt := st.proc.ReturnType(); rt.IsInteger() {
					v = ir.Zero(rt)
				}
				b.SetTerminator(ir.NewReturn(v))
				ret = b.Terminator()
				st.synthesized = true
			}
		}
		st.include(ret)
	}
}

// necessarySuccessors returns the successors of b that lead to parts of the
// slice no other successor leads to. It always returns at least one block.
// The return block only counts when it holds included operations besides
// its terminator.
func (st *state) necessarySuccessors(b *ir.Block, succs []*ir.Block) []*ir.Block {
	ret := st.proc.ReturnBlock()
	skipRet := ret != nil && !st.holdsIncludedOps(ret)
	sets := make([]map[*ir.Block]bool, len(succs))
	for i, succ := range succs {
		sets[i] = make(map[*ir.Block]bool)
		for r := range ir.Reachable(succ) {
			if st.includedBlocks[r] && !(skipRet && r == ret) {
				sets[i][r] = true
			}
		}
	}

	var keep []*ir.Block
	for i := range succs {
		subsumed := false
		for j := range succs {
			if i == j {
				continue
			}
			switch {
			case strictSubset(sets[i], sets[j]):
				subsumed = true
			case sameSet(sets[i], sets[j]):
				subsumed = st.prefer(b, succs, j, i, len(sets[i]) == 0)
			}
			if subsumed {
				break
			}
		}
		if !subsumed {
			keep = append(keep, succs[i])
		}
	}
	return keep
}

func (st *state) holdsIncludedOps(b *ir.Block) bool {
	for _, op := range b.Ops {
		if !op.IsTerminator() && st.included[op] {
			return true
		}
	}
	return false
}

// prefer reports whether successor j wins over successor i when both lead to
// the same part of the slice. A successor that reaches the return without
// coming back through b wins first. Then non-empty sets favor a forward edge
// over a back-edge, and otherwise the earlier successor wins.
func (st *state) prefer(b *ir.Block, succs []*ir.Block, j, i int, empty bool) bool {
	if ret := st.proc.ReturnBlock(); ret != nil {
		rj := reachableAvoiding(succs[j], b)[ret]
		ri := reachableAvoiding(succs[i], b)[ret]
		if rj != ri {
			return rj
		}
	}
	if !empty {
		bj := st.dom.IsBackEdge(b, succs[j])
		bi := st.dom.IsBackEdge(b, succs[i])
		if bj != bi {
			return !bj
		}
	}
	return j < i
}

// strandingChoices returns the blocks whose recorded choice would leave an
// included block unreachable from the entry, or would send a path that can
// return into a cycle that cannot. When some trapped block has a successor
// that still returns, only such blocks are returned. Blocks with a single
// successor never strand anything.
func (st *state) strandingChoices() []*ir.Block {
	ret := st.proc.ReturnBlock()
	succs := func(b *ir.Block) []*ir.Block {
		if c, ok := st.choice[b]; ok {
			return []*ir.Block{c}
		}
		return b.Succs()
	}
	live := walk(st.proc.Entry(), succs)
	returns := make(map[*ir.Block]bool)
	if ret != nil {
		for _, b := range st.proc.Blocks {
			if walk(b, succs)[ret] {
				returns[b] = true
			}
		}
	}

	var stranding, trapped, escapes []*ir.Block
	for _, b := range st.proc.Blocks {
		if _, ok := st.choice[b]; !ok || !live[b] || len(b.Succs()) < 2 {
			continue
		}
		original := ir.Reachable(b)
		for r := range original {
			if st.includedBlocks[r] && !live[r] {
				stranding = append(stranding, b)
				break
			}
		}
		if ret == nil || !original[ret] || returns[b] {
			continue
		}
		trapped = append(trapped, b)
		for _, succ := range b.Succs() {
			if returns[succ] {
				escapes = append(escapes, b)
				break
			}
		}
	}
	if len(escapes) > 0 {
		trapped = escapes
	}
	for _, b := range trapped {
		if !slices.Contains(stranding, b) {
			stranding = append(stranding, b)
		}
	}
	return stranding
}

// walk returns the blocks reachable from root when every block b continues
// to next(b).
func walk(root *ir.Block, next func(*ir.Block) []*ir.Block) map[*ir.Block]bool {
	seen := make(map[*ir.Block]bool)
	worklist := []*ir.Block{root}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if b == nil || seen[b] {
			continue
		}
		seen[b] = true
		worklist = append(worklist, next(b)...)
	}
	return seen
}

// reachableAvoiding returns the blocks reachable from root without passing
// through avoid.
func reachableAvoiding(root, avoid *ir.Block) map[*ir.Block]bool {
	return walk(root, func(b *ir.Block) []*ir.Block {
		if b == avoid {
			return nil
		}
		return b.Succs()
	})
}

func strictSubset(a, b map[*ir.Block]bool) bool {
	if len(a) >= len(b) {
		return false
	}
	for x := range a {
		if !b[x] {
			return false
		}
	}
	return true
}

func sameSet(a, b map[*ir.Block]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for x := range a {
		if !b[x] {
			return false
		}
	}
	return true
}
