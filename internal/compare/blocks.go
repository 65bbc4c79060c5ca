package compare

import (
	"cmp"
	"slices"

	"github.com/gnoswap-labs/semdiff/internal/fieldaccess"
	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// findIgnorable classifies the operations of a side that the lock-step walk
// skips: casts without an arithmetic user, casts out of unions and boolean
// negations used only by branches.
func (s *side) findIgnorable() {
	for _, op := range s.proc.Operations() {
		if inChain(op) {
			continue
		}
		switch {
		case isUnionCast(op):
			s.alias[op] = op.Operands[0]
		case isNoopCast(op) && !hasArithmeticUser(s.proc, op):
			s.alias[op] = op.Operands[0]
		case isNegation(op) && usedOnlyByBranches(s.proc, op):
			s.negation[op] = negated(op)
		}
	}
}

func (s *side) ignorable(op *ir.Operation) bool {
	if _, ok := s.alias[op]; ok {
		return true
	}
	_, ok := s.negation[op]
	return ok
}

// resolve follows ignorable casts back to the value they stand for.
func (s *side) resolve(v ir.Value) ir.Value {
	for {
		op, ok := v.(*ir.Operation)
		if !ok {
			return v
		}
		next, ok := s.alias[op]
		if !ok {
			return v
		}
		v = next
	}
}

// stripNegation returns the condition a branch really tests and whether it
// is negated.
func (s *side) stripNegation(v ir.Value) (ir.Value, bool) {
	v = s.resolve(v)
	if op, ok := v.(*ir.Operation); ok {
		if base, ok := s.negation[op]; ok {
			return s.resolve(base), true
		}
	}
	return v, false
}

func inChain(op *ir.Operation) bool {
	c, ok := fieldaccess.At(op)
	return ok && c.Len() > 1
}

func isUnionCast(op *ir.Operation) bool {
	if op.Op != ir.OpBitcast {
		return false
	}
	src := op.Operands[0].Type()
	return src.IsUnion() || (src.IsPointer() && src.Elem.IsUnion())
}

func isNoopCast(op *ir.Operation) bool {
	switch op.Op {
	case ir.OpTrunc, ir.OpZExt, ir.OpSExt, ir.OpBitcast, ir.OpPtrToInt, ir.OpIntToPtr:
		return true
	}
	return false
}

func hasArithmeticUser(p *ir.Procedure, op *ir.Operation) bool {
	for _, u := range p.Uses(op) {
		if u.Op.IsArithmetic() {
			return true
		}
		if u.Op == ir.OpGEP && u.Operands[0] != ir.Value(op) {
			return true
		}
	}
	return false
}

func isNegation(op *ir.Operation) bool {
	if op.Op != ir.OpXor || !op.Typ.IsBool() {
		return false
	}
	for _, v := range op.Operands {
		if c, ok := v.(*ir.Const); ok && c.IsTrue() {
			return true
		}
	}
	return false
}

// negated returns the operand a negation flips.
func negated(op *ir.Operation) ir.Value {
	if c, ok := op.Operands[1].(*ir.Const); ok && c.IsTrue() {
		return op.Operands[0]
	}
	return op.Operands[1]
}

func usedOnlyByBranches(p *ir.Procedure, op *ir.Operation) bool {
	uses := p.Uses(op)
	for _, u := range uses {
		if u.Op != ir.OpCondBr {
			return false
		}
	}
	return len(uses) > 0
}

// cursor walks the operations of one block, some of which may be consumed
// out of order.
type cursor struct {
	side *side
	ops  []*ir.Operation
	done []bool
	pos  int
}

func newCursor(s *side, b *ir.Block) *cursor {
	return &cursor{side: s, ops: b.Ops, done: make([]bool, len(b.Ops))}
}

// head returns the index of the first unconsumed operation, or -1.
func (c *cursor) head() int {
	for i := c.pos; i < len(c.ops); i++ {
		if !c.done[i] {
			return i
		}
	}
	return -1
}

func (c *cursor) consume(i int) {
	c.done[i] = true
	for c.pos < len(c.ops) && c.done[c.pos] {
		c.pos++
	}
}

func (c *cursor) consumeOp(op *ir.Operation) {
	for i := c.pos; i < len(c.ops); i++ {
		if c.ops[i] == op {
			c.consume(i)
			return
		}
	}
}

// skip consumes up to limit ignorable operations at the head.
func (c *cursor) skip(limit int) {
	for n := 0; n < limit; n++ {
		i := c.head()
		if i < 0 || !c.side.ignorable(c.ops[i]) {
			return
		}
		c.consume(i)
	}
}

// remaining counts the unconsumed operations.
func (c *cursor) remaining() int {
	n := 0
	for i := c.pos; i < len(c.ops); i++ {
		if !c.done[i] {
			n++
		}
	}
	return n
}

// cmpBlocks compares two matched blocks in lock-step.
func (r *run) cmpBlocks(bl, br *ir.Block) int {
	lc, rc := newCursor(r.l, bl), newCursor(r.r, br)
	for {
		lc.skip(r.c.opts.Lookahead)
		rc.skip(r.c.opts.Lookahead)
		li, ri := lc.head(), rc.head()
		if li < 0 || ri < 0 {
			if li < 0 && ri < 0 {
				return 0
			}
			var lop, rop *ir.Operation
			if li >= 0 {
				lop = lc.ops[li]
			}
			if ri >= 0 {
				rop = rc.ops[ri]
			}
			return r.differ(cmp.Compare(lc.remaining(), rc.remaining()), ReasonDifferentLength, "", lop, rop)
		}

		lop, rop := lc.ops[li], rc.ops[ri]
		cp := r.save()
		res, chained := r.cmpChainsAt(lc, rc, lop, rop)
		if !chained {
			res = r.cmpOps(lop, rop)
			if res == 0 {
				lc.consume(li)
				rc.consume(ri)
			}
		}
		if res == 0 {
			continue
		}

		// obligations met by the failing attempt survive a failed relocation
		failed := r.fail
		missing := slices.Clone(r.missing[cp.missing:])
		inline := slices.Clone(r.inline[cp.inline:])
		r.restore(cp)
		if r.relocate(lc, rc, li, ri) {
			continue
		}
		r.fail = failed
		r.missing = append(r.missing, missing...)
		r.inline = append(r.inline, inline...)
		return res
	}
}

// cmpChainsAt compares the field-access chains starting at lop and rop and
// consumes them on success. It reports false when neither operation starts
// a chain.
func (r *run) cmpChainsAt(lc, rc *cursor, lop, rop *ir.Operation) (int, bool) {
	lstart, rstart := fieldaccess.IsChainStart(lop), fieldaccess.IsChainStart(rop)
	if !lstart && !rstart {
		return 0, false
	}
	if !lstart || !rstart {
		return r.differ(cmpBool(lstart, rstart), ReasonDifferentFieldAccess, "field access on one side only", lop, rop), true
	}
	cl, _ := fieldaccess.At(lop)
	cr, _ := fieldaccess.At(rop)
	if res := r.cmpChains(cl, cr); res != 0 {
		return res, true
	}
	for _, op := range cl.Ops {
		lc.consumeOp(op)
	}
	for _, op := range cr.Ops {
		rc.consumeOp(op)
	}
	return 0, true
}

func (r *run) cmpChains(cl, cr *fieldaccess.Chain) int {
	lop, rop := cl.Result(), cr.Result()
	if res := r.cmpValues(cl.Base(), cr.Base()); res != 0 {
		return r.differ(res, ReasonDifferentOperand, "base of field access", lop, rop)
	}
	if !fieldaccess.Equivalent(cl, cr, r.l.debug, r.r.debug) {
		res := cmp.Compare(cl.Offset, cr.Offset)
		if res == 0 {
			res = cmp.Compare(len(cl.Steps), len(cr.Steps))
		}
		if res == 0 {
			res = 1
		}
		detail := cl.Path(r.l.debug) + " vs " + cr.Path(r.r.debug)
		return r.differ(res, ReasonDifferentFieldAccess, detail, lop, rop)
	}
	return r.differ(r.cmpValues(lop, rop), ReasonDifferentOperand, "result of field access", lop, rop)
}

// relocate looks for the head operation of one side a few positions ahead
// on the other side. The operation found must be independent of the ones it
// would move across.
func (r *run) relocate(lc, rc *cursor, li, ri int) bool {
	d := r.c.opts.RelocationDistance
	if d <= 0 {
		return false
	}
	lop, rop := lc.ops[li], rc.ops[ri]
	if movable(lop) && r.findAhead(rc, ri, d, func(cand *ir.Operation) int { return r.cmpOps(lop, cand) }) {
		lc.consume(li)
		return true
	}
	if movable(rop) && r.findAhead(lc, li, d, func(cand *ir.Operation) int { return r.cmpOps(cand, rop) }) {
		rc.consume(ri)
		return true
	}
	return false
}

func (r *run) findAhead(c *cursor, from, distance int, match func(*ir.Operation) int) bool {
	var skipped []*ir.Operation
	for j := from; j < len(c.ops) && len(skipped) <= distance; j++ {
		if c.done[j] {
			continue
		}
		cand := c.ops[j]
		if c.side.ignorable(cand) {
			continue
		}
		if j != from && movable(cand) && independent(cand, skipped) {
			cp := r.save()
			if match(cand) == 0 {
				c.consume(j)
				return true
			}
			r.restore(cp)
		}
		skipped = append(skipped, cand)
	}
	return false
}

func movable(op *ir.Operation) bool {
	return !op.IsTerminator() && op.Op != ir.OpPhi && !inChain(op)
}

// independent reports whether op may be moved in front of the operations it
// skips.
func independent(op *ir.Operation, skipped []*ir.Operation) bool {
	for _, s := range skipped {
		if op.UsesValue(s) || conflicts(op, s) {
			return false
		}
	}
	return true
}

func conflicts(a, b *ir.Operation) bool {
	if a.Op.HasSideEffects() && b.Op.HasSideEffects() {
		return true
	}
	return storeLoadAlias(a, b) || storeLoadAlias(b, a)
}

func storeLoadAlias(st, ld *ir.Operation) bool {
	return st.Op == ir.OpStore && ld.Op == ir.OpLoad && st.Operands[1] == ld.Operands[0]
}
