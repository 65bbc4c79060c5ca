package compare

import (
	"cmp"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// cmpOps compares two operations at matching positions.
func (r *run) cmpOps(lop, rop *ir.Operation) int {
	if res := cmp.Compare(lop.Op, rop.Op); res != 0 {
		return r.differ(res, ReasonDifferentOpcode, lop.Op.String()+" vs "+rop.Op.String(), lop, rop)
	}
	if lop.IsTerminator() {
		return r.cmpTerminators(lop, rop)
	}
	if lop.Op == ir.OpCall {
		return r.cmpCalls(lop, rop)
	}

	if lop.HasResult() {
		if res := r.cmpValues(lop, rop); res != 0 {
			return r.differ(res, ReasonDifferentOperand, "results are numbered differently", lop, rop)
		}
	}
	if res := r.cmpTypes(lop.Typ, rop.Typ); res != 0 {
		return r.differ(res, ReasonDifferentType, lop.Typ.String()+" vs "+rop.Typ.String(), lop, rop)
	}
	if res := cmp.Compare(len(lop.Operands), len(rop.Operands)); res != 0 {
		return r.differ(res, ReasonDifferentOperand, "operand count", lop, rop)
	}

	switch lop.Op {
	case ir.OpICmp, ir.OpFCmp:
		if lop.Pred != rop.Pred {
			if lop.Pred.Inverse() != rop.Pred || !r.branchOnly(lop, rop) {
				return r.differ(cmp.Compare(lop.Pred, rop.Pred), ReasonDifferentOperand,
					"predicate "+lop.Pred.String()+" vs "+rop.Pred.String(), lop, rop)
			}
			r.negated[lop] = true
		}
	case ir.OpGEP, ir.OpAlloca:
		if res := r.cmpTypes(lop.Elem, rop.Elem); res != 0 {
			return r.differ(res, ReasonDifferentType, lop.Elem.String()+" vs "+rop.Elem.String(), lop, rop)
		}
	case ir.OpPhi:
		for i := range lop.Incoming {
			if res := r.cmpBlockRefs(lop.Incoming[i], rop.Incoming[i]); res != 0 {
				return r.differ(res, ReasonDifferentOperand, "phi predecessors", lop, rop)
			}
		}
	}

	for i := range lop.Operands {
		if res := r.cmpValues(lop.Operands[i], rop.Operands[i]); res != 0 {
			return r.differ(res, r.operandReason(lop.Operands[i], rop.Operands[i]), "operand "+lop.Operands[i].Ref()+" vs "+rop.Operands[i].Ref(), lop, rop)
		}
	}
	return 0
}

// branchOnly reports whether both comparisons feed only conditional
// branches, possibly through a negation.
func (r *run) branchOnly(lop, rop *ir.Operation) bool {
	return feedsOnlyBranches(r.l, lop) && feedsOnlyBranches(r.r, rop)
}

func feedsOnlyBranches(s *side, op *ir.Operation) bool {
	uses := s.proc.Uses(op)
	for _, u := range uses {
		if _, ok := s.negation[u]; ok {
			continue
		}
		if u.Op != ir.OpCondBr {
			return false
		}
	}
	return len(uses) > 0
}

func (r *run) cmpTerminators(lop, rop *ir.Operation) int {
	if res := cmp.Compare(len(lop.Targets), len(rop.Targets)); res != 0 {
		return r.differ(res, ReasonDifferentBranch, "successor count", lop, rop)
	}
	switch lop.Op {
	case ir.OpCondBr:
		return r.cmpCondBranches(lop, rop)
	case ir.OpRet:
		if res := cmp.Compare(len(lop.Operands), len(rop.Operands)); res != 0 {
			return r.differ(res, ReasonDifferentOperand, "return value", lop, rop)
		}
		if len(lop.Operands) > 0 {
			if res := r.cmpValues(lop.Operands[0], rop.Operands[0]); res != 0 {
				return r.differ(res, ReasonDifferentOperand, "return value", lop, rop)
			}
		}
		return 0
	case ir.OpSwitch:
		if res := cmp.Compare(len(lop.Operands), len(rop.Operands)); res != 0 {
			return r.differ(res, ReasonDifferentBranch, "case count", lop, rop)
		}
		for i := range lop.Operands {
			if res := r.cmpValues(lop.Operands[i], rop.Operands[i]); res != 0 {
				return r.differ(res, ReasonDifferentBranch, "switch case", lop, rop)
			}
		}
	}
	for i := range lop.Targets {
		if res := r.cmpBlockRefs(lop.Targets[i], rop.Targets[i]); res != 0 {
			return r.differ(res, ReasonDifferentBranch, "successors do not correspond", lop, rop)
		}
	}
	return 0
}

// cmpCondBranches compares two conditional branches. The conditions must be
// the same value once negations are stripped; when exactly one side is
// negated the targets pair crosswise.
func (r *run) cmpCondBranches(lop, rop *ir.Operation) int {
	lc, ln := r.l.stripNegation(lop.Operands[0])
	rc, rn := r.r.stripNegation(rop.Operands[0])
	if res := r.cmpValues(lc, rc); res != 0 {
		return r.differ(res, ReasonDifferentBranch, "condition "+lc.Ref()+" vs "+rc.Ref(), lop, rop)
	}
	if op, ok := lc.(*ir.Operation); ok && r.negated[op] {
		ln = !ln
	}

	lt, rt := lop.Targets, rop.Targets
	if ln != rn {
		rt = []*ir.Block{rt[1], rt[0]}
		r.swapped[lop] = true
	}
	for i := range lt {
		if res := r.cmpBlockRefs(lt[i], rt[i]); res != 0 {
			return r.differ(res, ReasonDifferentBranch, "successors do not correspond", lop, rop)
		}
	}
	return 0
}
