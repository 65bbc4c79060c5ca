package compare

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

func (r *run) cmpCalls(lop, rop *ir.Operation) int {
	if res := r.cmpCallees(lop, rop); res != 0 {
		return res
	}
	if lop.HasResult() || rop.HasResult() {
		if res := r.cmpTypes(lop.Typ, rop.Typ); res != 0 {
			return r.differ(res, ReasonDifferentType, "call result "+lop.Typ.String()+" vs "+rop.Typ.String(), lop, rop)
		}
		if res := r.cmpValues(lop, rop); res != 0 {
			return r.differ(res, ReasonDifferentOperand, "results are numbered differently", lop, rop)
		}
	}

	name := calleeName(lop)
	switch {
	case slices.Contains(r.c.opts.Allocators, name):
		return r.cmpAllocations(lop, rop)
	case slices.Contains(r.c.opts.Memsets, name):
		return r.cmpMemsets(lop, rop)
	}
	return r.cmpArgs(lop, rop)
}

func calleeName(call *ir.Operation) string {
	if p := call.CalledProcedure(); p != nil {
		return ir.BaseName(p.Name())
	}
	return ""
}

// cmpArgs compares call arguments. One side may pass one extra trailing
// argument as long as it is zero.
func (r *run) cmpArgs(lop, rop *ir.Operation) int {
	la, ra := lop.Args(), rop.Args()
	n := min(len(la), len(ra))
	for i := 0; i < n; i++ {
		if res := r.cmpValues(la[i], ra[i]); res != 0 {
			return r.differ(res, r.operandReason(la[i], ra[i]), "argument "+la[i].Ref()+" vs "+ra[i].Ref(), lop, rop)
		}
	}
	switch len(la) - len(ra) {
	case 0:
		return 0
	case 1:
		if isZero(la[n]) {
			return 0
		}
	case -1:
		if isZero(ra[n]) {
			return 0
		}
	}
	return r.differ(cmp.Compare(len(la), len(ra)), ReasonDifferentOperand, "argument count", lop, rop)
}

func isZero(v ir.Value) bool {
	c, ok := v.(*ir.Const)
	return ok && c.IsZero()
}

// cmpAllocations compares calls to allocators by the size they request.
func (r *run) cmpAllocations(lop, rop *ir.Operation) int {
	la, ra := lop.Args(), rop.Args()
	if len(la) == 0 || len(ra) == 0 {
		return r.cmpArgs(lop, rop)
	}
	if !r.sameSize(la[0], ra[0], allocatedType(r.l, lop), allocatedType(r.r, rop)) {
		return r.differ(r.cmpValues(la[0], ra[0])|1, ReasonDifferentAllocation, "size "+la[0].Ref()+" vs "+ra[0].Ref(), lop, rop)
	}
	if res := r.cmpArgsFrom(lop, rop, 1); res != 0 {
		return res
	}
	return 0
}

// cmpMemsets compares memset calls by destination, fill value and size.
func (r *run) cmpMemsets(lop, rop *ir.Operation) int {
	la, ra := lop.Args(), rop.Args()
	if len(la) < 3 || len(ra) < 3 {
		return r.cmpArgs(lop, rop)
	}
	for i := 0; i < 2; i++ {
		if res := r.cmpValues(la[i], ra[i]); res != 0 {
			return r.differ(res, r.operandReason(la[i], ra[i]), "argument "+la[i].Ref()+" vs "+ra[i].Ref(), lop, rop)
		}
	}
	if !r.sameSize(la[2], ra[2], pointee(r.l, la[0]), pointee(r.r, ra[0])) {
		return r.differ(r.cmpValues(la[2], ra[2])|1, ReasonDifferentAllocation, "size "+la[2].Ref()+" vs "+ra[2].Ref(), lop, rop)
	}
	return r.cmpArgsFrom(lop, rop, 3)
}

func (r *run) cmpArgsFrom(lop, rop *ir.Operation, from int) int {
	la, ra := lop.Args(), rop.Args()
	if res := cmp.Compare(len(la), len(ra)); res != 0 {
		return r.differ(res, ReasonDifferentOperand, "argument count", lop, rop)
	}
	for i := from; i < len(la); i++ {
		if res := r.cmpValues(la[i], ra[i]); res != 0 {
			return r.differ(res, r.operandReason(la[i], ra[i]), "argument "+la[i].Ref()+" vs "+ra[i].Ref(), lop, rop)
		}
	}
	return 0
}

// sameSize reports whether two requested sizes agree: they are the same
// value, or each is the size of its side's version of one aggregate.
func (r *run) sameSize(ls, rs ir.Value, lt, rt *ir.Type) bool {
	cp := r.save()
	if r.cmpValues(ls, rs) == 0 {
		return true
	}
	r.restore(cp)

	lc, lok := ls.(*ir.Const)
	rc, rok := rs.(*ir.Const)
	if !lok || !rok || !lt.IsStruct() || !rt.IsStruct() {
		return false
	}
	if r.l.debug.AggregateName(lt) != r.r.debug.AggregateName(rt) {
		return false
	}
	return lc.Int == int64(lt.Size()) && rc.Int == int64(rt.Size())
}

// allocatedType returns the aggregate an allocation is cast to.
func allocatedType(s *side, call *ir.Operation) *ir.Type {
	for _, u := range s.proc.Uses(call) {
		if u.Op == ir.OpBitcast && u.Typ.IsPointer() && u.Typ.Elem.IsStruct() {
			return u.Typ.Elem
		}
	}
	return nil
}

// pointee returns the aggregate a pointer argument addresses before any
// cast to a byte pointer.
func pointee(s *side, v ir.Value) *ir.Type {
	for {
		if t := v.Type(); t.IsPointer() && t.Elem.IsStruct() {
			return t.Elem
		}
		op, ok := v.(*ir.Operation)
		if !ok || !op.Op.IsCast() {
			return nil
		}
		v = op.Operands[0]
	}
}

// cmpCallees compares the called values of two calls.
func (r *run) cmpCallees(lop, rop *ir.Operation) int {
	lp, rp := lop.CalledProcedure(), rop.CalledProcedure()
	if lp == nil || rp == nil {
		if res := r.cmpValues(lop.Callee(), rop.Callee()); res != 0 {
			return r.differ(res, ReasonDifferentCallee, "indirect call", lop, rop)
		}
		return 0
	}
	return r.cmpProcedureRefs(lp, rp, lop, rop)
}

// cmpProcedureRefs compares two referenced procedures, recursing into their
// bodies through the session. lop and rop are the calls, if any.
func (r *run) cmpProcedureRefs(lp, rp *ir.Procedure, lop, rop *ir.Operation) int {
	ln, rn := ir.BaseName(lp.Name()), ir.BaseName(rp.Name())
	if ln != rn {
		r.enqueueInline(lop, rop)
		return r.differ(cmp.Compare(ln, rn), ReasonDifferentCallee, ln+" vs "+rn, lop, rop)
	}
	if slices.Contains(r.c.opts.SideEffectFree, ln) {
		return 0
	}

	lmiss, rmiss := lp.IsDeclaration(), rp.IsDeclaration()
	if lmiss || rmiss {
		r.missing = append(r.missing, MissingDefinition{
			Left:         lp.Name(),
			Right:        rp.Name(),
			LeftMissing:  lmiss,
			RightMissing: rmiss,
		})
		if lmiss && rmiss {
			return 0
		}
		r.enqueueInline(lop, rop)
		return r.differ(cmpBool(rmiss, lmiss), ReasonMissingDefinition, ln, lop, rop)
	}

	nested := r.c.Compare(lp, rp)
	if nested.Verdict == Equal {
		return 0
	}
	r.c.logger.Debug("callee differs",
		zap.String("caller", r.l.proc.Name()),
		zap.String("callee", ln),
		zap.Stringer("reason", nested.Reason))
	detail := ln
	if nested.Detail != "" {
		detail += ": " + nested.Detail
	}
	return r.differ(1, ReasonDifferentCallee, detail, lop, rop)
}

func (r *run) enqueueInline(lop, rop *ir.Operation) {
	if lop == nil && rop == nil {
		return
	}
	r.inline = append(r.inline, InlineCandidate{
		Caller: Pair{Left: r.l.proc, Right: r.r.proc},
		Left:   lop,
		Right:  rop,
	})
}
