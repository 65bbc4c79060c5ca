package compare

import (
	"cmp"
	"slices"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// value kinds in the order used to rank unequal values
const (
	kindConst = iota
	kindGlobal
	kindProcedure
	kindLocal
)

func valueKind(v ir.Value) int {
	switch v.(type) {
	case *ir.Const:
		return kindConst
	case *ir.Global:
		return kindGlobal
	case *ir.Procedure:
		return kindProcedure
	default:
		return kindLocal
	}
}

// cmpValues compares two operands. Locals are numbered on first sight and
// compare by their numbers.
func (r *run) cmpValues(lv, rv ir.Value) int {
	lv, rv = r.l.resolve(lv), r.r.resolve(rv)
	lk, rk := valueKind(lv), valueKind(rv)
	if lk != rk {
		return cmp.Compare(lk, rk)
	}
	switch lk {
	case kindConst:
		return r.cmpConstants(lv.(*ir.Const), rv.(*ir.Const))
	case kindGlobal:
		return r.cmpGlobals(lv.(*ir.Global), rv.(*ir.Global))
	case kindProcedure:
		return r.cmpProcedureRefs(lv.(*ir.Procedure), rv.(*ir.Procedure), nil, nil)
	}
	return cmp.Compare(serial(r.l.values, lv), serial(r.r.values, rv))
}

func serial[K comparable](m map[K]int, k K) int {
	n, ok := m[k]
	if !ok {
		n = len(m)
		m[k] = n
	}
	return n
}

// cmpBlockRefs compares two blocks by their serial numbers.
func (r *run) cmpBlockRefs(lb, rb *ir.Block) int {
	return cmp.Compare(serial(r.l.blocks, lb), serial(r.r.blocks, rb))
}

func (r *run) cmpConstants(a, b *ir.Const) int {
	if res := r.cmpTypes(a.Typ, b.Typ); res != 0 {
		return res
	}
	if res := cmpBool(a.Undef, b.Undef); res != 0 {
		return res
	}
	if res := cmp.Compare(a.Float, b.Float); res != 0 {
		return res
	}
	if a.Int == b.Int || r.sameMacro(a.Int, b.Int) {
		return 0
	}
	return cmp.Compare(a.Int, b.Int)
}

// sameMacro reports whether both constants were expanded from a macro of
// the same name.
func (r *run) sameMacro(a, b int64) bool {
	ln := r.l.debug.MacroNames(a)
	for _, n := range r.r.debug.MacroNames(b) {
		if slices.Contains(ln, n) {
			return true
		}
	}
	return false
}

// cmpGlobals compares constant globals by contents and other globals by
// their declared names.
func (r *run) cmpGlobals(a, b *ir.Global) int {
	if res := cmpBool(a.Constant, b.Constant); res != 0 {
		return res
	}
	if !a.Constant {
		return cmp.Compare(r.l.debug.GlobalName(a), r.r.debug.GlobalName(b))
	}
	if res := r.cmpTypes(a.ValueType, b.ValueType); res != 0 {
		return res
	}
	if res := cmp.Compare(a.Data, b.Data); res != 0 {
		return res
	}
	switch {
	case a.Init == nil && b.Init == nil:
		return 0
	case a.Init == nil:
		return -1
	case b.Init == nil:
		return 1
	}
	return r.cmpConstants(a.Init, b.Init)
}

// operandReason classifies a mismatch between two operands.
func (r *run) operandReason(lv, rv ir.Value) ReasonCode {
	lk, rk := valueKind(r.l.resolve(lv)), valueKind(r.r.resolve(rv))
	switch {
	case lk != rk:
		return ReasonDifferentOperand
	case lk == kindConst:
		return ReasonDifferentConstant
	case lk == kindGlobal:
		return ReasonDifferentGlobal
	}
	return ReasonDifferentOperand
}
