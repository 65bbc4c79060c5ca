package compare

import (
	"cmp"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// cmpTypes compares a type of the left procedure with one of the right.
//
// A union equals any non-void type that fits into it. Aggregates sharing a source
// name are equal whatever their layout. In control-flow-only mode all
// integer types wider than a boolean are equal, and so are all arrays.
func (r *run) cmpTypes(a, b *ir.Type) int {
	if a == b {
		return 0
	}
	if a == nil || b == nil {
		return cmpBool(a != nil, b != nil)
	}
	if a.IsUnion() && !b.IsVoid() && b.Size() <= a.Size() {
		return 0
	}
	if b.IsUnion() && !a.IsVoid() && a.Size() <= b.Size() {
		return 0
	}
	if a.IsStruct() && b.IsStruct() && a.Name != "" && b.Name != "" {
		return cmp.Compare(r.l.debug.AggregateName(a), r.r.debug.AggregateName(b))
	}
	if r.c.opts.ControlFlowOnly {
		if a.IsInteger() && b.IsInteger() && !a.IsBool() && !b.IsBool() {
			return 0
		}
		if a.IsArray() && b.IsArray() {
			return 0
		}
	}

	if res := cmp.Compare(a.Kind, b.Kind); res != 0 {
		return res
	}
	switch a.Kind {
	case ir.IntKind, ir.FloatKind:
		return cmp.Compare(a.Bits, b.Bits)
	case ir.PointerKind:
		return r.cmpTypes(a.Elem, b.Elem)
	case ir.ArrayKind:
		if res := cmp.Compare(a.Len, b.Len); res != 0 {
			return res
		}
		return r.cmpTypes(a.Elem, b.Elem)
	case ir.StructKind:
		if res := cmp.Compare(a.Name, b.Name); res != 0 {
			return res
		}
		return r.cmpTypeLists(a.Fields, b.Fields)
	case ir.FuncKind:
		return r.cmpSignatures(a, b)
	}
	return 0
}

func (r *run) cmpTypeLists(a, b []*ir.Type) int {
	if res := cmp.Compare(len(a), len(b)); res != 0 {
		return res
	}
	for i := range a {
		if res := r.cmpTypes(a[i], b[i]); res != 0 {
			return res
		}
	}
	return 0
}
