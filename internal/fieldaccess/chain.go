// Package fieldaccess recognizes field-access chains: runs of address
// computations and pointer casts that together implement one source-level
// member access such as a.b.c.
//
// A chain is a sequence of adjacent operations in one block where every
// operation takes the previous one as its base pointer and every operation
// but the last has no other user. Only constant-index address computations
// and pointer-to-pointer bitcasts take part in a chain, and a chain holds at
// least one address computation.
package fieldaccess

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// Step is one aggregate stepped into by a chain.
type Step struct {
	Type  *ir.Type
	Index int
}

// Chain is a recognized field-access chain.
type Chain struct {
	Ops   []*ir.Operation
	Steps []Step
	// Offset is the byte distance between the base pointer and the result.
	Offset int
}

// Base returns the pointer the chain starts from.
func (c *Chain) Base() ir.Value { return c.Ops[0].Operands[0] }

// Result returns the last operation of the chain.
func (c *Chain) Result() *ir.Operation { return c.Ops[len(c.Ops)-1] }

// Len returns the number of operations in the chain.
func (c *Chain) Len() int { return len(c.Ops) }

// TraversedTypes returns the aggregate types the chain steps into, outermost
// first.
func (c *Chain) TraversedTypes() []*ir.Type {
	out := make([]*ir.Type, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.Type
	}
	return out
}

// Path renders the chain as a member access using the field names of d, for
// example ".hdr.len". Fields without a recorded name print as their index.
func (c *Chain) Path(d *ir.DebugInfo) string {
	var sb strings.Builder
	for _, s := range c.Steps {
		if s.Type.IsArray() {
			sb.WriteString("[" + strconv.Itoa(s.Index) + "]")
			continue
		}
		sb.WriteByte('.')
		if n, ok := d.FieldName(s.Type, s.Index); ok {
			sb.WriteString(n)
		} else {
			sb.WriteString(strconv.Itoa(s.Index))
		}
	}
	return sb.String()
}

// IsMember reports whether op can be part of a chain.
func IsMember(op *ir.Operation) bool {
	if op == nil {
		return false
	}
	switch op.Op {
	case ir.OpGEP:
		return op.IsConstantIndexGEP()
	case ir.OpBitcast:
		return op.Typ.IsPointer() && op.Operands[0].Type().IsPointer()
	}
	return false
}

// prev returns the chain member that op extends, if any.
func prev(op *ir.Operation) *ir.Operation {
	b := op.Block()
	if b == nil {
		return nil
	}
	i := slices.Index(b.Ops, op)
	if i <= 0 {
		return nil
	}
	p := b.Ops[i-1]
	if !IsMember(p) || op.Operands[0] != ir.Value(p) || useCount(p) != 1 {
		return nil
	}
	return p
}

// next returns the chain member that extends op, if any.
func next(op *ir.Operation) *ir.Operation {
	b := op.Block()
	if b == nil {
		return nil
	}
	i := slices.Index(b.Ops, op)
	if i < 0 || i+1 >= len(b.Ops) {
		return nil
	}
	n := b.Ops[i+1]
	if !IsMember(n) || n.Operands[0] != ir.Value(op) || useCount(op) != 1 {
		return nil
	}
	return n
}

func useCount(op *ir.Operation) int {
	b := op.Block()
	if b == nil || b.Proc() == nil {
		return 0
	}
	n := 0
	for _, u := range b.Proc().Uses(op) {
		for _, v := range u.Operands {
			if v == ir.Value(op) {
				n++
			}
		}
	}
	return n
}

// Start returns the first operation of the chain containing op, or nil when
// op is not a chain member.
func Start(op *ir.Operation) *ir.Operation {
	if !IsMember(op) {
		return nil
	}
	for p := prev(op); p != nil; p = prev(op) {
		op = p
	}
	return op
}

// End returns the last operation of the chain containing op, or nil when op
// is not a chain member.
func End(op *ir.Operation) *ir.Operation {
	if !IsMember(op) {
		return nil
	}
	for n := next(op); n != nil; n = next(op) {
		op = n
	}
	return op
}

// IsChainStart reports whether op begins a chain.
func IsChainStart(op *ir.Operation) bool {
	if !IsMember(op) || prev(op) != nil {
		return false
	}
	_, ok := At(op)
	return ok
}

// At returns the chain containing op.
func At(op *ir.Operation) (*Chain, bool) {
	first := Start(op)
	if first == nil {
		return nil, false
	}
	c := &Chain{}
	for cur := first; cur != nil; cur = next(cur) {
		c.Ops = append(c.Ops, cur)
	}
	hasGEP := false
	for _, o := range c.Ops {
		if o.Op != ir.OpGEP {
			continue
		}
		hasGEP = true
		c.walk(o)
	}
	if !hasGEP {
		return nil, false
	}
	return c, true
}

// walk accumulates the steps and offset of one address computation.
func (c *Chain) walk(gep *ir.Operation) {
	t := gep.Elem
	idx := gep.Operands[1:]
	if len(idx) == 0 {
		return
	}
	c.Offset += int(idx[0].(*ir.Const).Int) * t.Size()
	for _, v := range idx[1:] {
		i := int(v.(*ir.Const).Int)
		switch {
		case t.IsStruct():
			c.Offset += t.FieldOffset(i)
		case t.IsArray():
			c.Offset += i * t.Elem.Size()
		default:
			return
		}
		c.Steps = append(c.Steps, Step{Type: t, Index: i})
		t = t.ElemAt(i)
	}
}

// SameField reports whether step l selects the same source-level member as
// step r. Struct fields with names recorded in dl and dr match by name;
// otherwise the indices must agree within the same aggregate.
func SameField(l, r Step, dl, dr *ir.DebugInfo) bool {
	if l.Type.Kind != r.Type.Kind {
		return false
	}
	if l.Type.IsArray() {
		return l.Index == r.Index
	}
	ln, lok := dl.FieldName(l.Type, l.Index)
	rn, rok := dr.FieldName(r.Type, r.Index)
	if lok && rok {
		return ln == rn && dl.AggregateName(l.Type) == dr.AggregateName(r.Type)
	}
	if l.Index != r.Index {
		return false
	}
	return ir.Identical(l.Type, r.Type) || dl.AggregateName(l.Type) == dr.AggregateName(r.Type)
}

// Equivalent reports whether chains l and r access the same member. Chains
// over identical layouts compare by offset; otherwise every step must select
// the same field.
func Equivalent(l, r *Chain, dl, dr *ir.DebugInfo) bool {
	if len(l.Steps) != len(r.Steps) {
		return false
	}
	sameLayout := true
	for i := range l.Steps {
		if !sameShape(l.Steps[i].Type, r.Steps[i].Type, dl, dr) {
			sameLayout = false
			break
		}
	}
	if sameLayout {
		return l.Offset == r.Offset
	}
	for i := range l.Steps {
		if !SameField(l.Steps[i], r.Steps[i], dl, dr) {
			return false
		}
	}
	return true
}

// sameShape reports whether a and b lay out the same fields at the same
// offsets. Fields renamed between the versions count as moved.
func sameShape(a, b *ir.Type, da, db *ir.DebugInfo) bool {
	if !ir.Identical(a, b) || a.Size() != b.Size() || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !ir.Identical(a.Fields[i], b.Fields[i]) {
			return false
		}
		an, aok := da.FieldName(a, i)
		bn, bok := db.FieldName(b, i)
		if aok && bok && an != bn {
			return false
		}
	}
	return true
}
