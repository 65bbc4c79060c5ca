package ir

import "slices"

// Builder appends operations to a block.
type Builder struct {
	block *Block
	loc   Location
}

// NewBuilder returns a builder positioned at the end of b.
func NewBuilder(b *Block) *Builder {
	return &Builder{block: b}
}

// SetBlock moves the insertion point to the end of b.
func (bd *Builder) SetBlock(b *Block) { bd.block = b }

// Block returns the current insertion block.
func (bd *Builder) Block() *Block { return bd.block }

// SetLocation attaches loc to every operation built afterwards.
func (bd *Builder) SetLocation(loc Location) { bd.loc = loc }

func (bd *Builder) insert(op *Operation) *Operation {
	op.Loc = bd.loc
	return bd.block.Append(op)
}

// Binary builds a two-operand operation typed after x.
func (bd *Builder) Binary(code Opcode, x, y Value) *Operation {
	return bd.insert(&Operation{Op: code, Typ: x.Type(), Operands: []Value{x, y}})
}

func (bd *Builder) Add(x, y Value) *Operation { return bd.Binary(OpAdd, x, y) }
func (bd *Builder) Sub(x, y Value) *Operation { return bd.Binary(OpSub, x, y) }
func (bd *Builder) Mul(x, y Value) *Operation { return bd.Binary(OpMul, x, y) }
func (bd *Builder) And(x, y Value) *Operation { return bd.Binary(OpAnd, x, y) }
func (bd *Builder) Or(x, y Value) *Operation  { return bd.Binary(OpOr, x, y) }
func (bd *Builder) Xor(x, y Value) *Operation { return bd.Binary(OpXor, x, y) }

// Not builds the boolean negation of x.
func (bd *Builder) Not(x Value) *Operation { return bd.Xor(x, Bool(true)) }

// ICmp builds an integer comparison.
func (bd *Builder) ICmp(pred Predicate, x, y Value) *Operation {
	return bd.insert(&Operation{Op: OpICmp, Typ: I1, Pred: pred, Operands: []Value{x, y}})
}

// FCmp builds a floating point comparison.
func (bd *Builder) FCmp(pred Predicate, x, y Value) *Operation {
	return bd.insert(&Operation{Op: OpFCmp, Typ: I1, Pred: pred, Operands: []Value{x, y}})
}

// Cast converts x to type to.
func (bd *Builder) Cast(code Opcode, x Value, to *Type) *Operation {
	return bd.insert(&Operation{Op: code, Typ: to, Operands: []Value{x}})
}

func (bd *Builder) Trunc(x Value, to *Type) *Operation   { return bd.Cast(OpTrunc, x, to) }
func (bd *Builder) ZExt(x Value, to *Type) *Operation    { return bd.Cast(OpZExt, x, to) }
func (bd *Builder) SExt(x Value, to *Type) *Operation    { return bd.Cast(OpSExt, x, to) }
func (bd *Builder) Bitcast(x Value, to *Type) *Operation { return bd.Cast(OpBitcast, x, to) }

// Alloca reserves a stack slot for a value of type t.
func (bd *Builder) Alloca(t *Type) *Operation {
	return bd.insert(&Operation{Op: OpAlloca, Typ: PointerTo(t), Elem: t})
}

// Load reads a value of type t from ptr.
func (bd *Builder) Load(t *Type, ptr Value) *Operation {
	return bd.insert(&Operation{Op: OpLoad, Typ: t, Operands: []Value{ptr}})
}

// Store writes v to ptr.
func (bd *Builder) Store(v, ptr Value) *Operation {
	return bd.insert(&Operation{Op: OpStore, Typ: Void, Operands: []Value{v, ptr}})
}

// GEP computes the address of an element inside the aggregate src that base
// points to. The first index steps over whole src values.
func (bd *Builder) GEP(src *Type, base Value, indices ...Value) *Operation {
	t := src
	for j, idx := range indices {
		if j == 0 {
			continue
		}
		i := 0
		if c, ok := idx.(*Const); ok {
			i = int(c.Int)
		}
		if next := t.ElemAt(i); next != nil {
			t = next
		}
	}
	ops := append([]Value{base}, indices...)
	return bd.insert(&Operation{Op: OpGEP, Typ: PointerTo(t), Elem: src, Operands: ops})
}

// FieldAddr computes the address of field i of the struct base points to.
func (bd *Builder) FieldAddr(st *Type, base Value, i int) *Operation {
	return bd.GEP(st, base, ConstInt(I32, 0), ConstInt(I32, int64(i)))
}

// Extract reads element i of an aggregate value.
func (bd *Builder) Extract(agg Value, i int) *Operation {
	return bd.insert(&Operation{Op: OpExtract, Typ: agg.Type().ElemAt(i), Operands: []Value{agg, ConstInt(I32, int64(i))}})
}

// Insert replaces element i of an aggregate value.
func (bd *Builder) Insert(agg, v Value, i int) *Operation {
	return bd.insert(&Operation{Op: OpInsert, Typ: agg.Type(), Operands: []Value{agg, v, ConstInt(I32, int64(i))}})
}

// Select picks x when cond holds and y otherwise.
func (bd *Builder) Select(cond, x, y Value) *Operation {
	return bd.insert(&Operation{Op: OpSelect, Typ: x.Type(), Operands: []Value{cond, x, y}})
}

// Phi builds a merge operation; pairs are added with AddIncoming.
func (bd *Builder) Phi(t *Type) *Operation {
	op := &Operation{Op: OpPhi, Typ: t}
	op.block = bd.block
	if op.name == "" && bd.block.proc != nil {
		op.name = bd.block.proc.nextName()
	}
	bd.block.Ops = slices.Insert(bd.block.Ops, len(bd.block.Phis()), op)
	return op
}

// Call calls callee with args. The result type comes from the callee signature.
func (bd *Builder) Call(callee Value, args ...Value) *Operation {
	res := Void
	if sig := callee.Type(); sig != nil {
		switch {
		case sig.Kind == FuncKind:
			res = sig.Result
		case sig.IsPointer() && sig.Elem.Kind == FuncKind:
			res = sig.Elem.Result
		}
	}
	return bd.CallTyped(res, callee, args...)
}

// CallTyped calls callee with args and a result of type res, for callees
// whose type does not carry a signature.
func (bd *Builder) CallTyped(res *Type, callee Value, args ...Value) *Operation {
	ops := append([]Value{callee}, args...)
	return bd.insert(&Operation{Op: OpCall, Typ: res, Operands: ops})
}

// Br jumps to target.
func (bd *Builder) Br(target *Block) *Operation {
	return bd.insert(&Operation{Op: OpBr, Typ: Void, Targets: []*Block{target}})
}

// CondBr jumps to then when cond holds and to els otherwise.
func (bd *Builder) CondBr(cond Value, then, els *Block) *Operation {
	return bd.insert(&Operation{Op: OpCondBr, Typ: Void, Operands: []Value{cond}, Targets: []*Block{then, els}})
}

// SwitchCase is one arm of a switch.
type SwitchCase struct {
	Value  int64
	Target *Block
}

// Switch jumps to the target whose case equals v, or to def.
func (bd *Builder) Switch(v Value, def *Block, cases ...SwitchCase) *Operation {
	op := &Operation{Op: OpSwitch, Typ: Void, Operands: []Value{v}, Targets: []*Block{def}}
	for _, c := range cases {
		op.Operands = append(op.Operands, ConstInt(v.Type(), c.Value))
		op.Targets = append(op.Targets, c.Target)
	}
	return bd.insert(op)
}

// Ret returns v, or nothing when v is nil.
func (bd *Builder) Ret(v Value) *Operation {
	op := &Operation{Op: OpRet, Typ: Void}
	if v != nil {
		op.Operands = []Value{v}
	}
	return bd.insert(op)
}

// Unreachable marks the end of a path that cannot be taken.
func (bd *Builder) Unreachable() *Operation {
	return bd.insert(&Operation{Op: OpUnreachable, Typ: Void})
}

// NewBranch returns a detached unconditional branch to target.
func NewBranch(target *Block) *Operation {
	return &Operation{Op: OpBr, Typ: Void, Targets: []*Block{target}}
}

// NewReturn returns a detached return of v (nil for void).
func NewReturn(v Value) *Operation {
	op := &Operation{Op: OpRet, Typ: Void}
	if v != nil {
		op.Operands = []Value{v}
	}
	return op
}
