package ir

// Opcode identifies the kind of an Operation.
type Opcode int

const (
	OpInvalid Opcode = iota

	// integer and floating point arithmetic
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv

	// comparisons
	OpICmp
	OpFCmp

	// casts
	OpTrunc
	OpZExt
	OpSExt
	OpBitcast
	OpPtrToInt
	OpIntToPtr
	OpFPToSI
	OpSIToFP
	OpFPExt
	OpFPTrunc

	// memory
	OpAlloca
	OpLoad
	OpStore
	OpGEP

	// aggregates
	OpExtract
	OpInsert

	OpSelect
	OpPhi
	OpCall

	// terminators
	OpBr
	OpCondBr
	OpSwitch
	OpRet
	OpUnreachable
)

var opcodeNames = [...]string{
	OpInvalid:     "invalid",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpUDiv:        "udiv",
	OpSDiv:        "sdiv",
	OpURem:        "urem",
	OpSRem:        "srem",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpShl:         "shl",
	OpLShr:        "lshr",
	OpAShr:        "ashr",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpICmp:        "icmp",
	OpFCmp:        "fcmp",
	OpTrunc:       "trunc",
	OpZExt:        "zext",
	OpSExt:        "sext",
	OpBitcast:     "bitcast",
	OpPtrToInt:    "ptrtoint",
	OpIntToPtr:    "inttoptr",
	OpFPToSI:      "fptosi",
	OpSIToFP:      "sitofp",
	OpFPExt:       "fpext",
	OpFPTrunc:     "fptrunc",
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpGEP:         "getelementptr",
	OpExtract:     "extractvalue",
	OpInsert:      "insertvalue",
	OpSelect:      "select",
	OpPhi:         "phi",
	OpCall:        "call",
	OpBr:          "br",
	OpCondBr:      "br",
	OpSwitch:      "switch",
	OpRet:         "ret",
	OpUnreachable: "unreachable",
}

func (o Opcode) String() string {
	if o < 0 || int(o) >= len(opcodeNames) {
		return "?"
	}
	return opcodeNames[o]
}

// IsTerminator reports whether o transfers control.
func (o Opcode) IsTerminator() bool { return o >= OpBr && o <= OpUnreachable }

// IsBinary reports whether o is a two-operand arithmetic or logic operation.
func (o Opcode) IsBinary() bool { return o >= OpAdd && o <= OpFDiv }

// IsCompare reports whether o is a predicated comparison.
func (o Opcode) IsCompare() bool { return o == OpICmp || o == OpFCmp }

// IsArithmetic reports whether o computes on the bits of its operands, so that
// the width or signedness of an operand can change its result.
func (o Opcode) IsArithmetic() bool { return o.IsBinary() || o.IsCompare() }

// IsCast reports whether o converts a single operand to another type.
func (o Opcode) IsCast() bool { return o >= OpTrunc && o <= OpFPTrunc }

// HasSideEffects reports whether o writes memory, calls out or transfers control.
func (o Opcode) HasSideEffects() bool {
	return o == OpStore || o == OpCall || o.IsTerminator()
}

// ReadsMemory reports whether o observes memory.
func (o Opcode) ReadsMemory() bool { return o == OpLoad || o == OpCall }

// Predicate is the condition of a comparison.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredUGT
	PredUGE
	PredULT
	PredULE
	PredSGT
	PredSGE
	PredSLT
	PredSLE
)

var predicateNames = [...]string{"eq", "ne", "ugt", "uge", "ult", "ule", "sgt", "sge", "slt", "sle"}

func (p Predicate) String() string {
	if p < 0 || int(p) >= len(predicateNames) {
		return "?"
	}
	return predicateNames[p]
}

// Inverse returns the predicate that holds exactly when p does not.
func (p Predicate) Inverse() Predicate {
	switch p {
	case PredEQ:
		return PredNE
	case PredNE:
		return PredEQ
	case PredUGT:
		return PredULE
	case PredUGE:
		return PredULT
	case PredULT:
		return PredUGE
	case PredULE:
		return PredUGT
	case PredSGT:
		return PredSLE
	case PredSGE:
		return PredSLT
	case PredSLT:
		return PredSGE
	case PredSLE:
		return PredSGT
	}
	return p
}

// Operation is a single step of a Block.
type Operation struct {
	Op       Opcode
	Typ      *Type
	Operands []Value
	Incoming []*Block  // OpPhi: predecessor for each operand
	Targets  []*Block  // terminators
	Pred     Predicate // OpICmp, OpFCmp
	Elem     *Type     // OpGEP source element type, OpAlloca allocated type
	Loc      Location

	name  string
	block *Block
}

func (o *Operation) Type() *Type   { return o.Typ }
func (o *Operation) Name() string  { return o.name }
func (o *Operation) Block() *Block { return o.block }

// SetName names the result of o and returns o.
func (o *Operation) SetName(name string) *Operation {
	o.name = name
	return o
}

func (o *Operation) Ref() string {
	if o.name == "" {
		return "%?"
	}
	return "%" + o.name
}

func (o *Operation) IsTerminator() bool { return o.Op.IsTerminator() }

// HasResult reports whether o produces a usable value.
func (o *Operation) HasResult() bool { return !o.Typ.IsVoid() }

// Callee returns the called value of an OpCall.
func (o *Operation) Callee() Value {
	if o.Op != OpCall || len(o.Operands) == 0 {
		return nil
	}
	return o.Operands[0]
}

// CalledProcedure returns the direct callee of an OpCall, if any.
func (o *Operation) CalledProcedure() *Procedure {
	p, _ := o.Callee().(*Procedure)
	return p
}

// Args returns the arguments of an OpCall.
func (o *Operation) Args() []Value {
	if o.Op != OpCall || len(o.Operands) == 0 {
		return nil
	}
	return o.Operands[1:]
}

// IncomingFor returns the value a phi receives from pred.
func (o *Operation) IncomingFor(pred *Block) (Value, bool) {
	for i, b := range o.Incoming {
		if b == pred {
			return o.Operands[i], true
		}
	}
	return nil, false
}

// AddIncoming appends a (value, predecessor) pair to a phi.
func (o *Operation) AddIncoming(v Value, pred *Block) {
	o.Operands = append(o.Operands, v)
	o.Incoming = append(o.Incoming, pred)
}

// RemoveIncoming drops every pair of a phi that flows in from pred.
func (o *Operation) RemoveIncoming(pred *Block) {
	ops := o.Operands[:0]
	inc := o.Incoming[:0]
	for i, b := range o.Incoming {
		if b == pred {
			continue
		}
		ops = append(ops, o.Operands[i])
		inc = append(inc, b)
	}
	o.Operands = ops
	o.Incoming = inc
}

// ReplaceTarget redirects every edge of a terminator from old to repl.
func (o *Operation) ReplaceTarget(old, repl *Block) {
	for i, t := range o.Targets {
		if t == old {
			o.Targets[i] = repl
		}
	}
}

// UsesValue reports whether v appears among the operands of o.
func (o *Operation) UsesValue(v Value) bool {
	for _, x := range o.Operands {
		if x == v {
			return true
		}
	}
	return false
}

// IsConstantIndexGEP reports whether o is an address computation whose
// indices are all constants.
func (o *Operation) IsConstantIndexGEP() bool {
	if o.Op != OpGEP {
		return false
	}
	for _, idx := range o.Operands[1:] {
		if c, ok := idx.(*Const); !ok || c.Undef {
			return false
		}
	}
	return true
}
