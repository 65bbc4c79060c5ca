package ir

import (
	"fmt"
	"slices"
)

// Module is a translation unit: procedures, globals and their debug info.
type Module struct {
	Name       string
	Procedures []*Procedure
	Globals    []*Global
	Debug      *DebugInfo
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Debug: NewDebugInfo()}
}

// NewProcedure defines a procedure with the given signature. Parameters are
// named after paramNames, or p0, p1, ... when names run out.
func (m *Module) NewProcedure(name string, sig *Type, paramNames ...string) *Procedure {
	p := &Procedure{name: name, Sig: sig, Module: m}
	for i, t := range sig.Params {
		pn := fmt.Sprintf("p%d", i)
		if i < len(paramNames) {
			pn = paramNames[i]
		}
		p.Params = append(p.Params, &Param{name: pn, Typ: t, Index: i, proc: p})
	}
	m.Procedures = append(m.Procedures, p)
	return p
}

// Declare returns the procedure called name, creating a bodyless declaration
// when it does not exist.
func (m *Module) Declare(name string, sig *Type) *Procedure {
	if p := m.Procedure(name); p != nil {
		return p
	}
	return m.NewProcedure(name, sig)
}

// NewGlobal defines a global variable of the given value type.
func (m *Module) NewGlobal(name string, valueType *Type, constant bool) *Global {
	g := &Global{name: name, ValueType: valueType, Constant: constant, ptr: PointerTo(valueType)}
	m.Globals = append(m.Globals, g)
	return g
}

// Procedure looks up a procedure by name.
func (m *Module) Procedure(name string) *Procedure {
	for _, p := range m.Procedures {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Global looks up a global by name.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.name == name {
			return g
		}
	}
	return nil
}

// Procedure is a compiled function: a control-flow graph of blocks. A
// procedure without blocks is a declaration.
type Procedure struct {
	name   string
	Sig    *Type
	Params []*Param
	Blocks []*Block
	Module *Module

	nextID int
}

func (p *Procedure) Name() string { return p.name }
func (p *Procedure) Type() *Type  { return p.Sig }
func (p *Procedure) Ref() string  { return "@" + p.name }

// ReturnType returns the result type of the signature.
func (p *Procedure) ReturnType() *Type { return p.Sig.Result }

// IsDeclaration reports whether p has no body.
func (p *Procedure) IsDeclaration() bool { return len(p.Blocks) == 0 }

// Entry returns the entry block, or nil for declarations.
func (p *Procedure) Entry() *Block {
	if len(p.Blocks) == 0 {
		return nil
	}
	return p.Blocks[0]
}

// Param returns the parameter called name.
func (p *Procedure) Param(name string) *Param {
	for _, a := range p.Params {
		if a.name == name {
			return a
		}
	}
	return nil
}

// NewBlock appends a new block to p.
func (p *Procedure) NewBlock(name string) *Block {
	b := &Block{name: name, proc: p}
	p.Blocks = append(p.Blocks, b)
	return b
}

// Block looks up a block by name.
func (p *Procedure) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// SetEntry makes b the entry block.
func (p *Procedure) SetEntry(b *Block) {
	if i := slices.Index(p.Blocks, b); i > 0 {
		p.Blocks = slices.Delete(p.Blocks, i, i+1)
		p.Blocks = slices.Insert(p.Blocks, 0, b)
	}
}

// RemoveBlock deletes b from p and drops its edges into the phis of its
// successors. Operations of b stay attached to the detached block.
func (p *Procedure) RemoveBlock(b *Block) {
	for _, s := range b.Succs() {
		s.RemovePhiIncoming(b)
	}
	if i := slices.Index(p.Blocks, b); i >= 0 {
		p.Blocks = slices.Delete(p.Blocks, i, i+1)
	}
	b.proc = nil
}

// Operations returns every operation of p in layout order.
func (p *Procedure) Operations() []*Operation {
	var out []*Operation
	for _, b := range p.Blocks {
		out = append(out, b.Ops...)
	}
	return out
}

// Uses returns the operations of p that use v as an operand.
func (p *Procedure) Uses(v Value) []*Operation {
	var out []*Operation
	for _, b := range p.Blocks {
		for _, op := range b.Ops {
			if op.UsesValue(v) {
				out = append(out, op)
			}
		}
	}
	return out
}

// ReplaceAllUsesWith rewrites every operand of p equal to old into repl.
func (p *Procedure) ReplaceAllUsesWith(old, repl Value) {
	for _, b := range p.Blocks {
		for _, op := range b.Ops {
			for i, v := range op.Operands {
				if v == old {
					op.Operands[i] = repl
				}
			}
		}
	}
}

// ReturnBlocks returns the blocks ending in a return.
func (p *Procedure) ReturnBlocks() []*Block {
	var out []*Block
	for _, b := range p.Blocks {
		if t := b.Terminator(); t != nil && t.Op == OpRet {
			out = append(out, b)
		}
	}
	return out
}

// ReturnBlock returns the unique return block, or nil when there is none or
// more than one.
func (p *Procedure) ReturnBlock() *Block {
	rets := p.ReturnBlocks()
	if len(rets) != 1 {
		return nil
	}
	return rets[0]
}

func (p *Procedure) nextName() string {
	name := fmt.Sprintf("t%d", p.nextID)
	p.nextID++
	return name
}
