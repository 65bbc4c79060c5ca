package ir

import "slices"

// Block is a straight-line sequence of operations ending in one terminator.
type Block struct {
	name string
	Ops  []*Operation
	proc *Procedure
}

func (b *Block) Name() string        { return b.name }
func (b *Block) Proc() *Procedure    { return b.proc }
func (b *Block) SetName(n string)    { b.name = n }
func (b *Block) String() string      { return b.name }
func (b *Block) Len() int            { return len(b.Ops) }
func (b *Block) IsDetached() bool    { return b.proc == nil }
func (b *Block) IsEntry() bool       { return b.proc != nil && b.proc.Entry() == b }
func (b *Block) HasTerminator() bool { return b.Terminator() != nil }

// Terminator returns the last operation of b when it transfers control.
func (b *Block) Terminator() *Operation {
	if len(b.Ops) == 0 {
		return nil
	}
	last := b.Ops[len(b.Ops)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

// Succs returns the distinct successors of b in terminator order.
func (b *Block) Succs() []*Block {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	var out []*Block
	for _, s := range t.Targets {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Preds returns the distinct predecessors of b in layout order.
func (b *Block) Preds() []*Block {
	if b.proc == nil {
		return nil
	}
	var out []*Block
	for _, p := range b.proc.Blocks {
		t := p.Terminator()
		if t != nil && slices.Contains(t.Targets, b) {
			out = append(out, p)
		}
	}
	return out
}

// Phis returns the leading phi operations of b.
func (b *Block) Phis() []*Operation {
	var out []*Operation
	for _, op := range b.Ops {
		if op.Op != OpPhi {
			break
		}
		out = append(out, op)
	}
	return out
}

// Append adds op at the end of b. Non-terminators are placed before an
// existing terminator.
func (b *Block) Append(op *Operation) *Operation {
	op.block = b
	if b.proc != nil && op.name == "" && op.HasResult() {
		op.name = b.proc.nextName()
	}
	if t := b.Terminator(); t != nil && !op.IsTerminator() {
		b.Ops = slices.Insert(b.Ops, len(b.Ops)-1, op)
		return op
	}
	b.Ops = append(b.Ops, op)
	return op
}

// Remove detaches op from b.
func (b *Block) Remove(op *Operation) {
	if i := slices.Index(b.Ops, op); i >= 0 {
		b.Ops = slices.Delete(b.Ops, i, i+1)
		op.block = nil
	}
}

// SetTerminator replaces the terminator of b (or appends one) and returns
// the previous terminator, detached.
func (b *Block) SetTerminator(op *Operation) *Operation {
	old := b.Terminator()
	if old != nil {
		b.Remove(old)
	}
	op.block = b
	b.Ops = append(b.Ops, op)
	return old
}

// RemovePhiIncoming drops pred from every phi of b.
func (b *Block) RemovePhiIncoming(pred *Block) {
	for _, phi := range b.Phis() {
		phi.RemoveIncoming(pred)
	}
}

// Reachable returns the blocks reachable from the given roots, roots included.
func Reachable(roots ...*Block) map[*Block]bool {
	seen := make(map[*Block]bool)
	worklist := append([]*Block(nil), roots...)
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if b == nil || seen[b] {
			continue
		}
		seen[b] = true
		worklist = append(worklist, b.Succs()...)
	}
	return seen
}
