package ir

// Clone returns a deep copy of p. The copy shares globals, constants and
// callees with p and points to the same module, but is not listed in it.
func Clone(p *Procedure) *Procedure {
	c := &Procedure{name: p.name, Sig: p.Sig, Module: p.Module, nextID: p.nextID}
	values := make(map[Value]Value)
	for _, a := range p.Params {
		na := &Param{name: a.name, Typ: a.Typ, Index: a.Index, proc: c}
		c.Params = append(c.Params, na)
		values[a] = na
	}

	blocks := make(map[*Block]*Block, len(p.Blocks))
	for _, b := range p.Blocks {
		nb := &Block{name: b.name, proc: c}
		blocks[b] = nb
		c.Blocks = append(c.Blocks, nb)
		for _, op := range b.Ops {
			nop := &Operation{
				Op:    op.Op,
				Typ:   op.Typ,
				Pred:  op.Pred,
				Elem:  op.Elem,
				Loc:   op.Loc,
				name:  op.name,
				block: nb,
			}
			nb.Ops = append(nb.Ops, nop)
			values[op] = nop
		}
	}

	for _, b := range p.Blocks {
		nb := blocks[b]
		for i, op := range b.Ops {
			nop := nb.Ops[i]
			nop.Operands = make([]Value, len(op.Operands))
			for j, v := range op.Operands {
				if nv, ok := values[v]; ok {
					v = nv
				}
				nop.Operands[j] = v
			}
			for _, in := range op.Incoming {
				nop.Incoming = append(nop.Incoming, mapBlock(blocks, in))
			}
			for _, t := range op.Targets {
				nop.Targets = append(nop.Targets, mapBlock(blocks, t))
			}
		}
	}
	return c
}

func mapBlock(m map[*Block]*Block, b *Block) *Block {
	if nb, ok := m[b]; ok {
		return nb
	}
	return b
}
