package ir

// UnifyReturns rewrites p so that exactly one block returns. Every former
// return block branches to a new "return" block, which merges the returned
// values with a phi. It reports whether p was changed.
func UnifyReturns(p *Procedure) bool {
	rets := p.ReturnBlocks()
	if len(rets) <= 1 {
		return false
	}

	unified := p.NewBlock("return")
	bd := NewBuilder(unified)
	var phi *Operation
	if rt := p.ReturnType(); !rt.IsVoid() {
		phi = bd.Phi(rt)
		phi.SetName("retval")
	}
	for _, b := range rets {
		old := b.SetTerminator(NewBranch(unified))
		if phi != nil {
			var v Value = Undef(p.ReturnType())
			if len(old.Operands) > 0 {
				v = old.Operands[0]
			}
			phi.AddIncoming(v, b)
		}
	}
	if phi != nil {
		bd.Ret(phi)
	} else {
		bd.Ret(nil)
	}
	return true
}
