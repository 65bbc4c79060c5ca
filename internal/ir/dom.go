package ir

// DomTree holds the immediate dominators of the blocks reachable from the
// entry of a procedure.
type DomTree struct {
	entry *Block
	idom  map[*Block]*Block
	ponum map[*Block]int
}

// postorder returns the blocks reachable from entry in postorder.
func postorder(entry *Block) []*Block {
	type frame struct {
		b     *Block
		succs []*Block
	}
	var order []*Block
	seen := map[*Block]bool{entry: true}
	stack := []frame{{entry, entry.Succs()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.succs) == 0 {
			order = append(order, top.b)
			stack = stack[:len(stack)-1]
			continue
		}
		s := top.succs[0]
		top.succs = top.succs[1:]
		if !seen[s] {
			seen[s] = true
			stack = append(stack, frame{s, s.Succs()})
		}
	}
	return order
}

// Dominators computes the dominator tree of p with the iterative algorithm of
// Cooper, Harvey and Kennedy.
func Dominators(p *Procedure) *DomTree {
	t := &DomTree{
		entry: p.Entry(),
		idom:  make(map[*Block]*Block),
		ponum: make(map[*Block]int),
	}
	if t.entry == nil {
		return t
	}

	po := postorder(t.entry)
	for i, b := range po {
		t.ponum[b] = i
	}
	preds := make(map[*Block][]*Block)
	for _, b := range po {
		for _, s := range b.Succs() {
			preds[s] = append(preds[s], b)
		}
	}

	t.idom[t.entry] = t.entry
	for changed := true; changed; {
		changed = false
		// reverse postorder, entry excluded
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			var d *Block
			for _, pred := range preds[b] {
				if _, ok := t.idom[pred]; !ok {
					continue
				}
				if d == nil {
					d = pred
					continue
				}
				d = t.intersect(pred, d)
			}
			if d != nil && t.idom[b] != d {
				t.idom[b] = d
				changed = true
			}
		}
	}
	return t
}

func (t *DomTree) intersect(b, c *Block) *Block {
	for b != c {
		for t.ponum[b] < t.ponum[c] {
			b = t.idom[b]
		}
		for t.ponum[c] < t.ponum[b] {
			c = t.idom[c]
		}
	}
	return b
}

// Idom returns the immediate dominator of b, nil for the entry and for
// unreachable blocks.
func (t *DomTree) Idom(b *Block) *Block {
	if b == t.entry {
		return nil
	}
	return t.idom[b]
}

// Dominates reports whether every path from the entry to b passes through a.
func (t *DomTree) Dominates(a, b *Block) bool {
	if _, ok := t.idom[b]; !ok {
		return false
	}
	for x := b; ; x = t.idom[x] {
		if x == a {
			return true
		}
		if x == t.entry {
			return false
		}
	}
}

// IsBackEdge reports whether the edge from -> to closes a loop, that is,
// whether to dominates from.
func (t *DomTree) IsBackEdge(from, to *Block) bool {
	return t.Dominates(to, from)
}
