package ir

import (
	"errors"
	"fmt"
)

var (
	ErrNoEntry             = errors.New("procedure has no entry block")
	ErrNoTerminator        = errors.New("block does not end in a terminator")
	ErrMisplacedTerminator = errors.New("terminator in the middle of a block")
	ErrTargetCount         = errors.New("terminator has the wrong number of targets")
	ErrDanglingEdge        = errors.New("edge to a block outside the procedure")
	ErrDanglingOperand     = errors.New("operand defined outside the procedure")
	ErrWrongOwner          = errors.New("operation owned by another block")
	ErrPhiMismatch         = errors.New("phi edges differ from block predecessors")
)

// Verify checks the well-formedness of p: one terminator per block, edges and
// operands inside p, and phi edges matching the actual predecessors. All
// violations are returned joined.
func Verify(p *Procedure) error {
	if p.IsDeclaration() {
		return nil
	}
	if p.Entry() == nil {
		return ErrNoEntry
	}

	blocks := make(map[*Block]bool, len(p.Blocks))
	defined := make(map[*Operation]bool)
	for _, b := range p.Blocks {
		blocks[b] = true
		for _, op := range b.Ops {
			defined[op] = true
		}
	}

	var errs []error
	for _, b := range p.Blocks {
		if b.Terminator() == nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.name, ErrNoTerminator))
		}
		for i, op := range b.Ops {
			if op.block != b {
				errs = append(errs, fmt.Errorf("%s: %s: %w", b.name, op.Ref(), ErrWrongOwner))
			}
			if op.IsTerminator() && i != len(b.Ops)-1 {
				errs = append(errs, fmt.Errorf("%s: %w", b.name, ErrMisplacedTerminator))
			}
			for _, v := range op.Operands {
				switch x := v.(type) {
				case *Operation:
					if !defined[x] {
						errs = append(errs, fmt.Errorf("%s: %s uses %s: %w", b.name, op.Op, x.Ref(), ErrDanglingOperand))
					}
				case *Param:
					if x.proc != p {
						errs = append(errs, fmt.Errorf("%s: %s uses %s: %w", b.name, op.Op, x.Ref(), ErrDanglingOperand))
					}
				}
			}
			for _, t := range op.Targets {
				if !blocks[t] {
					errs = append(errs, fmt.Errorf("%s -> %s: %w", b.name, t.name, ErrDanglingEdge))
				}
			}
			if err := checkTargetCount(op); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			}
		}
		if err := checkPhis(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkTargetCount(op *Operation) error {
	want := -1
	switch op.Op {
	case OpBr:
		want = 1
	case OpCondBr:
		want = 2
	case OpRet, OpUnreachable:
		want = 0
	case OpSwitch:
		want = len(op.Operands)
	}
	if want >= 0 && len(op.Targets) != want {
		return fmt.Errorf("%s with %d targets: %w", op.Op, len(op.Targets), ErrTargetCount)
	}
	if want < 0 && len(op.Targets) != 0 {
		return fmt.Errorf("%s with %d targets: %w", op.Op, len(op.Targets), ErrTargetCount)
	}
	return nil
}

func checkPhis(b *Block) error {
	preds := make(map[*Block]bool)
	for _, p := range b.Preds() {
		preds[p] = true
	}
	for _, phi := range b.Phis() {
		seen := make(map[*Block]bool)
		for _, in := range phi.Incoming {
			if !preds[in] || seen[in] {
				return fmt.Errorf("%s: %s from %s: %w", b.name, phi.Ref(), in.name, ErrPhiMismatch)
			}
			seen[in] = true
		}
		if len(seen) != len(preds) {
			return fmt.Errorf("%s: %s has %d edges for %d predecessors: %w", b.name, phi.Ref(), len(seen), len(preds), ErrPhiMismatch)
		}
	}
	return nil
}
