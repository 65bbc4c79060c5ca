package compare

import (
	"fmt"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// Verdict is the outcome of comparing two procedures.
type Verdict int

const (
	_ Verdict = iota
	// Equal indicates the procedures were proven equivalent.
	Equal
	// NotEqual indicates equivalence could not be proven.
	NotEqual
)

func (v Verdict) String() string {
	switch v {
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	default:
		return "?"
	}
}

// ReasonCode explains a verdict.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonSameStructure
	ReasonCached
	ReasonInProgress
	ReasonSignature
	ReasonDifferentOpcode
	ReasonDifferentType
	ReasonDifferentOperand
	ReasonDifferentConstant
	ReasonDifferentGlobal
	ReasonDifferentCallee
	ReasonMissingDefinition
	ReasonDifferentFieldAccess
	ReasonDifferentBranch
	ReasonDifferentAllocation
	ReasonDifferentLength
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSameStructure:
		return "same structure"
	case ReasonCached:
		return "cached result"
	case ReasonInProgress:
		return "comparison in progress, provisionally equal"
	case ReasonSignature:
		return "different signatures"
	case ReasonDifferentOpcode:
		return "different operations"
	case ReasonDifferentType:
		return "different types"
	case ReasonDifferentOperand:
		return "different operands"
	case ReasonDifferentConstant:
		return "different constants"
	case ReasonDifferentGlobal:
		return "different globals"
	case ReasonDifferentCallee:
		return "different callees"
	case ReasonMissingDefinition:
		return "missing definition"
	case ReasonDifferentFieldAccess:
		return "different field accesses"
	case ReasonDifferentBranch:
		return "different branches"
	case ReasonDifferentAllocation:
		return "different allocation sizes"
	case ReasonDifferentLength:
		return "different number of operations"
	default:
		return "unknown"
	}
}

// Mismatch locates the first difference found.
type Mismatch struct {
	LeftBlock  string
	RightBlock string
	// Left and Right are the operations that failed to match. One of them
	// is nil when a block ran out of operations.
	Left  *ir.Operation
	Right *ir.Operation
}

// Report provides detailed information about one comparison.
type Report struct {
	Left     string
	Right    string
	Verdict  Verdict
	Reason   ReasonCode
	Detail   string
	Mismatch *Mismatch
}

// Equal reports whether the verdict is Equal.
func (r Report) Equal() bool { return r.Verdict == Equal }

func (r Report) String() string {
	s := fmt.Sprintf("%s vs %s: %s (%s)", r.Left, r.Right, r.Verdict, r.Reason)
	if r.Detail != "" {
		s += ": " + r.Detail
	}
	return s
}
