package ir

import (
	"fmt"
	"io"
	"strings"
)

func typed(v Value) string {
	return v.Type().String() + " " + v.Ref()
}

func joinTyped(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = typed(v)
	}
	return strings.Join(parts, ", ")
}

// Format renders op in an LLVM-like textual syntax.
func (o *Operation) Format() string {
	var sb strings.Builder
	if o.HasResult() {
		sb.WriteString(o.Ref() + " = ")
	}
	switch o.Op {
	case OpICmp, OpFCmp:
		fmt.Fprintf(&sb, "%s %s %s, %s", o.Op, o.Pred, typed(o.Operands[0]), o.Operands[1].Ref())
	case OpAlloca:
		fmt.Fprintf(&sb, "alloca %s", o.Elem)
	case OpLoad:
		fmt.Fprintf(&sb, "load %s, %s", o.Typ, typed(o.Operands[0]))
	case OpGEP:
		fmt.Fprintf(&sb, "getelementptr %s, %s", o.Elem, joinTyped(o.Operands))
	case OpPhi:
		parts := make([]string, len(o.Operands))
		for i, v := range o.Operands {
			parts[i] = fmt.Sprintf("[ %s, %%%s ]", v.Ref(), o.Incoming[i].name)
		}
		fmt.Fprintf(&sb, "phi %s %s", o.Typ, strings.Join(parts, ", "))
	case OpCall:
		fmt.Fprintf(&sb, "call %s %s(%s)", o.Typ, o.Operands[0].Ref(), joinTyped(o.Args()))
	case OpBr:
		fmt.Fprintf(&sb, "br label %%%s", o.Targets[0].name)
	case OpCondBr:
		fmt.Fprintf(&sb, "br %s, label %%%s, label %%%s", typed(o.Operands[0]), o.Targets[0].name, o.Targets[1].name)
	case OpSwitch:
		fmt.Fprintf(&sb, "switch %s, label %%%s [", typed(o.Operands[0]), o.Targets[0].name)
		for i := 1; i < len(o.Operands) && i < len(o.Targets); i++ {
			fmt.Fprintf(&sb, " %s, label %%%s", typed(o.Operands[i]), o.Targets[i].name)
		}
		sb.WriteString(" ]")
	case OpRet:
		if len(o.Operands) == 0 {
			sb.WriteString("ret void")
		} else {
			fmt.Fprintf(&sb, "ret %s", typed(o.Operands[0]))
		}
	case OpUnreachable:
		sb.WriteString("unreachable")
	default:
		if o.Op.IsCast() {
			fmt.Fprintf(&sb, "%s %s to %s", o.Op, typed(o.Operands[0]), o.Typ)
		} else {
			fmt.Fprintf(&sb, "%s %s", o.Op, joinTyped(o.Operands))
		}
	}
	if o.Loc.IsValid() {
		fmt.Fprintf(&sb, " ; %s", o.Loc)
	}
	return sb.String()
}

func signature(p *Procedure) string {
	parts := make([]string, len(p.Params))
	for i, a := range p.Params {
		parts[i] = typed(a)
	}
	if p.Sig.Variadic {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("%s @%s(%s)", p.ReturnType(), p.name, strings.Join(parts, ", "))
}

// Fprint writes the textual form of p to w.
func Fprint(w io.Writer, p *Procedure) error {
	if p.IsDeclaration() {
		_, err := fmt.Fprintf(w, "declare %s\n", signature(p))
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "define %s {\n", signature(p))
	for i, b := range p.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", b.name)
		for _, op := range b.Ops {
			fmt.Fprintf(&sb, "  %s\n", op.Format())
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func (p *Procedure) String() string {
	var sb strings.Builder
	_ = Fprint(&sb, p)
	return sb.String()
}

// FprintModule writes every global and procedure of m to w.
func FprintModule(w io.Writer, m *Module) error {
	for _, g := range m.Globals {
		kind := "global"
		if g.Constant {
			kind = "constant"
		}
		init := "zeroinitializer"
		switch {
		case g.Init != nil:
			init = g.Init.Ref()
		case g.Data != "":
			init = fmt.Sprintf("c%q", g.Data)
		}
		if _, err := fmt.Fprintf(w, "@%s = %s %s %s\n", g.name, kind, g.ValueType, init); err != nil {
			return err
		}
	}
	for _, p := range m.Procedures {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := Fprint(w, p); err != nil {
			return err
		}
	}
	return nil
}
