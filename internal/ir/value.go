package ir

import (
	"strconv"
	"strings"
)

// Value is anything an Operation can use as an operand.
type Value interface {
	Type() *Type
	// Ref returns the textual form used when the value appears as an operand.
	Ref() string
}

// Const is an immediate scalar or an undefined placeholder.
type Const struct {
	Typ   *Type
	Int   int64
	Float float64
	Undef bool
}

// ConstInt returns an integer (or pointer) constant.
func ConstInt(t *Type, v int64) *Const {
	return &Const{Typ: t, Int: v}
}

// ConstFloat returns a floating point constant.
func ConstFloat(t *Type, v float64) *Const {
	return &Const{Typ: t, Float: v}
}

// Undef returns the inert placeholder of type t.
func Undef(t *Type) *Const {
	return &Const{Typ: t, Undef: true}
}

// Zero returns the zero value of t.
func Zero(t *Type) *Const {
	return &Const{Typ: t}
}

// Bool returns an i1 constant.
func Bool(b bool) *Const {
	if b {
		return ConstInt(I1, 1)
	}
	return ConstInt(I1, 0)
}

func (c *Const) Type() *Type { return c.Typ }

// IsZero reports whether c is a defined zero/null/false constant.
func (c *Const) IsZero() bool {
	return !c.Undef && c.Int == 0 && c.Float == 0
}

// IsTrue reports whether c is the i1 constant true.
func (c *Const) IsTrue() bool {
	return !c.Undef && c.Typ.IsBool() && c.Int != 0
}

// SameValue reports whether c and d hold the same bits, ignoring types.
func (c *Const) SameValue(d *Const) bool {
	return c.Undef == d.Undef && c.Int == d.Int && c.Float == d.Float
}

func (c *Const) Ref() string {
	switch {
	case c.Undef:
		return "undef"
	case c.Typ.IsPointer() && c.Int == 0:
		return "null"
	case c.Typ.IsBool():
		return strconv.FormatBool(c.Int != 0)
	case c.Typ != nil && c.Typ.Kind == FloatKind:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case c.Typ != nil && c.Typ.IsAggregate() && c.Int == 0:
		return "zeroinitializer"
	default:
		return strconv.FormatInt(c.Int, 10)
	}
}

// Global is a module-level variable. As a Value it denotes the variable's
// address, so its type is a pointer to ValueType.
type Global struct {
	name      string
	ValueType *Type
	Init      *Const
	Data      string // raw contents of constant byte arrays
	Constant  bool
	ptr       *Type
}

func (g *Global) Name() string { return g.name }
func (g *Global) Type() *Type  { return g.ptr }
func (g *Global) Ref() string  { return "@" + g.name }

// Param is a formal parameter of a Procedure.
type Param struct {
	name  string
	Typ   *Type
	Index int
	proc  *Procedure
}

func (p *Param) Name() string     { return p.name }
func (p *Param) Type() *Type      { return p.Typ }
func (p *Param) Ref() string      { return "%" + p.name }
func (p *Param) Proc() *Procedure { return p.proc }

// BaseName strips the numeric suffix compilers append to disambiguate
// symbols ("foo.123" becomes "foo").
func BaseName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[:i]
}
