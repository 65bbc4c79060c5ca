package ir

import (
	"fmt"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind int

const (
	VoidKind TypeKind = iota
	IntKind
	FloatKind
	PointerKind
	ArrayKind
	StructKind
	FuncKind
)

func (k TypeKind) String() string {
	switch k {
	case VoidKind:
		return "void"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case PointerKind:
		return "pointer"
	case ArrayKind:
		return "array"
	case StructKind:
		return "struct"
	case FuncKind:
		return "func"
	default:
		return "?"
	}
}

const pointerSize = 8

// Type describes the type of a value.
//
// Named structs are nominal: two named structs are identical when their names
// are. Literal structs (empty Name) compare structurally.
type Type struct {
	Kind     TypeKind
	Bits     int     // IntKind, FloatKind
	Elem     *Type   // PointerKind, ArrayKind
	Len      int     // ArrayKind
	Name     string  // StructKind
	Fields   []*Type // StructKind
	Params   []*Type // FuncKind
	Result   *Type   // FuncKind
	Variadic bool    // FuncKind
}

var (
	Void = &Type{Kind: VoidKind}
	I1   = IntType(1)
	I8   = IntType(8)
	I16  = IntType(16)
	I32  = IntType(32)
	I64  = IntType(64)
	F64  = FloatType(64)
	Ptr  = PointerTo(I8)
)

// IntType returns an integer type of the given width.
func IntType(bits int) *Type {
	return &Type{Kind: IntKind, Bits: bits}
}

// FloatType returns a floating point type of the given width.
func FloatType(bits int) *Type {
	return &Type{Kind: FloatKind, Bits: bits}
}

// PointerTo returns a pointer to elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: PointerKind, Elem: elem}
}

// ArrayOf returns an array of n elements.
func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: ArrayKind, Elem: elem, Len: n}
}

// StructOf returns a struct type. Names starting with "union." denote unions.
func StructOf(name string, fields ...*Type) *Type {
	return &Type{Kind: StructKind, Name: name, Fields: fields}
}

// FuncOf returns a procedure signature.
func FuncOf(result *Type, params ...*Type) *Type {
	if result == nil {
		result = Void
	}
	return &Type{Kind: FuncKind, Result: result, Params: params}
}

func (t *Type) IsInteger() bool { return t != nil && t.Kind == IntKind }
func (t *Type) IsBool() bool    { return t.IsInteger() && t.Bits == 1 }
func (t *Type) IsPointer() bool { return t != nil && t.Kind == PointerKind }
func (t *Type) IsStruct() bool  { return t != nil && t.Kind == StructKind }
func (t *Type) IsArray() bool   { return t != nil && t.Kind == ArrayKind }
func (t *Type) IsVoid() bool    { return t == nil || t.Kind == VoidKind }

// IsAggregate reports whether t is a struct or an array.
func (t *Type) IsAggregate() bool { return t.IsStruct() || t.IsArray() }

// IsUnion reports whether t is a struct whose name marks it as a union.
func (t *Type) IsUnion() bool {
	return t.IsStruct() && strings.HasPrefix(t.Name, "union.")
}

// Size returns the allocation size of t in bytes.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case IntKind:
		return (t.Bits + 7) / 8
	case FloatKind:
		return t.Bits / 8
	case PointerKind:
		return pointerSize
	case ArrayKind:
		return t.Len * alignTo(t.Elem.Size(), t.Elem.Align())
	case StructKind:
		size := 0
		for _, f := range t.Fields {
			size = alignTo(size, f.Align()) + f.Size()
		}
		return alignTo(size, t.Align())
	default:
		return 0
	}
}

// Align returns the ABI alignment of t in bytes.
func (t *Type) Align() int {
	if t == nil {
		return 1
	}
	switch t.Kind {
	case IntKind, FloatKind:
		a := 1
		for a < t.Size() && a < pointerSize {
			a <<= 1
		}
		return a
	case PointerKind:
		return pointerSize
	case ArrayKind:
		return t.Elem.Align()
	case StructKind:
		a := 1
		for _, f := range t.Fields {
			a = max(a, f.Align())
		}
		return a
	default:
		return 1
	}
}

// FieldOffset returns the byte offset of field i of a struct type.
func (t *Type) FieldOffset(i int) int {
	off := 0
	for j, f := range t.Fields {
		off = alignTo(off, f.Align())
		if j == i {
			return off
		}
		off += f.Size()
	}
	return off
}

// ElemAt returns the type selected by index i inside aggregate t.
func (t *Type) ElemAt(i int) *Type {
	switch t.Kind {
	case StructKind:
		if i >= 0 && i < len(t.Fields) {
			return t.Fields[i]
		}
	case ArrayKind, PointerKind:
		return t.Elem
	}
	return nil
}

func alignTo(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case VoidKind:
		return "void"
	case IntKind:
		return fmt.Sprintf("i%d", t.Bits)
	case FloatKind:
		return fmt.Sprintf("f%d", t.Bits)
	case PointerKind:
		return t.Elem.String() + "*"
	case ArrayKind:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case StructKind:
		if t.Name != "" {
			return "%" + t.Name
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case FuncKind:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		if t.Variadic {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.Result, strings.Join(parts, ", "))
	default:
		return "?"
	}
}

// Identical reports whether a and b denote the same type.
func Identical(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VoidKind:
		return true
	case IntKind, FloatKind:
		return a.Bits == b.Bits
	case PointerKind:
		return Identical(a.Elem, b.Elem)
	case ArrayKind:
		return a.Len == b.Len && Identical(a.Elem, b.Elem)
	case StructKind:
		if a.Name != "" || b.Name != "" {
			return a.Name == b.Name
		}
		return identicalList(a.Fields, b.Fields)
	case FuncKind:
		return a.Variadic == b.Variadic && Identical(a.Result, b.Result) && identicalList(a.Params, b.Params)
	}
	return false
}

func identicalList(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}
