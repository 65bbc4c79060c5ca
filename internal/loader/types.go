package loader

import (
	"go/types"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

var (
	f32 = ir.FloatType(32)

	// string header: data pointer and length
	stringType = ir.StructOf("", ir.Ptr, ir.I64)
	// complex128 as a pair of doubles
	complexType = ir.StructOf("", ir.F64, ir.F64)
)

// typeMap lowers Go types. Named structs become named IR aggregates whose
// field names are recorded in the module debug info.
type typeMap struct {
	debug  *ir.DebugInfo
	named  map[*types.Named]*ir.Type
	slices map[*ir.Type]*ir.Type
}

func newTypeMap(debug *ir.DebugInfo) *typeMap {
	return &typeMap{
		debug:  debug,
		named:  make(map[*types.Named]*ir.Type),
		slices: make(map[*ir.Type]*ir.Type),
	}
}

func (tm *typeMap) lower(t types.Type) *ir.Type {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return basicType(t)
	case *types.Pointer:
		return ir.PointerTo(tm.lower(t.Elem()))
	case *types.Named:
		if st, ok := t.Underlying().(*types.Struct); ok {
			return tm.namedStruct(t, st)
		}
		return tm.lower(t.Underlying())
	case *types.Struct:
		fields := make([]*ir.Type, t.NumFields())
		for i := range fields {
			fields[i] = tm.lower(t.Field(i).Type())
		}
		return ir.StructOf("", fields...)
	case *types.Array:
		return ir.ArrayOf(tm.lower(t.Elem()), int(t.Len()))
	case *types.Slice:
		elem := tm.lower(t.Elem())
		if st, ok := tm.slices[elem]; ok {
			return st
		}
		st := ir.StructOf("", ir.PointerTo(elem), ir.I64, ir.I64)
		tm.slices[elem] = st
		return st
	case *types.Tuple:
		return tm.tuple(t)
	default:
		// maps, channels, interfaces and function values are opaque
		return ir.Ptr
	}
}

// tuple lowers a result list: nothing is void, one result is itself and
// more results form a literal struct.
func (tm *typeMap) tuple(t *types.Tuple) *ir.Type {
	switch t.Len() {
	case 0:
		return ir.Void
	case 1:
		return tm.lower(t.At(0).Type())
	}
	fields := make([]*ir.Type, t.Len())
	for i := range fields {
		fields[i] = tm.lower(t.At(i).Type())
	}
	return ir.StructOf("", fields...)
}

func (tm *typeMap) namedStruct(n *types.Named, st *types.Struct) *ir.Type {
	if t, ok := tm.named[n]; ok {
		return t
	}
	name := "struct." + n.Obj().Name()
	t := ir.StructOf(name)
	// registered before the fields so that self references resolve
	tm.named[n] = t

	names := make([]string, st.NumFields())
	t.Fields = make([]*ir.Type, st.NumFields())
	for i := range t.Fields {
		t.Fields[i] = tm.lower(st.Field(i).Type())
		names[i] = st.Field(i).Name()
	}
	tm.debug.Aggregates[name] = n.Obj().Name()
	tm.debug.SetFields(t, names...)
	return t
}

func basicType(b *types.Basic) *ir.Type {
	switch b.Kind() {
	case types.Bool, types.UntypedBool:
		return ir.I1
	case types.Int8, types.Uint8:
		return ir.I8
	case types.Int16, types.Uint16:
		return ir.I16
	case types.Int32, types.Uint32, types.UntypedRune:
		return ir.I32
	case types.Float32:
		return f32
	case types.Float64, types.UntypedFloat:
		return ir.F64
	case types.Complex64, types.Complex128, types.UntypedComplex:
		return complexType
	case types.String, types.UntypedString:
		return stringType
	case types.UnsafePointer, types.UntypedNil:
		return ir.Ptr
	default:
		return ir.I64
	}
}

func basicInfo(t types.Type) types.BasicInfo {
	if b, ok := t.Underlying().(*types.Basic); ok {
		return b.Info()
	}
	return 0
}

func isUnsigned(t types.Type) bool { return basicInfo(t)&types.IsUnsigned != 0 }
func isFloat(t types.Type) bool    { return basicInfo(t)&types.IsFloat != 0 }
func isInteger(t types.Type) bool  { return basicInfo(t)&types.IsInteger != 0 }
func isString(t types.Type) bool   { return basicInfo(t)&types.IsString != 0 }

// isScalar reports whether values of t compare with a single instruction.
func isScalar(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Info()&(types.IsBoolean|types.IsInteger|types.IsFloat) != 0 || u.Kind() == types.UnsafePointer
	case *types.Pointer, *types.Chan:
		return true
	}
	return false
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}
