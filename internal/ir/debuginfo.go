package ir

import "fmt"

// Location is a source position recorded for an operation.
type Location struct {
	File string
	Line int
}

func (l Location) IsValid() bool { return l.Line > 0 }

func (l Location) String() string {
	if !l.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// FieldKey identifies a field of a named aggregate.
type FieldKey struct {
	Type  string
	Index int
}

// DebugInfo is the side table of source-level facts the front end recorded.
// A nil *DebugInfo answers every query with "unknown".
type DebugInfo struct {
	// IR aggregate name -> source-level type name
	Aggregates map[string]string
	// (IR aggregate name, field index) -> field name
	Fields map[FieldKey]string
	// constant value -> macros expanding to it
	Macros map[int64][]string
	// IR global name -> declared name
	Globals map[string]string
}

func NewDebugInfo() *DebugInfo {
	return &DebugInfo{
		Aggregates: make(map[string]string),
		Fields:     make(map[FieldKey]string),
		Macros:     make(map[int64][]string),
		Globals:    make(map[string]string),
	}
}

// AggregateName returns the source-level name of a named aggregate.
func (d *DebugInfo) AggregateName(t *Type) string {
	if t == nil || !t.IsStruct() || t.Name == "" {
		return ""
	}
	if d != nil {
		if n, ok := d.Aggregates[t.Name]; ok {
			return n
		}
	}
	return BaseName(t.Name)
}

// FieldName returns the recorded name of field i of t.
func (d *DebugInfo) FieldName(t *Type, i int) (string, bool) {
	if d == nil || t == nil || t.Name == "" {
		return "", false
	}
	n, ok := d.Fields[FieldKey{Type: t.Name, Index: i}]
	return n, ok
}

// FieldIndex returns the index of the field called name in t.
func (d *DebugInfo) FieldIndex(t *Type, name string) (int, bool) {
	if d == nil || t == nil || !t.IsStruct() {
		return 0, false
	}
	for i := range t.Fields {
		if n, ok := d.Fields[FieldKey{Type: t.Name, Index: i}]; ok && n == name {
			return i, true
		}
	}
	return 0, false
}

// SetFields records the field names of t.
func (d *DebugInfo) SetFields(t *Type, names ...string) {
	for i, n := range names {
		d.Fields[FieldKey{Type: t.Name, Index: i}] = n
	}
}

// MacroNames returns the macros known to expand to v.
func (d *DebugInfo) MacroNames(v int64) []string {
	if d == nil {
		return nil
	}
	return d.Macros[v]
}

// GlobalName returns the declared name of g.
func (d *DebugInfo) GlobalName(g *Global) string {
	if d != nil {
		if n, ok := d.Globals[g.name]; ok {
			return n
		}
	}
	return BaseName(g.name)
}
