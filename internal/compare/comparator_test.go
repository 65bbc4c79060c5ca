package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// recorder is a Session that keeps everything it is told.
type recorder struct {
	*memo
	missing []MissingDefinition
	inline  []InlineCandidate
}

func newRecorder() *recorder { return &recorder{memo: newMemo()} }

func (r *recorder) AddMissingDefinition(d MissingDefinition)  { r.missing = append(r.missing, d) }
func (r *recorder) EnqueueInlineCandidate(c InlineCandidate) { r.inline = append(r.inline, c) }

// version is one side of a comparison: a module with the usual callees.
type version struct {
	m   *ir.Module
	foo *ir.Procedure
	bar *ir.Procedure
}

func newVersion(name string) version {
	m := ir.NewModule(name)
	return version{
		m:   m,
		foo: m.Declare("foo", ir.FuncOf(ir.Void)),
		bar: m.Declare("bar", ir.FuncOf(ir.Void)),
	}
}

func compareProcs(t *testing.T, l, r *ir.Procedure) Report {
	t.Helper()
	require.NoError(t, ir.Verify(l))
	require.NoError(t, ir.Verify(r))
	return New(DefaultOptions(), nil, nil).Compare(l, r)
}

func TestIdenticalProcedures(t *testing.T) {
	build := func() *ir.Procedure {
		v := newVersion("m")
		p := v.m.NewProcedure("f", ir.FuncOf(ir.I32, ir.I32, ir.I32), "a", "b")
		bd := ir.NewBuilder(p.NewBlock("entry"))
		s := bd.Add(p.Params[0], p.Params[1])
		bd.Call(v.foo)
		bd.Ret(s)
		return p
	}
	rep := compareProcs(t, build(), build())
	assert.Equal(t, Equal, rep.Verdict)
	assert.Equal(t, ReasonSameStructure, rep.Reason)
}

func TestRenamedLocalsAreEqual(t *testing.T) {
	build := func(names ...string) *ir.Procedure {
		m := ir.NewModule("m")
		p := m.NewProcedure("f", ir.FuncOf(ir.I32, ir.I32), names[0])
		bd := ir.NewBuilder(p.NewBlock(names[1]))
		bd.Ret(bd.Mul(p.Params[0], ir.ConstInt(ir.I32, 3)).SetName(names[2]))
		return p
	}
	rep := compareProcs(t, build("x", "entry", "m"), build("y", "bb0", "tmp"))
	assert.Equal(t, Equal, rep.Verdict)
}

func TestOperandOrderMatters(t *testing.T) {
	build := func(swap bool) *ir.Procedure {
		m := ir.NewModule("m")
		p := m.NewProcedure("f", ir.FuncOf(ir.I32, ir.I32, ir.I32), "a", "b")
		bd := ir.NewBuilder(p.NewBlock("entry"))
		x, y := p.Params[0], p.Params[1]
		if swap {
			x, y = y, x
		}
		bd.Ret(bd.Sub(x, y))
		return p
	}
	rep := compareProcs(t, build(false), build(true))
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentOperand, rep.Reason)
	require.NotNil(t, rep.Mismatch)
	assert.Equal(t, "entry", rep.Mismatch.LeftBlock)
}

// counterReset builds
//
//	counter = 0; return x*y + z;
//
// with the reset placed before or after the arithmetic.
func counterReset(resetFirst bool) *ir.Procedure {
	m := ir.NewModule("m")
	counter := m.NewGlobal("counter", ir.I32, false)
	p := m.NewProcedure("f", ir.FuncOf(ir.I32, ir.I32, ir.I32, ir.I32), "x", "y", "z")
	bd := ir.NewBuilder(p.NewBlock("entry"))
	if resetFirst {
		bd.Store(ir.ConstInt(ir.I32, 0), counter)
	}
	s := bd.Add(bd.Mul(p.Params[0], p.Params[1]), p.Params[2])
	if !resetFirst {
		bd.Store(ir.ConstInt(ir.I32, 0), counter)
	}
	bd.Ret(s)
	return p
}

func TestScenarioBRelocation(t *testing.T) {
	rep := compareProcs(t, counterReset(true), counterReset(false))
	assert.Equal(t, Equal, rep.Verdict, rep.String())

	rep = compareProcs(t, counterReset(false), counterReset(true))
	assert.Equal(t, Equal, rep.Verdict, rep.String())
}

func TestRelocationDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.RelocationDistance = 0
	rep := New(opts, nil, nil).Compare(counterReset(true), counterReset(false))
	assert.Equal(t, NotEqual, rep.Verdict)
}

func TestRelocationRespectsSideEffects(t *testing.T) {
	build := func(first, second string) *ir.Procedure {
		v := newVersion("m")
		p := v.m.NewProcedure("f", ir.FuncOf(ir.Void))
		bd := ir.NewBuilder(p.NewBlock("entry"))
		calls := map[string]*ir.Procedure{"foo": v.foo, "bar": v.bar}
		bd.Call(calls[first])
		bd.Call(calls[second])
		bd.Ret(nil)
		return p
	}
	rep := compareProcs(t, build("foo", "bar"), build("bar", "foo"))
	assert.Equal(t, NotEqual, rep.Verdict)
}

// branch builds
//
//	if (cond) foo(); else bar();
//
// where the condition and the branch order are chosen by the caller.
func branch(pred ir.Predicate, negate, swapTargets, swapOperands bool) *ir.Procedure {
	v := newVersion("m")
	p := v.m.NewProcedure("f", ir.FuncOf(ir.Void, ir.I32, ir.I32), "a", "b")
	entry := p.NewBlock("entry")
	callFoo := p.NewBlock("call_foo")
	callBar := p.NewBlock("call_bar")
	exit := p.NewBlock("exit")

	bd := ir.NewBuilder(entry)
	a, b := ir.Value(p.Params[0]), ir.Value(p.Params[1])
	if swapOperands {
		a, b = b, a
	}
	var cond ir.Value = bd.ICmp(pred, a, b)
	if negate {
		cond = bd.Not(cond)
	}
	if swapTargets {
		bd.CondBr(cond, callBar, callFoo)
	} else {
		bd.CondBr(cond, callFoo, callBar)
	}
	bd.SetBlock(callFoo)
	bd.Call(v.foo)
	bd.Br(exit)
	bd.SetBlock(callBar)
	bd.Call(v.bar)
	bd.Br(exit)
	bd.SetBlock(exit)
	bd.Ret(nil)
	return p
}

func TestScenarioCNegatedBranches(t *testing.T) {
	tests := []struct {
		name  string
		right *ir.Procedure
		want  Verdict
	}{
		{"same", branch(ir.PredSLT, false, false, false), Equal},
		{"negated and swapped", branch(ir.PredSLT, true, true, false), Equal},
		{"inverse predicate and swapped", branch(ir.PredSGE, false, true, false), Equal},
		{"swapped only", branch(ir.PredSLT, false, true, false), NotEqual},
		{"negated only", branch(ir.PredSLT, true, false, false), NotEqual},
		{"inverse predicate only", branch(ir.PredSGE, false, false, false), NotEqual},
		{"unrelated condition and swapped", branch(ir.PredSLT, false, true, true), NotEqual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := branch(ir.PredSLT, false, false, false)
			rep := compareProcs(t, left, tt.right)
			assert.Equal(t, tt.want, rep.Verdict, rep.String())

			rep = compareProcs(t, tt.right, branch(ir.PredSLT, false, false, false))
			assert.Equal(t, tt.want, rep.Verdict, rep.String())
		})
	}
}

// callWithArgs builds a procedure calling ext with the given arguments.
func callWithArgs(args ...int64) *ir.Procedure {
	m := ir.NewModule("m")
	params := make([]*ir.Type, len(args))
	for i := range params {
		params[i] = ir.I32
	}
	ext := m.Declare("ext", ir.FuncOf(ir.Void, params...))
	p := m.NewProcedure("f", ir.FuncOf(ir.Void, ir.I32), "x")
	bd := ir.NewBuilder(p.NewBlock("entry"))
	vals := []ir.Value{p.Params[0]}
	for _, a := range args[1:] {
		vals = append(vals, ir.ConstInt(ir.I32, a))
	}
	bd.Call(ext, vals...)
	bd.Ret(nil)
	return p
}

func TestExtraArgumentSymmetry(t *testing.T) {
	tests := []struct {
		name  string
		left  []int64
		right []int64
		want  Verdict
	}{
		{"extra zero", []int64{1, 0}, []int64{1}, Equal},
		{"extra non-zero", []int64{1, 5}, []int64{1}, NotEqual},
		{"two extra zeros", []int64{1, 0, 0}, []int64{1}, NotEqual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := compareProcs(t, callWithArgs(tt.left...), callWithArgs(tt.right...))
			assert.Equal(t, tt.want, rep.Verdict)
			rep = compareProcs(t, callWithArgs(tt.right...), callWithArgs(tt.left...))
			assert.Equal(t, tt.want, rep.Verdict)
		})
	}
}

func newTestRun(opts Options) *run {
	l := ir.NewModule("l").NewProcedure("f", ir.FuncOf(ir.Void))
	r := ir.NewModule("r").NewProcedure("f", ir.FuncOf(ir.Void))
	return newRun(New(opts, nil, nil), l, r)
}

func TestUnionSizeRule(t *testing.T) {
	union := ir.StructOf("union.u", ir.I32)
	r := newTestRun(DefaultOptions())

	for _, it := range []*ir.Type{ir.I8, ir.I16, ir.I32} {
		assert.Zero(t, r.cmpTypes(union, it), it.String())
		assert.Zero(t, r.cmpTypes(it, union), it.String())
	}
	assert.NotZero(t, r.cmpTypes(union, ir.I64))
	assert.NotZero(t, r.cmpTypes(ir.I64, union))

	assert.NotZero(t, r.cmpTypes(union, ir.Void))
	assert.NotZero(t, r.cmpTypes(ir.Void, union))
	assert.NotZero(t, r.cmpTypes(ir.FuncOf(union), ir.FuncOf(ir.Void)))
}

func TestControlFlowOnlyTypes(t *testing.T) {
	strict := newTestRun(DefaultOptions())
	opts := DefaultOptions()
	opts.ControlFlowOnly = true
	relaxed := newTestRun(opts)

	assert.NotZero(t, strict.cmpTypes(ir.I32, ir.I64))
	assert.Zero(t, relaxed.cmpTypes(ir.I32, ir.I64))
	assert.Zero(t, relaxed.cmpTypes(ir.ArrayOf(ir.I8, 4), ir.ArrayOf(ir.I32, 16)))
	assert.NotZero(t, relaxed.cmpTypes(ir.I1, ir.I8))
	assert.NotZero(t, relaxed.cmpTypes(ir.I8, ir.I1))
}

func TestAggregatesComparedByName(t *testing.T) {
	r := newTestRun(DefaultOptions())
	old := ir.StructOf("struct.s", ir.I32)
	grown := ir.StructOf("struct.s.12", ir.I32, ir.I64)
	other := ir.StructOf("struct.t", ir.I32)
	assert.Zero(t, r.cmpTypes(old, grown))
	assert.NotZero(t, r.cmpTypes(old, other))
}

// readLen builds `return p->hdr.<field>` where hdr has the given fields,
// all int except a short len.
func readLen(hdrFields []string, field string) *ir.Procedure {
	m := ir.NewModule("m")
	types := make([]*ir.Type, len(hdrFields))
	for i, f := range hdrFields {
		types[i] = ir.I32
		if f == "len" {
			types[i] = ir.I16
		}
	}
	hdr := ir.StructOf("struct.hdr", types...)
	pkt := ir.StructOf("struct.pkt", ir.I64, hdr)
	m.Debug.SetFields(hdr, hdrFields...)
	m.Debug.SetFields(pkt, "id", "hdr")

	idx := 0
	for i, f := range hdrFields {
		if f == field {
			idx = i
		}
	}
	p := m.NewProcedure("get", ir.FuncOf(ir.I32, ir.PointerTo(pkt)), "p")
	bd := ir.NewBuilder(p.NewBlock("entry"))
	h := bd.FieldAddr(pkt, p.Params[0], 1)
	f := bd.FieldAddr(hdr, h, idx)
	v := bd.Load(hdr.Fields[idx], f)
	if v.Typ != ir.I32 {
		v = bd.ZExt(v, ir.I32)
	}
	bd.Ret(v)
	return p
}

func TestFieldAccessChains(t *testing.T) {
	old := readLen([]string{"flags", "len"}, "len")
	reordered := readLen([]string{"len", "flags"}, "len")
	otherField := readLen([]string{"len", "flags"}, "flags")

	rep := compareProcs(t, old, reordered)
	assert.Equal(t, Equal, rep.Verdict, rep.String())

	rep = compareProcs(t, old, otherField)
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentFieldAccess, rep.Reason)
	assert.Equal(t, ".hdr.len vs .hdr.flags", rep.Detail)
}

// readField builds `return p-><field>` over a pair of ints named by fields.
func readField(fields []string, field string) *ir.Procedure {
	m := ir.NewModule("m")
	pair := ir.StructOf("struct.pair", ir.I32, ir.I32)
	m.Debug.SetFields(pair, fields...)
	idx, _ := m.Debug.FieldIndex(pair, field)
	p := m.NewProcedure("get", ir.FuncOf(ir.I32, ir.PointerTo(pair)), "p")
	bd := ir.NewBuilder(p.NewBlock("entry"))
	bd.Ret(bd.Load(ir.I32, bd.FieldAddr(pair, p.Params[0], idx)))
	return p
}

func TestFieldAccessChainsOfOneType(t *testing.T) {
	rep := compareProcs(t, readField([]string{"a", "b"}, "a"), readField([]string{"b", "a"}, "a"))
	assert.Equal(t, Equal, rep.Verdict, rep.String())

	rep = compareProcs(t, readField([]string{"a", "b"}, "a"), readField([]string{"b", "a"}, "b"))
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentFieldAccess, rep.Reason)
	assert.Equal(t, ".a vs .b", rep.Detail)
}

// allocate builds `p = kmalloc(size); memset(p, fill, size); return p` for
// an aggregate with the given fields.
func allocate(fields []*ir.Type, size, fill int64) *ir.Procedure {
	m := ir.NewModule("m")
	st := ir.StructOf("struct.obj", fields...)
	kmalloc := m.Declare("kmalloc", ir.FuncOf(ir.Ptr, ir.I64, ir.I32))
	memset := m.Declare("memset", ir.FuncOf(ir.Ptr, ir.Ptr, ir.I32, ir.I64))
	p := m.NewProcedure("alloc", ir.FuncOf(ir.PointerTo(st)))
	bd := ir.NewBuilder(p.NewBlock("entry"))
	raw := bd.Call(kmalloc, ir.ConstInt(ir.I64, size), ir.ConstInt(ir.I32, 0xcc0))
	obj := bd.Bitcast(raw, ir.PointerTo(st))
	bd.Call(memset, bd.Bitcast(obj, ir.Ptr), ir.ConstInt(ir.I32, fill), ir.ConstInt(ir.I64, size))
	bd.Ret(obj)
	return p
}

func TestAllocationAndMemsetSizes(t *testing.T) {
	small := []*ir.Type{ir.I32, ir.I32}
	large := []*ir.Type{ir.I32, ir.I32, ir.I64}

	rep := compareProcs(t, allocate(small, 8, 0), allocate(large, 16, 0))
	assert.Equal(t, Equal, rep.Verdict, rep.String())

	rep = compareProcs(t, allocate(small, 8, 0), allocate(large, 12, 0))
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentAllocation, rep.Reason)

	rep = compareProcs(t, allocate(small, 8, 0), allocate(large, 16, 0xff))
	assert.Equal(t, NotEqual, rep.Verdict)
}

func TestMacroConstants(t *testing.T) {
	build := func(v int64, macro string) *ir.Procedure {
		m := ir.NewModule("m")
		if macro != "" {
			m.Debug.Macros[v] = []string{macro}
		}
		p := m.NewProcedure("f", ir.FuncOf(ir.I32))
		ir.NewBuilder(p.NewBlock("entry")).Ret(ir.ConstInt(ir.I32, v))
		return p
	}
	assert.Equal(t, Equal, compareProcs(t, build(16, "BUF_SIZE"), build(32, "BUF_SIZE")).Verdict)
	assert.Equal(t, NotEqual, compareProcs(t, build(16, "BUF_SIZE"), build(32, "")).Verdict)
}

func TestUnionCastIsIgnored(t *testing.T) {
	build := func(viaUnion bool) *ir.Procedure {
		m := ir.NewModule("m")
		u := ir.StructOf("union.val", ir.I64)
		p := m.NewProcedure("f", ir.FuncOf(ir.I32, ir.PointerTo(u)), "v")
		bd := ir.NewBuilder(p.NewBlock("entry"))
		var ptr ir.Value = p.Params[0]
		if viaUnion {
			ptr = bd.Bitcast(ptr, ir.PointerTo(ir.I32))
		}
		bd.Ret(bd.Load(ir.I32, ptr))
		return p
	}
	rep := compareProcs(t, build(true), build(false))
	assert.Equal(t, Equal, rep.Verdict, rep.String())
}

// mutual builds f calling g and g calling f; g adds delta.
func mutual(delta int64) (f, g *ir.Procedure) {
	m := ir.NewModule("m")
	sig := ir.FuncOf(ir.I32, ir.I32)
	f = m.NewProcedure("f", sig, "n")
	g = m.NewProcedure("g", sig, "n")

	bd := ir.NewBuilder(f.NewBlock("entry"))
	bd.Ret(bd.Call(g, f.Params[0]))

	bd = ir.NewBuilder(g.NewBlock("entry"))
	bd.Ret(bd.Call(f, bd.Add(g.Params[0], ir.ConstInt(ir.I32, delta))))
	return f, g
}

func TestMutualRecursion(t *testing.T) {
	fl, _ := mutual(1)
	fr, _ := mutual(1)
	s := newRecorder()
	rep := New(DefaultOptions(), s, nil).Compare(fl, fr)
	assert.Equal(t, Equal, rep.Verdict)

	state, v := s.Lookup(fl, fr)
	assert.Equal(t, Done, state)
	assert.Equal(t, Equal, v)

	fd, gd := mutual(2)
	rep = New(DefaultOptions(), s, nil).Compare(fl, fd)
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentCallee, rep.Reason)
	_, v = s.Lookup(fl.Module.Procedure("g"), gd)
	assert.Equal(t, NotEqual, v)
}

func TestCachedResult(t *testing.T) {
	fl, _ := mutual(1)
	fr, _ := mutual(1)
	s := newRecorder()
	s.Finish(fl, fr, NotEqual)

	rep := New(DefaultOptions(), s, nil).Compare(fl, fr)
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonCached, rep.Reason)
}

func TestMissingDefinition(t *testing.T) {
	build := func(withBody bool) *ir.Procedure {
		m := ir.NewModule("m")
		helper := m.NewProcedure("helper", ir.FuncOf(ir.Void))
		if withBody {
			ir.NewBuilder(helper.NewBlock("entry")).Ret(nil)
		}
		p := m.NewProcedure("f", ir.FuncOf(ir.Void))
		bd := ir.NewBuilder(p.NewBlock("entry"))
		bd.Call(helper)
		bd.Ret(nil)
		return p
	}

	s := newRecorder()
	rep := New(DefaultOptions(), s, nil).Compare(build(true), build(false))
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonMissingDefinition, rep.Reason)
	require.Len(t, s.missing, 1)
	assert.Equal(t, MissingDefinition{Left: "helper", Right: "helper", RightMissing: true}, s.missing[0])
	require.Len(t, s.inline, 1)
	assert.NotNil(t, s.inline[0].Left)

	s = newRecorder()
	rep = New(DefaultOptions(), s, nil).Compare(build(false), build(false))
	assert.Equal(t, Equal, rep.Verdict)
	require.Len(t, s.missing, 1)
	assert.True(t, s.missing[0].LeftMissing && s.missing[0].RightMissing)
}

func TestRenamedCalleeIsInlineCandidate(t *testing.T) {
	build := func(name string) *ir.Procedure {
		m := ir.NewModule("m")
		callee := m.Declare(name, ir.FuncOf(ir.Void))
		p := m.NewProcedure("f", ir.FuncOf(ir.Void))
		bd := ir.NewBuilder(p.NewBlock("entry"))
		bd.Call(callee)
		bd.Ret(nil)
		return p
	}
	s := newRecorder()
	rep := New(DefaultOptions(), s, nil).Compare(build("do_work"), build("do_work_locked"))
	assert.Equal(t, NotEqual, rep.Verdict)
	assert.Equal(t, ReasonDifferentCallee, rep.Reason)
	require.Len(t, s.inline, 1)
	assert.Equal(t, "f", s.inline[0].Caller.Left.Name())

	rep = New(DefaultOptions(), newRecorder(), nil).Compare(build("do_work.17"), build("do_work"))
	assert.Equal(t, Equal, rep.Verdict)
}

func TestSideEffectFreeCallees(t *testing.T) {
	build := func(bodyValue int64) *ir.Procedure {
		m := ir.NewModule("m")
		pr := m.NewProcedure("printk", ir.FuncOf(ir.I32))
		ir.NewBuilder(pr.NewBlock("entry")).Ret(ir.ConstInt(ir.I32, bodyValue))
		p := m.NewProcedure("f", ir.FuncOf(ir.Void))
		bd := ir.NewBuilder(p.NewBlock("entry"))
		bd.Call(pr)
		bd.Ret(nil)
		return p
	}
	s := newRecorder()
	rep := New(DefaultOptions(), s, nil).Compare(build(1), build(2))
	assert.Equal(t, Equal, rep.Verdict)
	assert.Empty(t, s.missing)
}

func TestIgnorableExtension(t *testing.T) {
	build := func(widen bool) *ir.Procedure {
		m := ir.NewModule("m")
		ext := m.Declare("consume", ir.FuncOf(ir.Void, ir.I64))
		p := m.NewProcedure("f", ir.FuncOf(ir.Void, ir.I32), "x")
		bd := ir.NewBuilder(p.NewBlock("entry"))
		var v ir.Value = p.Params[0]
		if widen {
			v = bd.SExt(v, ir.I64)
		}
		bd.Call(ext, v)
		bd.Ret(nil)
		return p
	}
	rep := compareProcs(t, build(true), build(false))
	assert.Equal(t, Equal, rep.Verdict, rep.String())
}

func TestDifferentBlockLength(t *testing.T) {
	build := func(extra bool) *ir.Procedure {
		v := newVersion("m")
		p := v.m.NewProcedure("f", ir.FuncOf(ir.Void))
		bd := ir.NewBuilder(p.NewBlock("entry"))
		bd.Call(v.foo)
		if extra {
			bd.Call(v.bar)
		}
		bd.Ret(nil)
		return p
	}
	rep := compareProcs(t, build(false), build(true))
	assert.Equal(t, NotEqual, rep.Verdict)
}

func TestOperandReasons(t *testing.T) {
	t.Parallel()

	build := func(step int64, global string) *ir.Procedure {
		m := ir.NewModule("m")
		g := m.NewGlobal(global, ir.I32, false)
		p := m.NewProcedure("f", ir.FuncOf(ir.I32, ir.I32), "x")
		bd := ir.NewBuilder(p.NewBlock("entry"))
		bd.Store(bd.Add(p.Params[0], ir.ConstInt(ir.I32, step)), g)
		bd.Ret(p.Params[0])
		return p
	}

	tests := []struct {
		name  string
		left  *ir.Procedure
		right *ir.Procedure
		want  ReasonCode
	}{
		{"constant", build(1, "g"), build(2, "g"), ReasonDifferentConstant},
		{"global", build(1, "g"), build(1, "h"), ReasonDifferentGlobal},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rep := compareProcs(t, tt.left, tt.right)
			assert.Equal(t, NotEqual, rep.Verdict)
			assert.Equal(t, tt.want, rep.Reason, rep.String())
		})
	}
}
