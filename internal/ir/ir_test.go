package ir

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds
//
//	entry: br %c, then, else
//	then:  br join
//	else:  br join
//	join:  phi; ret
func diamond(t *testing.T) (*Procedure, map[string]*Block) {
	t.Helper()
	m := NewModule("test")
	p := m.NewProcedure("f", FuncOf(I32, I1, I32), "c", "x")
	blocks := map[string]*Block{}
	for _, n := range []string{"entry", "then", "else", "join"} {
		blocks[n] = p.NewBlock(n)
	}
	bd := NewBuilder(blocks["entry"])
	bd.CondBr(p.Params[0], blocks["then"], blocks["else"])

	bd.SetBlock(blocks["then"])
	one := bd.Add(p.Params[1], ConstInt(I32, 1))
	bd.Br(blocks["join"])

	bd.SetBlock(blocks["else"])
	two := bd.Add(p.Params[1], ConstInt(I32, 2))
	bd.Br(blocks["join"])

	bd.SetBlock(blocks["join"])
	phi := bd.Phi(I32)
	phi.AddIncoming(one, blocks["then"])
	phi.AddIncoming(two, blocks["else"])
	bd.Ret(phi)
	return p, blocks
}

func TestTypeLayout(t *testing.T) {
	st := StructOf("struct.s", I8, I32, I64)
	tests := []struct {
		name  string
		typ   *Type
		size  int
		align int
	}{
		{"bool", I1, 1, 1},
		{"i32", I32, 4, 4},
		{"pointer", Ptr, 8, 8},
		{"array", ArrayOf(I16, 3), 6, 2},
		{"struct", st, 16, 8},
		{"union", StructOf("union.u", I64), 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.typ.Size())
			assert.Equal(t, tt.align, tt.typ.Align())
		})
	}
	assert.Equal(t, 4, st.FieldOffset(1))
	assert.Equal(t, 8, st.FieldOffset(2))
	assert.True(t, StructOf("union.u", I8).IsUnion())
	assert.False(t, st.IsUnion())
}

func TestIdentical(t *testing.T) {
	assert.True(t, Identical(I32, IntType(32)))
	assert.False(t, Identical(I32, I64))
	assert.True(t, Identical(StructOf("struct.a", I8), StructOf("struct.a", I32)))
	assert.True(t, Identical(StructOf("", I8, I32), StructOf("", I8, I32)))
	assert.False(t, Identical(StructOf("", I8), StructOf("", I32)))
	assert.True(t, Identical(PointerTo(ArrayOf(I8, 4)), PointerTo(ArrayOf(I8, 4))))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "foo", BaseName("foo.123"))
	assert.Equal(t, "struct.foo", BaseName("struct.foo.7"))
	assert.Equal(t, "struct.foo", BaseName("struct.foo"))
	assert.Equal(t, "foo.", BaseName("foo."))
}

func TestPredsAndSuccs(t *testing.T) {
	p, b := diamond(t)
	assert.Equal(t, []*Block{b["then"], b["else"]}, b["entry"].Succs())
	assert.Equal(t, []*Block{b["then"], b["else"]}, b["join"].Preds())
	assert.Empty(t, b["entry"].Preds())
	assert.Len(t, b["join"].Phis(), 1)
	require.NoError(t, Verify(p))
}

func TestReplaceAllUsesWith(t *testing.T) {
	p, b := diamond(t)
	phi := b["join"].Phis()[0]
	one := b["then"].Ops[0]
	p.ReplaceAllUsesWith(one, Undef(I32))
	v, ok := phi.IncomingFor(b["then"])
	require.True(t, ok)
	assert.Equal(t, "undef", v.Ref())
	assert.Empty(t, p.Uses(one))
}

func TestRemoveBlockDropsPhiEdges(t *testing.T) {
	p, b := diamond(t)
	b["entry"].SetTerminator(NewBranch(b["then"]))
	p.RemoveBlock(b["else"])
	phi := b["join"].Phis()[0]
	assert.Len(t, phi.Incoming, 1)
	require.NoError(t, Verify(p))
}

func TestVerifyReportsViolations(t *testing.T) {
	m := NewModule("test")
	p := m.NewProcedure("g", FuncOf(Void))
	entry := p.NewBlock("entry")
	other := p.NewBlock("other")
	NewBuilder(entry).Add(ConstInt(I32, 1), ConstInt(I32, 2))
	NewBuilder(other).Br(entry)

	err := Verify(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTerminator))

	p2, b := diamond(t)
	b["join"].Phis()[0].RemoveIncoming(b["else"])
	assert.True(t, errors.Is(Verify(p2), ErrPhiMismatch))
}

func TestDominators(t *testing.T) {
	m := NewModule("test")
	p := m.NewProcedure("loop", FuncOf(Void, I1), "c")
	entry := p.NewBlock("entry")
	header := p.NewBlock("header")
	body := p.NewBlock("body")
	exit := p.NewBlock("exit")
	bd := NewBuilder(entry)
	bd.Br(header)
	bd.SetBlock(header)
	bd.CondBr(p.Params[0], body, exit)
	bd.SetBlock(body)
	bd.Br(header)
	bd.SetBlock(exit)
	bd.Ret(nil)

	dt := Dominators(p)
	assert.Equal(t, entry, dt.Idom(header))
	assert.Equal(t, header, dt.Idom(body))
	assert.Equal(t, header, dt.Idom(exit))
	assert.True(t, dt.Dominates(header, body))
	assert.False(t, dt.Dominates(body, exit))
	assert.True(t, dt.IsBackEdge(body, header))
	assert.False(t, dt.IsBackEdge(header, body))
}

func TestUnifyReturns(t *testing.T) {
	m := NewModule("test")
	p := m.NewProcedure("abs", FuncOf(I32, I32), "x")
	entry := p.NewBlock("entry")
	neg := p.NewBlock("neg")
	pos := p.NewBlock("pos")
	bd := NewBuilder(entry)
	c := bd.ICmp(PredSLT, p.Params[0], ConstInt(I32, 0))
	bd.CondBr(c, neg, pos)
	bd.SetBlock(neg)
	n := bd.Sub(ConstInt(I32, 0), p.Params[0])
	bd.Ret(n)
	bd.SetBlock(pos)
	bd.Ret(p.Params[0])

	require.True(t, UnifyReturns(p))
	ret := p.ReturnBlock()
	require.NotNil(t, ret)
	assert.Equal(t, "return", ret.Name())
	phi := ret.Phis()[0]
	assert.ElementsMatch(t, []*Block{neg, pos}, phi.Incoming)
	require.NoError(t, Verify(p))
	assert.False(t, UnifyReturns(p))
}

func TestClone(t *testing.T) {
	p, _ := diamond(t)
	c := Clone(p)
	require.NoError(t, Verify(c))
	assert.Equal(t, p.String(), c.String())

	c.RemoveBlock(c.Block("else"))
	assert.Len(t, p.Blocks, 4)
	for _, op := range c.Operations() {
		for _, v := range op.Operands {
			if o, ok := v.(*Operation); ok {
				assert.Same(t, c, o.Block().Proc())
			}
		}
	}
}

func TestPrint(t *testing.T) {
	p, _ := diamond(t)
	out := p.String()
	assert.True(t, strings.HasPrefix(out, "define i32 @f(i1 %c, i32 %x) {"))
	assert.Contains(t, out, "br i1 %c, label %then, label %else")
	assert.Contains(t, out, "phi i32 [ %t0, %then ], [ %t1, %else ]")
	assert.Contains(t, out, "ret i32 %t2")

	var buf bytes.Buffer
	require.NoError(t, WriteDot(&buf, p))
	assert.Contains(t, buf.String(), `"entry" -> "then" [label="T"]`)
}
