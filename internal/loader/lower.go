package loader

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ssa"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

type lowerer struct {
	module *ir.Module
	fset   *token.FileSet
	pkg    *ssa.Package
	types  *typeMap
	logger *zap.Logger

	procs   map[*ssa.Function]*ir.Procedure
	globals map[*ssa.Global]*ir.Global
	strings map[string]*ir.Global
	// functions of pkg in definition order, lowered by lowerAll
	bodies []*ssa.Function
}

func newLowerer(m *ir.Module, fset *token.FileSet, pkg *ssa.Package, logger *zap.Logger) *lowerer {
	return &lowerer{
		module:  m,
		fset:    fset,
		pkg:     pkg,
		types:   newTypeMap(m.Debug),
		logger:  logger,
		procs:   make(map[*ssa.Function]*ir.Procedure),
		globals: make(map[*ssa.Global]*ir.Global),
		strings: make(map[string]*ir.Global),
	}
}

// procedure returns the IR procedure standing for fn, creating it on first
// use. Functions with a body in the loaded package are queued for lowering;
// free variables of closures become trailing parameters.
func (l *lowerer) procedure(fn *ssa.Function) *ir.Procedure {
	if p, ok := l.procs[fn]; ok {
		return p
	}
	var params []*ir.Type
	var names []string
	for _, a := range fn.Params {
		params = append(params, l.types.lower(a.Type()))
		names = append(names, a.Name())
	}
	for _, fv := range fn.FreeVars {
		params = append(params, l.types.lower(fv.Type()))
		names = append(names, fv.Name())
	}
	if len(fn.Params) == 0 && fn.Signature.Params().Len() > 0 {
		// external functions carry no Params
		for i := 0; i < fn.Signature.Params().Len(); i++ {
			params = append(params, l.types.lower(fn.Signature.Params().At(i).Type()))
		}
	}
	sig := ir.FuncOf(l.types.tuple(fn.Signature.Results()), params...)
	sig.Variadic = fn.Signature.Variadic()

	p := l.module.NewProcedure(procName(fn, l.pkg), sig, names...)
	l.procs[fn] = p
	if len(fn.Blocks) > 0 && fn.Pkg == l.pkg {
		l.bodies = append(l.bodies, fn)
	}
	return p
}

// runtime declares the helper called name for an operation with the given
// result and arguments.
func (l *lowerer) runtime(name string, res *ir.Type, args []ir.Value) *ir.Procedure {
	if p := l.module.Procedure(name); p != nil {
		return p
	}
	params := make([]*ir.Type, len(args))
	for i, a := range args {
		params[i] = a.Type()
	}
	return l.module.Declare(name, ir.FuncOf(res, params...))
}

func (l *lowerer) global(g *ssa.Global) *ir.Global {
	if ig, ok := l.globals[g]; ok {
		return ig
	}
	name := g.Name()
	if g.Pkg != nil && g.Pkg != l.pkg {
		name = g.Pkg.Pkg.Name() + "." + name
	}
	ig := l.module.NewGlobal(name, l.types.lower(deref(g.Type())), false)
	l.module.Debug.Globals[name] = g.Name()
	l.globals[g] = ig
	return ig
}

// stringData returns the constant byte array holding s.
func (l *lowerer) stringData(s string) *ir.Global {
	if g, ok := l.strings[s]; ok {
		return g
	}
	g := l.module.NewGlobal(fmt.Sprintf(".str.%d", len(l.strings)), ir.ArrayOf(ir.I8, len(s)), true)
	g.Data = s
	l.strings[s] = g
	return g
}

func (l *lowerer) location(pos token.Pos) ir.Location {
	if !pos.IsValid() {
		return ir.Location{}
	}
	p := l.fset.Position(pos)
	return ir.Location{File: p.Filename, Line: p.Line}
}

// lowerAll lowers every queued body. Bodies found while lowering, such as
// closures, are queued too.
func (l *lowerer) lowerAll() error {
	for i := 0; i < len(l.bodies); i++ {
		fn := l.bodies[i]
		p := l.procs[fn]
		if err := newFuncLowerer(l, fn, p).lower(); err != nil {
			return fmt.Errorf("error lowering %s: %w", fn.Name(), err)
		}
		if ir.UnifyReturns(p) {
			l.logger.Debug("unified returns", zap.String("procedure", p.Name()))
		}
		if err := ir.Verify(p); err != nil {
			return fmt.Errorf("lowered %s is malformed: %w", p.Name(), err)
		}
	}
	return nil
}

type pendingPhi struct {
	op  *ir.Operation
	phi *ssa.Phi
}

type funcLowerer struct {
	l      *lowerer
	fn     *ssa.Function
	proc   *ir.Procedure
	bd     *ir.Builder
	blocks map[*ssa.BasicBlock]*ir.Block
	values map[ssa.Value]ir.Value
	phis   []pendingPhi
}

func newFuncLowerer(l *lowerer, fn *ssa.Function, p *ir.Procedure) *funcLowerer {
	f := &funcLowerer{
		l:      l,
		fn:     fn,
		proc:   p,
		blocks: make(map[*ssa.BasicBlock]*ir.Block),
		values: make(map[ssa.Value]ir.Value),
	}
	for i, a := range fn.Params {
		f.values[a] = p.Params[i]
	}
	for i, fv := range fn.FreeVars {
		f.values[fv] = p.Params[len(fn.Params)+i]
	}
	return f
}

func (f *funcLowerer) lower() error {
	for _, b := range f.fn.Blocks {
		name := b.Comment
		if name == "" {
			name = "block"
		}
		f.blocks[b] = f.proc.NewBlock(fmt.Sprintf("%s.%d", name, b.Index))
	}
	f.bd = ir.NewBuilder(f.blocks[f.fn.Blocks[0]])

	// dominator preorder defines every value before its non-phi uses
	order := f.fn.DomPreorder()
	done := make(map[*ssa.BasicBlock]bool, len(order))
	for _, b := range order {
		done[b] = true
	}
	for _, b := range f.fn.Blocks {
		if !done[b] {
			order = append(order, b)
		}
	}

	for _, b := range order {
		f.bd.SetBlock(f.blocks[b])
		for _, instr := range b.Instrs {
			f.bd.SetLocation(f.l.location(instr.Pos()))
			if err := f.instr(instr); err != nil {
				return err
			}
		}
	}

	for _, pp := range f.phis {
		for i, e := range pp.phi.Edges {
			pp.op.AddIncoming(f.value(e), f.blocks[pp.phi.Block().Preds[i]])
		}
	}
	return nil
}

func (f *funcLowerer) lowerType(t types.Type) *ir.Type { return f.l.types.lower(t) }

// value returns the IR value for v.
func (f *funcLowerer) value(v ssa.Value) ir.Value {
	switch v := v.(type) {
	case *ssa.Const:
		return f.constant(v)
	case *ssa.Function:
		return f.l.procedure(v)
	case *ssa.Global:
		return f.l.global(v)
	}
	if x, ok := f.values[v]; ok {
		return x
	}
	return ir.Undef(f.lowerType(v.Type()))
}

func (f *funcLowerer) constant(c *ssa.Const) ir.Value {
	t := f.lowerType(c.Type())
	if c.Value == nil {
		return ir.Zero(t)
	}
	switch c.Value.Kind() {
	case constant.Bool:
		return ir.Bool(constant.BoolVal(c.Value))
	case constant.Int:
		if v, ok := constant.Int64Val(c.Value); ok {
			return ir.ConstInt(t, v)
		}
		v, _ := constant.Uint64Val(c.Value)
		return ir.ConstInt(t, int64(v))
	case constant.Float:
		v, _ := constant.Float64Val(c.Value)
		return ir.ConstFloat(t, v)
	case constant.String:
		return f.l.stringData(constant.StringVal(c.Value))
	}
	return ir.Zero(t)
}

func (f *funcLowerer) define(v ssa.Value, x ir.Value) {
	f.values[v] = x
}

func (f *funcLowerer) instr(instr ssa.Instruction) error {
	switch v := instr.(type) {
	case *ssa.DebugRef:
		// no code
	case *ssa.Alloc:
		f.alloc(v)
	case *ssa.BinOp:
		f.define(v, f.binOp(v))
	case *ssa.UnOp:
		f.define(v, f.unOp(v))
	case *ssa.Convert:
		f.define(v, f.convert(v.X, v.Type()))
	case *ssa.ChangeType:
		f.define(v, f.cast(ir.OpBitcast, f.value(v.X), f.lowerType(v.Type())))
	case *ssa.SliceToArrayPointer:
		f.define(v, f.cast(ir.OpBitcast, f.value(v.X), f.lowerType(v.Type())))
	case *ssa.FieldAddr:
		st := f.lowerType(deref(v.X.Type()))
		f.define(v, f.bd.FieldAddr(st, f.value(v.X), v.Field))
	case *ssa.Field:
		f.define(v, f.bd.Extract(f.value(v.X), v.Field))
	case *ssa.IndexAddr:
		f.define(v, f.indexAddr(v))
	case *ssa.Index:
		f.define(v, f.index(v))
	case *ssa.Extract:
		f.define(v, f.bd.Extract(f.value(v.Tuple), v.Index))
	case *ssa.Phi:
		op := f.bd.Phi(f.lowerType(v.Type()))
		f.phis = append(f.phis, pendingPhi{op: op, phi: v})
		f.define(v, op)
	case *ssa.Store:
		f.bd.Store(f.value(v.Val), f.value(v.Addr))
	case *ssa.Call:
		f.define(v, f.call(v.Common(), f.lowerType(v.Type())))
	case *ssa.Go:
		f.deferred("go", v.Common())
	case *ssa.Defer:
		f.deferred("defer", v.Common())
	case *ssa.Return:
		f.ret(v)
	case *ssa.If:
		succs := v.Block().Succs
		f.bd.CondBr(f.value(v.Cond), f.blocks[succs[0]], f.blocks[succs[1]])
	case *ssa.Jump:
		f.bd.Br(f.blocks[v.Block().Succs[0]])
	case *ssa.Panic:
		x := f.value(v.X)
		f.bd.Call(f.l.runtime("panic", ir.Void, []ir.Value{x}), x)
		f.bd.Unreachable()
	case *ssa.MakeClosure:
		args := []ir.Value{f.l.procedure(v.Fn.(*ssa.Function))}
		for _, b := range v.Bindings {
			args = append(args, f.value(b))
		}
		f.define(v, f.opaqueCall("makeclosure", ir.Ptr, args))
	default:
		return f.opaque(instr)
	}
	return nil
}

func (f *funcLowerer) alloc(v *ssa.Alloc) {
	elem := f.lowerType(deref(v.Type()))
	if !v.Heap {
		f.define(v, f.bd.Alloca(elem))
		return
	}
	size := ir.ConstInt(ir.I64, int64(elem.Size()))
	raw := f.opaqueCall("new", ir.Ptr, []ir.Value{size})
	f.define(v, f.bd.Bitcast(raw, ir.PointerTo(elem)))
}

// cast converts x to t, reusing x when the types already agree.
func (f *funcLowerer) cast(code ir.Opcode, x ir.Value, t *ir.Type) ir.Value {
	if ir.Identical(x.Type(), t) {
		return x
	}
	return f.bd.Cast(code, x, t)
}

func (f *funcLowerer) convert(from ssa.Value, to types.Type) ir.Value {
	x := f.value(from)
	ft, tt := from.Type(), to
	t := f.lowerType(tt)
	switch {
	case isInteger(ft) && isInteger(tt):
		fb, tb := x.Type().Bits, t.Bits
		switch {
		case tb < fb:
			return f.cast(ir.OpTrunc, x, t)
		case tb > fb && isUnsigned(ft):
			return f.cast(ir.OpZExt, x, t)
		case tb > fb:
			return f.cast(ir.OpSExt, x, t)
		}
		return f.cast(ir.OpBitcast, x, t)
	case isInteger(ft) && isFloat(tt):
		return f.cast(ir.OpSIToFP, x, t)
	case isFloat(ft) && isInteger(tt):
		return f.cast(ir.OpFPToSI, x, t)
	case isFloat(ft) && isFloat(tt):
		if t.Bits > x.Type().Bits {
			return f.cast(ir.OpFPExt, x, t)
		}
		return f.cast(ir.OpFPTrunc, x, t)
	case t.IsPointer() && isInteger(ft):
		return f.cast(ir.OpIntToPtr, x, t)
	case x.Type().IsPointer() && isInteger(tt):
		return f.cast(ir.OpPtrToInt, x, t)
	case x.Type().IsPointer() && t.IsPointer():
		return f.cast(ir.OpBitcast, x, t)
	}
	// string and slice conversions copy memory
	return f.opaqueCall("convert", t, []ir.Value{x})
}

var arithmetic = map[token.Token][3]ir.Opcode{
	// signed, unsigned, float
	token.ADD: {ir.OpAdd, ir.OpAdd, ir.OpFAdd},
	token.SUB: {ir.OpSub, ir.OpSub, ir.OpFSub},
	token.MUL: {ir.OpMul, ir.OpMul, ir.OpFMul},
	token.QUO: {ir.OpSDiv, ir.OpUDiv, ir.OpFDiv},
	token.REM: {ir.OpSRem, ir.OpURem, ir.OpInvalid},
	token.AND: {ir.OpAnd, ir.OpAnd, ir.OpInvalid},
	token.OR:  {ir.OpOr, ir.OpOr, ir.OpInvalid},
	token.XOR: {ir.OpXor, ir.OpXor, ir.OpInvalid},
	token.SHL: {ir.OpShl, ir.OpShl, ir.OpInvalid},
	token.SHR: {ir.OpAShr, ir.OpLShr, ir.OpInvalid},
}

var predicates = map[token.Token][2]ir.Predicate{
	// signed, unsigned
	token.EQL: {ir.PredEQ, ir.PredEQ},
	token.NEQ: {ir.PredNE, ir.PredNE},
	token.LSS: {ir.PredSLT, ir.PredULT},
	token.LEQ: {ir.PredSLE, ir.PredULE},
	token.GTR: {ir.PredSGT, ir.PredUGT},
	token.GEQ: {ir.PredSGE, ir.PredUGE},
}

func (f *funcLowerer) binOp(v *ssa.BinOp) ir.Value {
	x, y := f.value(v.X), f.value(v.Y)
	t := v.X.Type()

	if preds, ok := predicates[v.Op]; ok {
		if !isScalar(t) {
			eq := f.opaqueCall("equal", ir.I1, []ir.Value{x, y})
			if v.Op == token.NEQ {
				return f.bd.Not(eq)
			}
			return eq
		}
		if isFloat(t) {
			return f.bd.FCmp(preds[0], x, y)
		}
		if isUnsigned(t) {
			return f.bd.ICmp(preds[1], x, y)
		}
		return f.bd.ICmp(preds[0], x, y)
	}

	if v.Op == token.ADD && isString(t) {
		return f.opaqueCall("concatstrings", f.lowerType(v.Type()), []ir.Value{x, y})
	}
	if v.Op == token.AND_NOT {
		return f.bd.And(x, f.bd.Xor(y, ir.ConstInt(y.Type(), -1)))
	}
	codes, ok := arithmetic[v.Op]
	if !ok {
		return f.opaqueCall(v.Op.String(), f.lowerType(v.Type()), []ir.Value{x, y})
	}
	code := codes[0]
	switch {
	case isFloat(t):
		code = codes[2]
	case isUnsigned(t):
		code = codes[1]
	}
	if code == ir.OpInvalid {
		return f.opaqueCall(v.Op.String(), f.lowerType(v.Type()), []ir.Value{x, y})
	}
	if v.Op == token.SHL || v.Op == token.SHR {
		// Go allows shift counts of any integer type
		y = f.convert(v.Y, v.X.Type())
	}
	return f.bd.Binary(code, x, y)
}

func (f *funcLowerer) unOp(v *ssa.UnOp) ir.Value {
	x := f.value(v.X)
	switch v.Op {
	case token.NOT:
		return f.bd.Not(x)
	case token.SUB:
		if isFloat(v.X.Type()) {
			return f.bd.Binary(ir.OpFSub, ir.ConstFloat(x.Type(), 0), x)
		}
		return f.bd.Sub(ir.Zero(x.Type()), x)
	case token.XOR:
		return f.bd.Xor(x, ir.ConstInt(x.Type(), -1))
	case token.MUL:
		return f.bd.Load(f.lowerType(v.Type()), x)
	}
	return f.opaqueCall("chanrecv", f.lowerType(v.Type()), []ir.Value{x})
}

func (f *funcLowerer) indexAddr(v *ssa.IndexAddr) ir.Value {
	x, idx := f.value(v.X), f.value(v.Index)
	switch u := v.X.Type().Underlying().(type) {
	case *types.Pointer:
		arr := f.lowerType(u.Elem())
		return f.bd.GEP(arr, x, ir.ConstInt(ir.I64, 0), idx)
	case *types.Slice:
		data := f.bd.Extract(x, 0)
		return f.bd.GEP(f.lowerType(u.Elem()), data, idx)
	}
	return f.opaqueCall("indexaddr", f.lowerType(v.Type()), []ir.Value{x, idx})
}

func (f *funcLowerer) index(v *ssa.Index) ir.Value {
	x := f.value(v.X)
	if _, ok := v.X.Type().Underlying().(*types.Array); !ok {
		return f.opaqueCall("index", f.lowerType(v.Type()), []ir.Value{x, f.value(v.Index)})
	}
	if c, ok := v.Index.(*ssa.Const); ok && c.Value != nil {
		if i, exact := constant.Int64Val(c.Value); exact {
			return f.bd.Extract(x, int(i))
		}
	}
	// dynamic index into an array value goes through memory
	tmp := f.bd.Alloca(x.Type())
	f.bd.Store(x, tmp)
	addr := f.bd.GEP(x.Type(), tmp, ir.ConstInt(ir.I64, 0), f.value(v.Index))
	return f.bd.Load(f.lowerType(v.Type()), addr)
}

func (f *funcLowerer) call(c *ssa.CallCommon, res *ir.Type) ir.Value {
	var args []ir.Value
	if c.IsInvoke() {
		args = append(args, f.value(c.Value))
	}
	for _, a := range c.Args {
		args = append(args, f.value(a))
	}

	var callee ir.Value
	switch {
	case c.IsInvoke():
		name := recvName(c.Value.Type()) + "." + c.Method.Name()
		callee = f.l.runtime(name, res, args)
	default:
		switch fn := c.Value.(type) {
		case *ssa.Builtin:
			callee = f.l.runtime(fn.Name(), res, args)
		case *ssa.Function:
			callee = f.l.procedure(fn)
		case *ssa.MakeClosure:
			// direct call of a literal: pass the bindings as arguments
			callee = f.l.procedure(fn.Fn.(*ssa.Function))
			for _, b := range fn.Bindings {
				args = append(args, f.value(b))
			}
		default:
			callee = f.value(c.Value)
		}
	}
	return f.bd.CallTyped(res, callee, args...)
}

// deferred lowers go and defer statements into calls taking the callee
// and its arguments.
func (f *funcLowerer) deferred(kind string, c *ssa.CallCommon) {
	var args []ir.Value
	if c.IsInvoke() {
		args = append(args, f.value(c.Value))
	} else if _, ok := c.Value.(*ssa.Builtin); !ok {
		args = append(args, f.value(c.Value))
	}
	for _, a := range c.Args {
		args = append(args, f.value(a))
	}
	f.bd.Call(f.l.runtime(kind, ir.Void, args), args...)
}

func (f *funcLowerer) ret(v *ssa.Return) {
	switch len(v.Results) {
	case 0:
		f.bd.Ret(nil)
	case 1:
		f.bd.Ret(f.value(v.Results[0]))
	default:
		var agg ir.Value = ir.Undef(f.proc.ReturnType())
		for i, r := range v.Results {
			agg = f.bd.Insert(agg, f.value(r), i)
		}
		f.bd.Ret(agg)
	}
}

// opaque lowers an instruction without an IR counterpart into a call to a
// helper named after the instruction.
func (f *funcLowerer) opaque(instr ssa.Instruction) error {
	var args []ir.Value
	for _, op := range instr.Operands(nil) {
		if *op != nil {
			args = append(args, f.value(*op))
		}
	}
	name := opaqueName(instr)
	if v, ok := instr.(ssa.Value); ok {
		f.define(v, f.opaqueCall(name, f.lowerType(v.Type()), args))
		return nil
	}
	f.opaqueCall(name, ir.Void, args)
	return nil
}

func (f *funcLowerer) opaqueCall(name string, res *ir.Type, args []ir.Value) *ir.Operation {
	return f.bd.CallTyped(res, f.l.runtime(name, res, args), args...)
}

func opaqueName(instr ssa.Instruction) string {
	switch instr.(type) {
	case *ssa.MakeInterface:
		return "makeinterface"
	case *ssa.ChangeInterface:
		return "changeinterface"
	case *ssa.MakeSlice:
		return "makeslice"
	case *ssa.MakeMap:
		return "makemap"
	case *ssa.MakeChan:
		return "makechan"
	case *ssa.Slice:
		return "slice"
	case *ssa.Lookup:
		return "mapaccess"
	case *ssa.MapUpdate:
		return "mapassign"
	case *ssa.Range:
		return "range"
	case *ssa.Next:
		return "next"
	case *ssa.TypeAssert:
		return "typeassert"
	case *ssa.Send:
		return "chansend"
	case *ssa.Select:
		return "select"
	case *ssa.RunDefers:
		return "rundefers"
	case *ssa.MultiConvert:
		return "multiconvert"
	}
	return fmt.Sprintf("%T", instr)
}
