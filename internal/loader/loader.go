// Package loader builds IR modules from Go source.
//
// A source file is type-checked and converted to SSA form with
// golang.org/x/tools/go/ssa, then every function of the package is lowered
// into an ir.Procedure. Functions of other packages, builtins and runtime
// operations without a direct IR counterpart become calls to bodyless
// declarations named after the operation.
package loader

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/gnoswap-labs/semdiff/internal/ir"
)

// Loader turns Go source files into IR modules.
type Loader struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadFile reads and lowers the Go file at path.
func (l *Loader) LoadFile(path string) (*ir.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.LoadSource(path, src)
}

// LoadSource lowers the Go source src. filename is used for positions and
// as the module name.
func (l *Loader) LoadSource(filename string, src []byte) (*ir.Module, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}

	pkg := types.NewPackage(f.Name.Name, f.Name.Name)
	conf := &types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	ssaPkg, _, err := ssautil.BuildPackage(conf, fset, pkg, []*ast.File{f}, ssa.BuilderMode(0))
	if err != nil {
		return nil, fmt.Errorf("error building SSA for %s: %w", filename, err)
	}

	m := ir.NewModule(strings.TrimSuffix(filepath.Base(filename), ".go"))
	lw := newLowerer(m, fset, ssaPkg, l.logger)
	for _, fn := range packageFunctions(ssaPkg) {
		lw.procedure(fn)
	}
	if err := lw.lowerAll(); err != nil {
		return nil, err
	}
	l.logger.Debug("module loaded",
		zap.String("file", filename),
		zap.Int("procedures", len(m.Procedures)),
		zap.Int("globals", len(m.Globals)))
	return m, nil
}

// packageFunctions returns the functions, methods and closures defined in
// pkg, ordered by position.
func packageFunctions(pkg *ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	seen := make(map[*ssa.Function]bool)
	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		if fn == nil || seen[fn] || fn.Synthetic != "" || len(fn.Blocks) == 0 {
			return
		}
		seen[fn] = true
		fns = append(fns, fn)
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}

	for _, mem := range pkg.Members {
		switch m := mem.(type) {
		case *ssa.Function:
			add(m)
		case *ssa.Type:
			named, ok := m.Type().(*types.Named)
			if !ok {
				continue
			}
			for _, t := range []types.Type{named, types.NewPointer(named)} {
				mset := pkg.Prog.MethodSets.MethodSet(t)
				for i := 0; i < mset.Len(); i++ {
					add(pkg.Prog.MethodValue(mset.At(i)))
				}
			}
		}
	}
	slices.SortFunc(fns, func(a, b *ssa.Function) int {
		if a.Pos() != b.Pos() {
			return int(a.Pos() - b.Pos())
		}
		return strings.Compare(a.Name(), b.Name())
	})
	return fns
}

// procName is the IR name of fn: "T.M" for methods, "pkg.F" for functions
// of other packages.
func procName(fn *ssa.Function, home *ssa.Package) string {
	if recv := fn.Signature.Recv(); recv != nil {
		return recvName(recv.Type()) + "." + fn.Name()
	}
	if fn.Pkg != nil && fn.Pkg != home && fn.Parent() == nil {
		return fn.Pkg.Pkg.Name() + "." + fn.Name()
	}
	return fn.Name()
}

func recvName(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if n, ok := types.Unalias(t).(*types.Named); ok {
		return n.Obj().Name()
	}
	return t.String()
}
