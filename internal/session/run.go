package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/compare"
	"github.com/gnoswap-labs/semdiff/internal/ir"
	"github.com/gnoswap-labs/semdiff/internal/slicer"
)

var (
	ErrNotFound      = errors.New("procedure not found")
	ErrNoDefinition  = errors.New("procedure has no body")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Options configures Run.
type Options struct {
	Compare compare.Options
	Slicer  slicer.Options
	// Symbol, when set, names a global or parameter both sides are sliced by
	// before comparison.
	Symbol string
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	// Verdicts, when set, skips procedures proven equal by earlier runs and
	// records the new ones.
	Verdicts VerdictStore
}

// VerdictStore remembers procedures proven equal by earlier runs.
type VerdictStore interface {
	KnownEqual(name string) bool
	RememberEqual(name string)
}

// Result is the outcome for one procedure name.
type Result struct {
	Name   string
	Report compare.Report
	// Sliced tells whether slicing changed either side.
	Sliced bool
	// Skipped is set when neither side depends on the sliced symbol.
	Skipped bool
	Err     error
}

// Summary aggregates the results of a run.
type Summary struct {
	Results            []Result
	Equal              int
	NotEqual           int
	Skipped            int
	Failed             int
	MissingDefinitions []compare.MissingDefinition
	InlineCandidates   []compare.InlineCandidate
}

// Differs reports whether any compared pair is not equal.
func (s *Summary) Differs() bool { return s.NotEqual > 0 }

// CommonProcedures returns the sorted names of procedures defined in both
// modules.
func CommonProcedures(oldMod, newMod *ir.Module) []string {
	var names []string
	for _, p := range oldMod.Procedures {
		if p.IsDeclaration() {
			continue
		}
		if q := newMod.Procedure(p.Name()); q != nil && !q.IsDeclaration() {
			names = append(names, p.Name())
		}
	}
	slices.Sort(names)
	return names
}

// Run compares the procedures called names in oldMod and newMod, one pair at
// a time over a single cache. On cancellation the results gathered so far
// are returned with the context error.
func Run(ctx context.Context, logger *zap.Logger, oldMod, newMod *ir.Module, names []string, opts Options) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := New()
	cmp := compare.New(opts.Compare, sess, logger)
	sl := slicer.New(opts.Slicer, logger)

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(names),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("comparing"),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	summary := &Summary{}
	defer func() {
		summary.MissingDefinitions = sess.MissingDefinitions()
		summary.InlineCandidates = sess.InlineCandidates()
	}()

	for _, name := range names {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var res Result
		if opts.Verdicts != nil && opts.Verdicts.KnownEqual(name) {
			res = Result{Name: name, Report: compare.Report{
				Left:    name,
				Right:   name,
				Verdict: compare.Equal,
				Reason:  compare.ReasonCached,
				Detail:  "proven by an earlier run",
			}}
		} else {
			res = compareOne(logger, cmp, sl, oldMod, newMod, name, opts.Symbol)
			if opts.Verdicts != nil && res.Err == nil && !res.Skipped && res.Report.Equal() {
				opts.Verdicts.RememberEqual(name)
			}
		}
		switch {
		case res.Err != nil:
			summary.Failed++
			logger.Error("cannot compare", zap.String("name", name), zap.Error(res.Err))
		case res.Skipped:
			summary.Skipped++
		case res.Report.Equal():
			summary.Equal++
		default:
			summary.NotEqual++
		}
		summary.Results = append(summary.Results, res)

		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return summary, nil
}

func compareOne(logger *zap.Logger, cmp *compare.Comparator, sl *slicer.Slicer, oldMod, newMod *ir.Module, name, symbol string) Result {
	res := Result{Name: name}
	l, err := FindProcedure(oldMod, name)
	if err != nil {
		res.Err = err
		return res
	}
	r, err := FindProcedure(newMod, name)
	if err != nil {
		res.Err = err
		return res
	}

	if symbol != "" {
		ls, err := ResolveSymbol(l, symbol)
		if err != nil {
			res.Err = err
			return res
		}
		rs, err := ResolveSymbol(r, symbol)
		if err != nil {
			res.Err = err
			return res
		}

		// slice copies so that callers comparing other pairs still see the
		// full bodies
		l, r = ir.Clone(l), ir.Clone(r)
		ldep := sl.SliceByDependency(l, rebind(l, ls))
		rdep := sl.SliceByDependency(r, rebind(r, rs))
		if !ldep && !rdep {
			logger.Debug("no dependency on symbol", zap.String("name", name), zap.String("symbol", symbol))
			res.Skipped = true
			return res
		}
		res.Sliced = true
	}

	res.Report = cmp.Compare(l, r)
	return res
}

// FindProcedure returns the defined procedure called name in m.
func FindProcedure(m *ir.Module, name string) (*ir.Procedure, error) {
	p := m.Procedure(name)
	if p == nil {
		return nil, fmt.Errorf("%s in %s: %w", name, m.Name, ErrNotFound)
	}
	if p.IsDeclaration() {
		return nil, fmt.Errorf("%s in %s: %w", name, m.Name, ErrNoDefinition)
	}
	return p, nil
}

// ResolveSymbol finds the value called name as seen from p: a parameter of
// p or a global of its module.
func ResolveSymbol(p *ir.Procedure, name string) (ir.Value, error) {
	if a := p.Param(name); a != nil {
		return a, nil
	}
	if p.Module != nil {
		if g := p.Module.Global(name); g != nil {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%s in %s: %w", name, p.Name(), ErrUnknownSymbol)
}

// rebind maps a parameter of the original procedure onto its clone.
// Globals are shared by clones.
func rebind(clone *ir.Procedure, v ir.Value) ir.Value {
	if a, ok := v.(*ir.Param); ok {
		return clone.Params[a.Index]
	}
	return v
}
