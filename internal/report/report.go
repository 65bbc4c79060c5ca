// Package report renders the outcome of a comparison run as colored text,
// JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/semdiff/internal/compare"
	"github.com/gnoswap-labs/semdiff/internal/ir"
	"github.com/gnoswap-labs/semdiff/internal/session"
)

// Format selects the rendering of a report.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Document is the serializable form of a session summary.
type Document struct {
	Results            []Entry   `json:"results" yaml:"results"`
	Totals             Totals    `json:"totals" yaml:"totals"`
	MissingDefinitions []Missing `json:"missing_definitions,omitempty" yaml:"missing_definitions,omitempty"`
	InlineCandidates   []Inline  `json:"inline_candidates,omitempty" yaml:"inline_candidates,omitempty"`
}

type Totals struct {
	Equal    int `json:"equal" yaml:"equal"`
	NotEqual int `json:"not_equal" yaml:"not_equal"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

// Entry describes the comparison of one procedure.
type Entry struct {
	Name     string         `json:"name" yaml:"name"`
	Verdict  string         `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Reason   string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Detail   string         `json:"detail,omitempty" yaml:"detail,omitempty"`
	Sliced   bool           `json:"sliced,omitempty" yaml:"sliced,omitempty"`
	Skipped  bool           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	Mismatch *MismatchEntry `json:"mismatch,omitempty" yaml:"mismatch,omitempty"`
}

// MismatchEntry holds the textual form of the first differing operations.
type MismatchEntry struct {
	LeftBlock  string `json:"left_block" yaml:"left_block"`
	RightBlock string `json:"right_block" yaml:"right_block"`
	Left       string `json:"left,omitempty" yaml:"left,omitempty"`
	Right      string `json:"right,omitempty" yaml:"right,omitempty"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
}

type Missing struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
	// Side is "left", "right" or "both".
	Side string `json:"side" yaml:"side"`
}

type Inline struct {
	Caller string `json:"caller" yaml:"caller"`
	Left   string `json:"left,omitempty" yaml:"left,omitempty"`
	Right  string `json:"right,omitempty" yaml:"right,omitempty"`
}

// Build converts a summary into a Document.
func Build(s *session.Summary) Document {
	doc := Document{
		Results: make([]Entry, 0, len(s.Results)),
		Totals: Totals{
			Equal:    s.Equal,
			NotEqual: s.NotEqual,
			Skipped:  s.Skipped,
			Failed:   s.Failed,
		},
	}
	for _, res := range s.Results {
		doc.Results = append(doc.Results, entry(res))
	}
	for _, d := range s.MissingDefinitions {
		doc.MissingDefinitions = append(doc.MissingDefinitions, Missing{
			Left:  d.Left,
			Right: d.Right,
			Side:  missingSide(d),
		})
	}
	for _, c := range s.InlineCandidates {
		doc.InlineCandidates = append(doc.InlineCandidates, Inline{
			Caller: pairName(c.Caller),
			Left:   formatOp(c.Left),
			Right:  formatOp(c.Right),
		})
	}
	return doc
}

func entry(res session.Result) Entry {
	e := Entry{Name: res.Name, Sliced: res.Sliced, Skipped: res.Skipped}
	switch {
	case res.Err != nil:
		e.Error = res.Err.Error()
		return e
	case res.Skipped:
		return e
	}
	rep := res.Report
	e.Verdict = rep.Verdict.String()
	e.Reason = rep.Reason.String()
	e.Detail = rep.Detail
	if m := rep.Mismatch; m != nil {
		e.Mismatch = &MismatchEntry{
			LeftBlock:  m.LeftBlock,
			RightBlock: m.RightBlock,
			Left:       formatOp(m.Left),
			Right:      formatOp(m.Right),
			Location:   location(m),
		}
	}
	return e
}

func missingSide(d compare.MissingDefinition) string {
	switch {
	case d.LeftMissing && d.RightMissing:
		return "both"
	case d.LeftMissing:
		return "left"
	default:
		return "right"
	}
}

func pairName(p compare.Pair) string {
	l, r := "?", "?"
	if p.Left != nil {
		l = p.Left.Name()
	}
	if p.Right != nil {
		r = p.Right.Name()
	}
	if l == r {
		return l
	}
	return l + "/" + r
}

func formatOp(op *ir.Operation) string {
	if op == nil {
		return ""
	}
	return op.Format()
}

// location prefers the position of the new version.
func location(m *compare.Mismatch) string {
	for _, op := range []*ir.Operation{m.Right, m.Left} {
		if op != nil && op.Loc.IsValid() {
			return op.Loc.String()
		}
	}
	return ""
}

// Write renders s to w in format f.
func Write(w io.Writer, s *session.Summary, f Format) error {
	doc := Build(s)
	switch f {
	case Text, "":
		_, err := io.WriteString(w, FormatText(doc))
		return err
	case JSON:
		d, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshalling report to JSON: %w", err)
		}
		_, err = w.Write(append(d, '\n'))
		return err
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error marshalling report to YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}
