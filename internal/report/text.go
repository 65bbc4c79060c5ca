package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	equalStyle   = color.New(color.FgGreen, color.Bold)
	skipStyle    = color.New(color.FgYellow, color.Bold)
	nameStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	removedStyle = color.New(color.FgRed)
	addedStyle   = color.New(color.FgGreen)
)

// FormatText renders doc for a terminal. Equal procedures get one line each,
// differences get the reason and the first mismatching operations.
func FormatText(doc Document) string {
	var builder strings.Builder
	for _, e := range doc.Results {
		builder.WriteString(formatEntry(e))
	}

	if len(doc.MissingDefinitions) > 0 {
		builder.WriteString(skipStyle.Sprint("missing definitions:") + "\n")
		for _, m := range doc.MissingDefinitions {
			fmt.Fprintf(&builder, "  %s vs %s (%s)\n", m.Left, m.Right, m.Side)
		}
	}
	if len(doc.InlineCandidates) > 0 {
		builder.WriteString(skipStyle.Sprint("inline candidates:") + "\n")
		for _, c := range doc.InlineCandidates {
			fmt.Fprintf(&builder, "  in %s: %s | %s\n", c.Caller, orNone(c.Left), orNone(c.Right))
		}
	}

	t := doc.Totals
	fmt.Fprintf(&builder, "%d equal, %d not equal, %d skipped, %d failed\n",
		t.Equal, t.NotEqual, t.Skipped, t.Failed)
	return builder.String()
}

func formatEntry(e Entry) string {
	switch {
	case e.Error != "":
		return errorStyle.Sprint("error: ") + nameStyle.Sprint(e.Name) + "\n" +
			lineStyle.Sprint("  | ") + messageStyle.Sprint(e.Error) + "\n"
	case e.Skipped:
		return skipStyle.Sprint("skipped: ") + nameStyle.Sprint(e.Name) + "\n"
	case e.Verdict == "Equal":
		return equalStyle.Sprint("equal: ") + nameStyle.Sprint(e.Name) + sliced(e) + "\n"
	}

	var result strings.Builder
	result.WriteString(errorStyle.Sprint("not equal: ") + nameStyle.Sprint(e.Name) + sliced(e) + "\n")
	m := e.Mismatch
	if m != nil && m.Location != "" {
		result.WriteString(lineStyle.Sprint(" --> ") + nameStyle.Sprint(m.Location) + "\n")
	}
	msg := e.Reason
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	result.WriteString(lineStyle.Sprint("  | ") + messageStyle.Sprint(msg) + "\n")
	if m != nil {
		result.WriteString(lineStyle.Sprint("  | ") + removedStyle.Sprintf("- %s", orNone(m.Left)) + blockSuffix(m.LeftBlock) + "\n")
		result.WriteString(lineStyle.Sprint("  | ") + addedStyle.Sprintf("+ %s", orNone(m.Right)) + blockSuffix(m.RightBlock) + "\n")
	}
	result.WriteString("\n")
	return result.String()
}

func sliced(e Entry) string {
	if e.Sliced {
		return " (sliced)"
	}
	return ""
}

func blockSuffix(name string) string {
	if name == "" {
		return ""
	}
	return "  in %" + name
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
