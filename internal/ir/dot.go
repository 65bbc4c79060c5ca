package ir

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteDot writes the control-flow graph of p in Graphviz DOT syntax. Each node
// lists the operations of its block.
func WriteDot(w io.Writer, p *Procedure) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", p.name)
	sb.WriteString("  node [shape=box fontname=\"monospace\"];\n")
	for _, b := range p.Blocks {
		lines := []string{b.name + ":"}
		for _, op := range b.Ops {
			lines = append(lines, op.Format())
		}
		label := strings.ReplaceAll(strings.Join(lines, "\\l"), "\"", "\\\"") + "\\l"
		fmt.Fprintf(&sb, "  %q [label=\"%s\"];\n", b.name, label)
	}
	for _, b := range p.Blocks {
		t := b.Terminator()
		if t == nil {
			continue
		}
		for i, s := range t.Targets {
			attr := ""
			if t.Op == OpCondBr {
				attr = fmt.Sprintf(" [label=%q]", []string{"T", "F"}[i])
			}
			fmt.Fprintf(&sb, "  %q -> %q%s;\n", b.name, s.name, attr)
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteDotFile renders p into a DOT file at path.
func WriteDotFile(p *Procedure, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dot file: %w", err)
	}
	defer f.Close()

	if err := WriteDot(f, p); err != nil {
		return fmt.Errorf("failed to write dot file: %w", err)
	}
	return nil
}
