// Package trace builds the nested diagnostic description that accompanies
// every pipeline run. Stages return a Node rather than writing into a shared
// sink, so the trail for a run is assembled from stage return values.
package trace

import (
	"fmt"
	"io"
	"strings"
)

// Node is one labelled section of the trail.
type Node struct {
	Label    string   `json:"label"`
	Lines    []string `json:"lines,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Builder assembles a Node. The zero value is not usable; call New.
type Builder struct {
	node Node
}

// New starts a node with the given label.
func New(label string) *Builder {
	return &Builder{node: Node{Label: label}}
}

// Linef appends a formatted line.
func (b *Builder) Linef(format string, args ...any) *Builder {
	b.node.Lines = append(b.node.Lines, fmt.Sprintf(format, args...))
	return b
}

// Line appends a line verbatim.
func (b *Builder) Line(line string) *Builder {
	b.node.Lines = append(b.node.Lines, line)
	return b
}

// Child nests a finished node. Empty nodes are dropped.
func (b *Builder) Child(child Node) *Builder {
	if child.IsEmpty() {
		return b
	}
	b.node.Children = append(b.node.Children, child)
	return b
}

// Node returns a copy of the assembled node.
func (b *Builder) Node() Node {
	return b.node.clone()
}

// IsEmpty reports whether the node carries no label, lines or children.
func (n Node) IsEmpty() bool {
	return n.Label == "" && len(n.Lines) == 0 && len(n.Children) == 0
}

// Render writes the node as an indented outline.
func (n Node) Render(w io.Writer) error {
	return n.render(w, 0)
}

func (n Node) String() string {
	var sb strings.Builder
	_ = n.render(&sb, 0)
	return sb.String()
}

func (n Node) render(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	if n.Label != "" {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, n.Label); err != nil {
			return err
		}
	}
	for _, line := range n.Lines {
		if _, err := fmt.Fprintf(w, "%s  - %s\n", indent, line); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := child.render(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (n Node) clone() Node {
	out := Node{Label: n.Label}
	if len(n.Lines) > 0 {
		out.Lines = append([]string(nil), n.Lines...)
	}
	if len(n.Children) > 0 {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.clone()
		}
	}
	return out
}
