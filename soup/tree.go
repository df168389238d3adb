package soup

import (
	"strconv"
	"strings"
)

// Node is a serializable view of a statement, used to dump parse trees.
type Node struct {
	Kind     string   `json:"kind"               yaml:"kind"`
	Keyword  string   `json:"keyword,omitempty"  yaml:"keyword,omitempty"`
	Line     int      `json:"line"               yaml:"line"`
	Text     string   `json:"text"               yaml:"text"`
	Closed   *bool    `json:"closed,omitempty"   yaml:"closed,omitempty"`
	Segments []string `json:"segments,omitempty" yaml:"segments,omitempty"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree returns the statement tree of t.
func (t *Template) Tree() []*Node { return nodes(t.Stmts) }

func nodes(stmts []Stmt) []*Node {
	out := make([]*Node, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, node(st))
	}

	return out
}

func node(st Stmt) *Node {
	pi := st.Info()
	n := &Node{Line: pi.LineNo, Text: pi.Line}

	switch s := st.(type) {
	case *LineStmt:
		n.Kind, n.Keyword = "line", s.Keyword

	case *BlockStmt:
		n.Kind, n.Keyword, n.Closed = "block", s.Keyword, &s.Closed
		n.Children = nodes(s.Body)

	case *BlockOrLineStmt:
		n.Kind, n.Keyword = "block-or-line", s.Keyword
		if s.Block != nil {
			n.Closed = &s.Closed
			n.Children = nodes(s.Body)
		}

	case *MultiBlockStmt:
		n.Kind, n.Keyword, n.Closed = "multi-block", s.Keyword, &s.Closed

		for _, b := range s.Blocks {
			n.Children = append(n.Children, &Node{
				Kind:     "sub-block",
				Keyword:  b.Keyword,
				Line:     b.PInfo.LineNo,
				Text:     b.PInfo.Line,
				Children: nodes(b.Body),
			})
		}

	case *ContentStmt:
		n.Kind = "content"
		for _, seg := range s.Segments {
			n.Segments = append(n.Segments, seg.String())
		}

	case *UnidentifiedStmt:
		n.Kind = "unidentified"
	}

	return n
}

// Dump writes an indented outline of t, one statement per line.
func (t *Template) Dump() string {
	var sb strings.Builder

	var walk func(ns []*Node, depth int)
	walk = func(ns []*Node, depth int) {
		for _, n := range ns {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString(strconv.Itoa(n.Line))
			sb.WriteString(" ")
			sb.WriteString(n.Kind)

			if n.Keyword != "" {
				sb.WriteString(" " + n.Keyword)
			}

			if n.Closed != nil && !*n.Closed {
				sb.WriteString(" (unterminated)")
			}

			sb.WriteString(": ")
			sb.WriteString(n.Text)
			sb.WriteByte('\n')

			walk(n.Children, depth+1)
		}
	}

	walk(t.Tree(), 0)

	return sb.String()
}
