package parser

import (
	"html"
	"strings"
)

const indentUnit = "  "

// Render formats n and its children as nested tags, one node per line:
//
//	<ModuleNode name="m" params="">
//	  <ActionNode name="cube" params="1"></ActionNode>
//	</ModuleNode>
func Render(n Node) string {
	var sb strings.Builder
	render(&sb, n, 0)
	return sb.String()
}

func render(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	name := n.Kind().String()
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(name)
	for _, a := range n.attrs() {
		sb.WriteByte(' ')
		sb.WriteString(a.name)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	children := n.base().children
	if len(children) > 0 {
		sb.WriteByte('\n')
		for _, child := range children {
			render(sb, child, depth+1)
			sb.WriteByte('\n')
		}
		sb.WriteString(indent)
	}
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
}

// Exported is a plain copy of a node suitable for YAML or JSON encoding.
type Exported struct {
	Type     string            `json:"type" yaml:"type"`
	Line     int               `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int               `json:"column,omitempty" yaml:"column,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Children []Exported        `json:"children,omitempty" yaml:"children,omitempty"`
}

// Export converts n and its children.
func Export(n Node) Exported {
	loc := n.Location()
	out := Exported{
		Type:   n.Kind().String(),
		Line:   loc.Line,
		Column: loc.Column,
	}
	if attrs := n.attrs(); len(attrs) > 0 {
		out.Attrs = make(map[string]string, len(attrs))
		for _, a := range attrs {
			out.Attrs[a.name] = a.value
		}
	}
	for _, child := range n.base().children {
		out.Children = append(out.Children, Export(child))
	}
	return out
}
