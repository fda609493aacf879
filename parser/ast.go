package parser

import (
	"strings"

	"github.com/sergev/scad/lang"
)

// NodeKind discriminates the node variants.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindComment
	KindVariable
	KindInclude
	KindUse
	KindModule
	KindFunction
	KindForLoop
	KindAction
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "RootNode"
	case KindComment:
		return "CommentNode"
	case KindVariable:
		return "VariableNode"
	case KindInclude:
		return "IncludeNode"
	case KindUse:
		return "UseNode"
	case KindModule:
		return "ModuleNode"
	case KindFunction:
		return "FunctionNode"
	case KindForLoop:
		return "ForLoopNode"
	case KindAction:
		return "ActionNode"
	default:
		return "UnknownNode"
	}
}

// NodeID is a handle into the arena of a Tree.
type NodeID int

// NoNode is the handle of a node that is not attached to a tree.
const NoNode NodeID = -1

// Node represents any statement node of the syntax tree.
type Node interface {
	Kind() NodeKind
	ID() NodeID
	Location() Location
	Children() []Node
	String() string
	attrs() []attr
	base() *nodeBase
}

type attr struct {
	name  string
	value string
}

type nodeBase struct {
	id       NodeID
	loc      Location
	children []Node
}

func newBase(loc Location) nodeBase {
	return nodeBase{id: NoNode, loc: loc}
}

func (b *nodeBase) ID() NodeID         { return b.id }
func (b *nodeBase) Location() Location { return b.loc }
func (b *nodeBase) base() *nodeBase    { return b }

// Children returns the ordered child statements.
func (b *nodeBase) Children() []Node {
	out := make([]Node, len(b.children))
	copy(out, b.children)
	return out
}

// RootNode holds the top-level statements of a file.
type RootNode struct {
	nodeBase
}

func (*RootNode) Kind() NodeKind    { return KindRoot }
func (*RootNode) attrs() []attr     { return nil }
func (n *RootNode) String() string { return Render(n) }

// CommentNode is a single-line or block comment.
type CommentNode struct {
	nodeBase
	Text      string
	Multiline bool
}

func (*CommentNode) Kind() NodeKind   { return KindComment }
func (n *CommentNode) String() string { return Render(n) }
func (n *CommentNode) attrs() []attr {
	return []attr{{"text", n.Text}, {"multiline", boolAttr(n.Multiline)}}
}

// VariableNode assigns a value or expression to a name.
type VariableNode struct {
	nodeBase
	Name  string
	Value lang.Value
}

func (*VariableNode) Kind() NodeKind   { return KindVariable }
func (n *VariableNode) String() string { return Render(n) }
func (n *VariableNode) attrs() []attr {
	return []attr{{"name", n.Name}, {"value", n.Value.String()}}
}

// IncludeNode is an include <file> statement.
type IncludeNode struct {
	nodeBase
	File string
}

func (*IncludeNode) Kind() NodeKind   { return KindInclude }
func (n *IncludeNode) String() string { return Render(n) }
func (n *IncludeNode) attrs() []attr  { return []attr{{"file", n.File}} }

// UseNode is a use <file> statement. It has the shape of IncludeNode.
type UseNode struct {
	IncludeNode
}

func (*UseNode) Kind() NodeKind   { return KindUse }
func (n *UseNode) String() string { return Render(n) }

// ModuleNode is a module definition whose children form its body.
type ModuleNode struct {
	nodeBase
	Name     string
	Params   []string
	Defaults map[string]lang.Value
}

func (*ModuleNode) Kind() NodeKind   { return KindModule }
func (n *ModuleNode) String() string { return Render(n) }
func (n *ModuleNode) attrs() []attr {
	return []attr{{"name", n.Name}, {"params", paramsAttr(n.Params, n.Defaults)}}
}

// FunctionNode is a function definition.
type FunctionNode struct {
	nodeBase
	Name       string
	Params     []string
	Defaults   map[string]lang.Value
	Expression lang.Value
}

func (*FunctionNode) Kind() NodeKind   { return KindFunction }
func (n *FunctionNode) String() string { return Render(n) }
func (n *FunctionNode) attrs() []attr {
	return []attr{
		{"name", n.Name},
		{"params", paramsAttr(n.Params, n.Defaults)},
		{"expression", n.Expression.String()},
	}
}

// Assignment binds a loop variable to a value.
type Assignment struct {
	Name  string
	Value lang.Value
}

func (a Assignment) String() string {
	return a.Name + " = " + a.Value.String()
}

// ForLoopNode is a for statement whose children form its body.
type ForLoopNode struct {
	nodeBase
	Params []Assignment
}

func (*ForLoopNode) Kind() NodeKind   { return KindForLoop }
func (n *ForLoopNode) String() string { return Render(n) }
func (n *ForLoopNode) attrs() []attr {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	return []attr{{"params", strings.Join(parts, ", ")}}
}

// ActionNode is a module instantiation such as cube(10); or
// translate([1, 0, 0]) { ... }.
type ActionNode struct {
	nodeBase
	Name     string
	Modifier string // one of "", "!", "#", "*", "%"
	Params   []lang.Value
	label    string
	hasLabel bool
}

func (*ActionNode) Kind() NodeKind   { return KindAction }
func (n *ActionNode) String() string { return Render(n) }

// SetLabel attaches the label written as "label: action(...)".
func (n *ActionNode) SetLabel(label string) {
	n.label = label
	n.hasLabel = true
}

// Label returns the label of the action, if any.
func (n *ActionNode) Label() (string, bool) {
	return n.label, n.hasLabel
}

func (n *ActionNode) attrs() []attr {
	out := []attr{{"name", n.Name}}
	if n.Modifier != "" {
		out = append(out, attr{"modifier", n.Modifier})
	}
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	out = append(out, attr{"params", strings.Join(parts, ", ")})
	if n.hasLabel {
		out = append(out, attr{"label", n.label})
	}
	return out
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func paramsAttr(params []string, defaults map[string]lang.Value) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if def, ok := defaults[p]; ok {
			parts[i] = p + " = " + def.String()
			continue
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}
