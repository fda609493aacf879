package parser

import (
	"fmt"

	"github.com/sergev/scad/lang"
)

// Tree owns every node of one parse result. Nodes are addressed by
// NodeID handles and parent links are handle lookups.
type Tree struct {
	Root   *RootNode
	nodes  []Node
	parent []NodeID
}

// NewTree attaches root and all nodes reachable from it to a new arena.
func NewTree(root *RootNode) (*Tree, error) {
	t := &Tree{Root: root}
	if err := t.index(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) index() error {
	t.nodes = t.nodes[:0]
	t.parent = t.parent[:0]
	seen := make(map[Node]bool)
	var attach func(n Node, parent NodeID) error
	attach = func(n Node, parent NodeID) error {
		if n == nil {
			return fmt.Errorf("nil child under node %d", parent)
		}
		if seen[n] {
			return fmt.Errorf("%s at %s attached twice", n.Kind(), n.Location())
		}
		seen[n] = true
		id := NodeID(len(t.nodes))
		n.base().id = id
		t.nodes = append(t.nodes, n)
		t.parent = append(t.parent, parent)
		for _, child := range n.base().children {
			if err := attach(child, id); err != nil {
				return err
			}
		}
		return nil
	}
	return attach(t.Root, NoNode)
}

// Len returns the number of nodes in the tree, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given handle, or nil.
func (t *Tree) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Parent returns the parent of n, or nil for the root and for nodes that
// do not belong to t.
func (t *Tree) Parent(n Node) Node {
	id := n.ID()
	if id < 0 || int(id) >= len(t.nodes) || t.nodes[id] != n {
		return nil
	}
	return t.Node(t.parent[id])
}

// SetChildren replaces the children of n and re-indexes the arena, so
// handles issued before the call are invalidated.
func (t *Tree) SetChildren(n Node, children []Node) error {
	if t.Parent(n) == nil && n != Node(t.Root) {
		return fmt.Errorf("%s does not belong to this tree", n.Kind())
	}
	old := n.base().children
	n.base().children = append([]Node(nil), children...)
	if err := t.index(); err != nil {
		n.base().children = old
		if rerr := t.index(); rerr != nil {
			return rerr
		}
		return err
	}
	return nil
}

// Walk visits nodes depth-first in source order. Returning false from fn
// skips the children of the visited node.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, child := range n.base().children {
			walk(child, depth+1)
		}
	}
	walk(t.Root, 0)
}

// Equal reports whether two trees have the same shape and node contents.
// Source locations take no part in the comparison.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return equalNodes(t.Root, other.Root)
}

func (t *Tree) String() string {
	return Render(t.Root)
}

func equalNodes(a, b Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if !equalPayload(a, b) {
		return false
	}
	ac, bc := a.base().children, b.base().children
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !equalNodes(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func equalPayload(a, b Node) bool {
	switch x := a.(type) {
	case *RootNode:
		return true
	case *CommentNode:
		y := b.(*CommentNode)
		return x.Text == y.Text && x.Multiline == y.Multiline
	case *VariableNode:
		y := b.(*VariableNode)
		return x.Name == y.Name && x.Value.IsEqual(y.Value)
	case *IncludeNode:
		return x.File == b.(*IncludeNode).File
	case *UseNode:
		return x.File == b.(*UseNode).File
	case *ModuleNode:
		y := b.(*ModuleNode)
		return x.Name == y.Name && equalParams(x.Params, x.Defaults, y.Params, y.Defaults)
	case *FunctionNode:
		y := b.(*FunctionNode)
		return x.Name == y.Name && equalParams(x.Params, x.Defaults, y.Params, y.Defaults) &&
			x.Expression.IsEqual(y.Expression)
	case *ForLoopNode:
		y := b.(*ForLoopNode)
		if len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Name != y.Params[i].Name || !x.Params[i].Value.IsEqual(y.Params[i].Value) {
				return false
			}
		}
		return true
	case *ActionNode:
		y := b.(*ActionNode)
		if x.Name != y.Name || x.Modifier != y.Modifier || len(x.Params) != len(y.Params) {
			return false
		}
		xl, xok := x.Label()
		yl, yok := y.Label()
		if xl != yl || xok != yok {
			return false
		}
		for i := range x.Params {
			if !x.Params[i].IsEqual(y.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func equalParams(ap []string, ad map[string]lang.Value, bp []string, bd map[string]lang.Value) bool {
	if len(ap) != len(bp) || len(ad) != len(bd) {
		return false
	}
	for i := range ap {
		if ap[i] != bp[i] {
			return false
		}
	}
	for name, av := range ad {
		bv, ok := bd[name]
		if !ok || !av.IsEqual(bv) {
			return false
		}
	}
	return true
}
