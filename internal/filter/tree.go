package filter

import (
	"fmt"
)

// Tree is a rule filter expression tree. The zero-expression tree is the
// pass-through filter, which matches every event. Mutations rebuild the
// spine from the root down to the touched node, so shared subtrees are
// never modified in place.
type Tree struct {
	root *Container
}

// NewTree creates an empty (pass-through) filter tree
func NewTree() *Tree {
	return &Tree{
		root: &Container{Type: ContainerAnd},
	}
}

// Root returns the root container. Callers must treat the returned
// structure as read-only; all mutation goes through the Tree methods.
func (t *Tree) Root() *Container {
	return t.root
}

// IsPassThrough reports whether the tree contains no expressions at all
func (t *Tree) IsPassThrough() bool {
	return !hasExpressions(t.root)
}

// CountExpressions returns the number of expression leaves in the tree
func (t *Tree) CountExpressions() int {
	return countExpressions(t.root)
}

// NodeAt resolves a path to the node it addresses
func (t *Tree) NodeAt(path Path) (Node, error) {
	var node Node = t.root
	for depth, idx := range path {
		container, ok := node.(*Container)
		if !ok {
			return nil, fmt.Errorf("path segment %d descends into an expression", depth)
		}
		if idx < 0 || idx >= len(container.Children) {
			return nil, fmt.Errorf("path segment %d out of range: %d", depth, idx)
		}
		node = container.Children[idx]
	}
	return node, nil
}

// AddExpression appends an expression leaf to the container at parent
func (t *Tree) AddExpression(parent Path, expr Expression) error {
	if err := validateExpression(&expr); err != nil {
		return err
	}
	root, err := appendChild(t.root, parent, &expr)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// AddContainer appends an empty container of the given type to the
// container at parent. The new container contributes nothing to the
// effective filter until it gains its first expression.
func (t *Tree) AddContainer(parent Path, ct ContainerType) error {
	if ct != ContainerAnd && ct != ContainerOr {
		return &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown container type %q", ct),
		}
	}
	root, err := appendChild(t.root, parent, &Container{Type: ct})
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// Remove deletes the node at path. Ancestor containers emptied by the
// removal are removed as well, cascading up to the root; an emptied root
// leaves the tree pass-through.
func (t *Tree) Remove(path Path) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot remove the root container")
	}
	root, err := removeAt(t.root, path)
	if err != nil {
		return err
	}
	if root == nil {
		root = &Container{Type: t.root.Type}
	}
	t.root = root
	return nil
}

// RemoveField deletes every expression referencing the named payload
// field anywhere in the tree, collapsing containers emptied by the prune
func (t *Tree) RemoveField(name string) {
	root := pruneField(t.root, name)
	if root == nil {
		root = &Container{Type: t.root.Type}
	}
	t.root = root
}

// Walk visits every node in depth-first document order, the root first
func (t *Tree) Walk(fn func(path Path, n Node)) {
	walk(t.root, nil, fn)
}

func walk(n Node, path Path, fn func(path Path, n Node)) {
	fn(append(Path(nil), path...), n)
	if container, ok := n.(*Container); ok {
		for i, child := range container.Children {
			walk(child, append(path, i), fn)
		}
	}
}

func hasExpressions(c *Container) bool {
	for _, child := range c.Children {
		switch n := child.(type) {
		case *Expression:
			return true
		case *Container:
			if hasExpressions(n) {
				return true
			}
		}
	}
	return false
}

func countExpressions(c *Container) int {
	count := 0
	for _, child := range c.Children {
		switch n := child.(type) {
		case *Expression:
			count++
		case *Container:
			count += countExpressions(n)
		}
	}
	return count
}

// appendChild returns a copy of c with child appended to the container at
// path, sharing all untouched subtrees with the original
func appendChild(c *Container, path Path, child Node) (*Container, error) {
	if len(path) == 0 {
		children := make([]Node, len(c.Children), len(c.Children)+1)
		copy(children, c.Children)
		return &Container{Type: c.Type, Children: append(children, child)}, nil
	}

	idx := path[0]
	if idx < 0 || idx >= len(c.Children) {
		return nil, fmt.Errorf("path index out of range: %d", idx)
	}
	sub, ok := c.Children[idx].(*Container)
	if !ok {
		return nil, fmt.Errorf("path index %d addresses an expression, not a container", idx)
	}

	newSub, err := appendChild(sub, path[1:], child)
	if err != nil {
		return nil, err
	}

	children := make([]Node, len(c.Children))
	copy(children, c.Children)
	children[idx] = newSub
	return &Container{Type: c.Type, Children: children}, nil
}

// removeAt returns a copy of c without the node at path. It returns nil
// when the removal empties c, which cascades the collapse to the caller.
func removeAt(c *Container, path Path) (*Container, error) {
	idx := path[0]
	if idx < 0 || idx >= len(c.Children) {
		return nil, fmt.Errorf("path index out of range: %d", idx)
	}

	var children []Node
	if len(path) == 1 {
		children = make([]Node, 0, len(c.Children)-1)
		children = append(children, c.Children[:idx]...)
		children = append(children, c.Children[idx+1:]...)
	} else {
		sub, ok := c.Children[idx].(*Container)
		if !ok {
			return nil, fmt.Errorf("path index %d addresses an expression, not a container", idx)
		}
		newSub, err := removeAt(sub, path[1:])
		if err != nil {
			return nil, err
		}
		if newSub == nil {
			// Collapsed subtree drops out of this container entirely
			children = make([]Node, 0, len(c.Children)-1)
			children = append(children, c.Children[:idx]...)
			children = append(children, c.Children[idx+1:]...)
		} else {
			children = make([]Node, len(c.Children))
			copy(children, c.Children)
			children[idx] = newSub
		}
	}

	if len(children) == 0 {
		return nil, nil
	}
	return &Container{Type: c.Type, Children: children}, nil
}

// pruneField returns a copy of c without any expression on the named
// field, or nil when nothing remains
func pruneField(c *Container, field string) *Container {
	children := make([]Node, 0, len(c.Children))
	for _, child := range c.Children {
		switch n := child.(type) {
		case *Expression:
			if n.Field != field {
				children = append(children, n)
			}
		case *Container:
			if pruned := pruneField(n, field); pruned != nil {
				children = append(children, pruned)
			}
		}
	}
	if len(children) == 0 {
		return nil
	}
	return &Container{Type: c.Type, Children: children}
}
