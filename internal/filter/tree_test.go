package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTreeIsPassThrough(t *testing.T) {
	tree := NewTree()
	assert.True(t, tree.IsPassThrough())
	assert.Equal(t, 0, tree.CountExpressions())
}

func TestAddExpression(t *testing.T) {
	tree := NewTree()

	err := tree.AddExpression(nil, Expression{Field: "temperature", Operator: OperatorGreaterThan, Value: 20.0})
	require.NoError(t, err)

	assert.False(t, tree.IsPassThrough())
	assert.Equal(t, 1, tree.CountExpressions())

	node, err := tree.NodeAt(Path{0})
	require.NoError(t, err)
	expr, ok := node.(*Expression)
	require.True(t, ok)
	assert.Equal(t, "temperature", expr.Field)
	assert.Equal(t, OperatorGreaterThan, expr.Operator)
}

func TestAddExpressionValidation(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
	}{
		{
			name: "missing field",
			expr: Expression{Operator: OperatorEquals, Value: 1.0},
		},
		{
			name: "unknown operator",
			expr: Expression{Field: "a", Operator: Operator("between"), Value: 1.0},
		},
		{
			name: "missing value",
			expr: Expression{Field: "a", Operator: OperatorEquals},
		},
		{
			name: "near with zero distance",
			expr: Expression{Field: "loc", Operator: OperatorNear, Longitude: 10, Latitude: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree()
			err := tree.AddExpression(nil, tt.expr)
			assert.Error(t, err)
			assert.True(t, tree.IsPassThrough())
		})
	}
}

func TestAddContainer(t *testing.T) {
	tree := NewTree()

	require.NoError(t, tree.AddContainer(nil, ContainerOr))
	require.NoError(t, tree.AddExpression(Path{0}, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))

	node, err := tree.NodeAt(Path{0})
	require.NoError(t, err)
	container, ok := node.(*Container)
	require.True(t, ok)
	assert.Equal(t, ContainerOr, container.Type)
	assert.Len(t, container.Children, 1)
}

func TestAddContainerInvalidType(t *testing.T) {
	tree := NewTree()
	assert.Error(t, tree.AddContainer(nil, ContainerType("xor")))
}

func TestEmptyContainerIsStillPassThrough(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddContainer(nil, ContainerAnd))
	require.NoError(t, tree.AddContainer(Path{0}, ContainerOr))

	assert.True(t, tree.IsPassThrough())
}

func TestPathErrors(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))

	tests := []struct {
		name string
		fn   func() error
	}{
		{
			name: "add under expression",
			fn: func() error {
				return tree.AddExpression(Path{0}, Expression{Field: "b", Operator: OperatorEquals, Value: 2.0})
			},
		},
		{
			name: "add out of range",
			fn:   func() error { return tree.AddContainer(Path{5}, ContainerOr) },
		},
		{
			name: "remove out of range",
			fn:   func() error { return tree.Remove(Path{3}) },
		},
		{
			name: "remove root",
			fn:   func() error { return tree.Remove(nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}

	// Tree untouched by the failed operations
	assert.Equal(t, 1, tree.CountExpressions())
}

func TestRemoveKeepsSiblings(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "b", Operator: OperatorEquals, Value: 2.0}))

	require.NoError(t, tree.Remove(Path{0}))

	require.Equal(t, 1, tree.CountExpressions())
	node, err := tree.NodeAt(Path{0})
	require.NoError(t, err)
	assert.Equal(t, "b", node.(*Expression).Field)
}

func TestRemoveCascadeCollapse(t *testing.T) {
	// OR container nested under the root holding an AND container whose
	// sole child is the expression being removed
	tree := NewTree()
	require.NoError(t, tree.AddContainer(nil, ContainerOr))
	require.NoError(t, tree.AddContainer(Path{0}, ContainerAnd))
	require.NoError(t, tree.AddExpression(Path{0, 0}, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))

	require.NoError(t, tree.Remove(Path{0, 0, 0}))

	assert.True(t, tree.IsPassThrough())
	assert.Empty(t, tree.Root().Children, "emptied containers must collapse away")
}

func TestRemoveCascadeStopsAtNonEmptyAncestor(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "keep", Operator: OperatorEquals, Value: 1.0}))
	require.NoError(t, tree.AddContainer(nil, ContainerOr))
	require.NoError(t, tree.AddExpression(Path{1}, Expression{Field: "gone", Operator: OperatorEquals, Value: 2.0}))

	require.NoError(t, tree.Remove(Path{1, 0}))

	require.Len(t, tree.Root().Children, 1)
	assert.Equal(t, "keep", tree.Root().Children[0].(*Expression).Field)
}

func TestRemoveFieldCascade(t *testing.T) {
	// Payload [A:number, B:string], filter referencing both
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "A", Operator: OperatorGreaterThan, Value: 10.0}))
	require.NoError(t, tree.AddContainer(nil, ContainerOr))
	require.NoError(t, tree.AddExpression(Path{1}, Expression{Field: "A", Operator: OperatorLessThan, Value: 100.0}))
	require.NoError(t, tree.AddExpression(Path{1}, Expression{Field: "B", Operator: OperatorEquals, Value: "x"}))

	tree.RemoveField("A")

	require.Equal(t, 1, tree.CountExpressions())
	remaining := []string{}
	tree.Walk(func(path Path, n Node) {
		if expr, ok := n.(*Expression); ok {
			remaining = append(remaining, expr.Field)
		}
	})
	assert.Equal(t, []string{"B"}, remaining)

	tree.RemoveField("B")
	assert.True(t, tree.IsPassThrough())
}

func TestRemoveFieldAbsentIsNoOp(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))

	tree.RemoveField("missing")
	assert.Equal(t, 1, tree.CountExpressions())
}

func TestWalkOrder(t *testing.T) {
	tree := NewTree()
	require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))
	require.NoError(t, tree.AddContainer(nil, ContainerOr))
	require.NoError(t, tree.AddExpression(Path{1}, Expression{Field: "b", Operator: OperatorEquals, Value: 2.0}))

	var paths []string
	tree.Walk(func(path Path, n Node) {
		paths = append(paths, pathString(path))
	})
	assert.Equal(t, []string{"", "0", "1", "1.0"}, paths)
}

func pathString(p Path) string {
	s := ""
	for i, idx := range p {
		if i > 0 {
			s += "."
		}
		s += string(rune('0' + idx))
	}
	return s
}
