package filter

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalPassThrough(t *testing.T) {
	data, err := Marshal(NewTree())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name  string
		build func(tree *Tree)
		want  string
	}{
		{
			name: "single EQ collapses to bare field",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "temperature", Operator: OperatorEquals, Value: 25.0}))
			},
			want: `{"temperature":25}`,
		},
		{
			name: "non-EQ operator uses opcode object",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "temp", Operator: OperatorGreaterThan, Value: 20.0}))
			},
			want: `{"temp":{"_gt":20}}`,
		},
		{
			name: "string value",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "status", Operator: OperatorEquals, Value: "open"}))
			},
			want: `{"status":"open"}`,
		},
		{
			name: "multiple expressions become _and",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorGreaterThanOrEqual, Value: 1.0}))
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "b", Operator: OperatorLessThanOrEqual, Value: 2.0}))
			},
			want: `{"_and":[{"a":{"_gte":1}},{"b":{"_lte":2}}]}`,
		},
		{
			name: "or container",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddContainer(nil, ContainerOr))
				require.NoError(t, tree.AddExpression(Path{0}, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))
				require.NoError(t, tree.AddExpression(Path{0}, Expression{Field: "b", Operator: OperatorEquals, Value: 2.0}))
			},
			want: `{"_or":[{"a":1},{"b":2}]}`,
		},
		{
			name: "near query",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{
					Field:       "position",
					Operator:    OperatorNear,
					Longitude:   10,
					Latitude:    20,
					MaxDistance: 500,
				}))
			},
			want: `{"position":{"_near":{"_geometry":{"type":"Point","coordinates":[10,20]},"_maxDistance":500}}}`,
		},
		{
			name: "empty containers are skipped",
			build: func(tree *Tree) {
				require.NoError(t, tree.AddExpression(nil, Expression{Field: "a", Operator: OperatorEquals, Value: 1.0}))
				require.NoError(t, tree.AddContainer(nil, ContainerOr))
			},
			want: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree()
			tt.build(tree)
			data, err := Marshal(tree)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestUnmarshal(t *testing.T) {
	tree, err := Unmarshal([]byte(`{"_or":[{"temp":{"_gt":20}},{"_and":[{"a":1},{"b":"x"}]}]}`))
	require.NoError(t, err)

	root := tree.Root()
	require.Len(t, root.Children, 1)

	or, ok := root.Children[0].(*Container)
	require.True(t, ok)
	assert.Equal(t, ContainerOr, or.Type)
	require.Len(t, or.Children, 2)

	expr, ok := or.Children[0].(*Expression)
	require.True(t, ok)
	assert.Equal(t, "temp", expr.Field)
	assert.Equal(t, OperatorGreaterThan, expr.Operator)
	assert.Equal(t, 20.0, expr.Value)

	and, ok := or.Children[1].(*Container)
	require.True(t, ok)
	assert.Equal(t, ContainerAnd, and.Type)
	require.Len(t, and.Children, 2)
	assert.Equal(t, "a", and.Children[0].(*Expression).Field)
	assert.Equal(t, "b", and.Children[1].(*Expression).Field)
}

func TestUnmarshalBareMultiFieldObject(t *testing.T) {
	// Hand-written documents can put several fields in one object; they
	// decode as an AND of EQ comparisons with member order preserved
	tree, err := Unmarshal([]byte(`{"b":2,"a":1}`))
	require.NoError(t, err)

	root := tree.Root()
	require.Len(t, root.Children, 2)
	assert.Equal(t, "b", root.Children[0].(*Expression).Field)
	assert.Equal(t, "a", root.Children[1].(*Expression).Field)
}

func TestUnmarshalExplicitEq(t *testing.T) {
	tree, err := Unmarshal([]byte(`{"a":{"_eq":5}}`))
	require.NoError(t, err)

	require.Len(t, tree.Root().Children, 1)
	expr := tree.Root().Children[0].(*Expression)
	assert.Equal(t, OperatorEquals, expr.Operator)
	assert.Equal(t, 5.0, expr.Value)
}

func TestUnmarshalPassThrough(t *testing.T) {
	tree, err := Unmarshal([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, tree.IsPassThrough())
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `[1,2]`},
		{"malformed json", `{"a":`},
		{"unknown operator", `{"a":{"_between":[1,2]}}`},
		{"boolean value", `{"a":true}`},
		{"and not an array", `{"_and":{"a":1}}`},
		{"near missing distance", `{"p":{"_near":{"_geometry":{"type":"Point","coordinates":[1,2]}}}}`},
		{"near wrong geometry type", `{"p":{"_near":{"_geometry":{"type":"Polygon","coordinates":[1,2]},"_maxDistance":10}}}`},
		{"near wrong coordinate arity", `{"p":{"_near":{"_geometry":{"type":"Point","coordinates":[1,2,3]},"_maxDistance":10}}}`},
		{"trailing content", `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

// Round trip: Marshal then Unmarshal reproduces canonical trees exactly,
// child order included. Canonical means every nested AND container has at
// least two children, since single-child AND groups collapse into their
// parent object on the wire.
func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("marshal/unmarshal round trip preserves canonical trees", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			tree := &Tree{root: randomCanonicalContainer(rng, ContainerAnd, 0, true)}

			data, err := Marshal(tree)
			if err != nil {
				t.Errorf("Marshal() error = %v", err)
				return false
			}
			decoded, err := Unmarshal(data)
			if err != nil {
				t.Errorf("Unmarshal(%s) error = %v", data, err)
				return false
			}
			if !reflect.DeepEqual(tree.root, decoded.root) {
				t.Errorf("round trip mismatch for %s", data)
				return false
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

var propertyFields = []string{"temperature", "humidity", "status", "zone"}

func randomExpression(rng *rand.Rand) *Expression {
	ops := []Operator{OperatorEquals, OperatorGreaterThan, OperatorLessThan, OperatorGreaterThanOrEqual, OperatorLessThanOrEqual}
	field := propertyFields[rng.Intn(len(propertyFields))]

	if rng.Intn(6) == 0 {
		return &Expression{
			Field:       "position",
			Operator:    OperatorNear,
			Longitude:   float64(rng.Intn(360) - 180),
			Latitude:    float64(rng.Intn(180) - 90),
			MaxDistance: float64(rng.Intn(10000) + 1),
		}
	}

	expr := &Expression{Field: field, Operator: ops[rng.Intn(len(ops))]}
	if rng.Intn(2) == 0 {
		expr.Value = float64(rng.Intn(1000))
	} else {
		expr.Value = "value-" + string(rune('a'+rng.Intn(26)))
	}
	return expr
}

func randomCanonicalContainer(rng *rand.Rand, ct ContainerType, depth int, isRoot bool) *Container {
	minChildren := 1
	if !isRoot && ct == ContainerAnd {
		// Nested single-child AND groups collapse on the wire
		minChildren = 2
	}
	n := minChildren + rng.Intn(3)

	children := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		if depth < 2 && rng.Intn(3) == 0 {
			var sub ContainerType
			if rng.Intn(2) == 0 {
				sub = ContainerOr
			} else {
				sub = ContainerAnd
			}
			children = append(children, randomCanonicalContainer(rng, sub, depth+1, false))
		} else {
			children = append(children, randomExpression(rng))
		}
	}

	// A root whose only child is an AND container is not canonical either:
	// the child would collapse into the root on the wire
	if isRoot && n == 1 {
		if sub, ok := children[0].(*Container); ok && sub.Type == ContainerAnd {
			children = append(children, randomExpression(rng))
		}
	}

	return &Container{Type: ct, Children: children}
}
