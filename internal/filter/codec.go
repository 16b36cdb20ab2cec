package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Backend query-filter keys
const (
	keyAnd         = "_and"
	keyOr          = "_or"
	keyNear        = "_near"
	keyGeometry    = "_geometry"
	keyMaxDistance = "_maxDistance"
)

// Marshal serializes a tree to the backend query-filter shape.
//
// A pass-through tree serializes as {}. An EQ comparison serializes as
// {field: value}, other scalar operators as {field: {_gt: value}} and so
// on, and near queries as a GeoJSON point under _near. Containers with
// multiple effective children serialize as {_and: [...]} or {_or: [...]};
// an AND container with a single effective child collapses to that
// child's object. Containers holding no expressions are skipped.
func Marshal(t *Tree) ([]byte, error) {
	obj, err := containerObject(t.root)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]interface{}{}
	}
	return json.Marshal(obj)
}

func containerObject(c *Container) (map[string]interface{}, error) {
	objs := make([]interface{}, 0, len(c.Children))
	for _, child := range c.Children {
		switch n := child.(type) {
		case *Expression:
			obj, err := expressionObject(n)
			if err != nil {
				return nil, err
			}
			objs = append(objs, obj)
		case *Container:
			if !hasExpressions(n) {
				continue
			}
			obj, err := containerObject(n)
			if err != nil {
				return nil, err
			}
			objs = append(objs, obj)
		}
	}

	switch {
	case len(objs) == 0:
		return nil, nil
	case c.Type == ContainerAnd && len(objs) == 1:
		return objs[0].(map[string]interface{}), nil
	case c.Type == ContainerAnd:
		return map[string]interface{}{keyAnd: objs}, nil
	default:
		return map[string]interface{}{keyOr: objs}, nil
	}
}

func expressionObject(e *Expression) (map[string]interface{}, error) {
	if err := validateExpression(e); err != nil {
		return nil, err
	}

	switch e.Operator {
	case OperatorEquals:
		return map[string]interface{}{e.Field: e.Value}, nil
	case OperatorNear:
		return map[string]interface{}{
			e.Field: map[string]interface{}{
				keyNear: map[string]interface{}{
					keyGeometry: map[string]interface{}{
						"type":        "Point",
						"coordinates": []float64{e.Longitude, e.Latitude},
					},
					keyMaxDistance: e.MaxDistance,
				},
			},
		}, nil
	default:
		return map[string]interface{}{
			e.Field: map[string]interface{}{"_" + string(e.Operator): e.Value},
		}, nil
	}
}

// Unmarshal parses a backend query-filter document into a tree. The root
// of the result is always an AND container; {} yields a pass-through
// tree. Member order in the document is preserved as child order.
func Unmarshal(data []byte) (*Tree, error) {
	doc, err := parseOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter document: %w", err)
	}

	obj, ok := doc.(object)
	if !ok {
		return nil, fmt.Errorf("filter document must be a JSON object")
	}

	tree := NewTree()
	if len(obj) == 0 {
		return tree, nil
	}

	if len(obj) == 1 && obj[0].key == keyAnd {
		children, err := decodeList(obj[0].value)
		if err != nil {
			return nil, err
		}
		tree.root.Children = children
		return tree, nil
	}

	node, err := decodeObject(obj)
	if err != nil {
		return nil, err
	}
	if container, ok := node.(*Container); ok && container.Type == ContainerAnd {
		tree.root.Children = container.Children
	} else {
		tree.root.Children = []Node{node}
	}
	return tree, nil
}

// decodeObject turns one document object into a node: a container for
// _and/_or keys, the bare expression for a single-field object, and an
// AND group for a multi-field object
func decodeObject(obj object) (Node, error) {
	if len(obj) == 1 {
		switch obj[0].key {
		case keyAnd:
			children, err := decodeList(obj[0].value)
			if err != nil {
				return nil, err
			}
			return &Container{Type: ContainerAnd, Children: children}, nil
		case keyOr:
			children, err := decodeList(obj[0].value)
			if err != nil {
				return nil, err
			}
			return &Container{Type: ContainerOr, Children: children}, nil
		}
		return decodeExpression(obj[0].key, obj[0].value)
	}

	if len(obj) == 0 {
		return nil, fmt.Errorf("empty object is only valid at the document root")
	}

	children := make([]Node, 0, len(obj))
	for _, m := range obj {
		expr, err := decodeExpression(m.key, m.value)
		if err != nil {
			return nil, err
		}
		children = append(children, expr)
	}
	return &Container{Type: ContainerAnd, Children: children}, nil
}

func decodeList(v interface{}) ([]Node, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s/%s value must be an array", keyAnd, keyOr)
	}
	children := make([]Node, 0, len(items))
	for _, item := range items {
		obj, ok := item.(object)
		if !ok {
			return nil, fmt.Errorf("%s/%s items must be objects", keyAnd, keyOr)
		}
		node, err := decodeObject(obj)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
	return children, nil
}

func decodeExpression(field string, v interface{}) (*Expression, error) {
	switch val := v.(type) {
	case object:
		if len(val) != 1 {
			return nil, fmt.Errorf("field %q: operator object must have exactly one key", field)
		}
		op := val[0].key
		if op == keyNear {
			return decodeNear(field, val[0].value)
		}
		switch op {
		case "_eq", "_gt", "_lt", "_gte", "_lte":
			value, err := scalarValue(field, val[0].value)
			if err != nil {
				return nil, err
			}
			return &Expression{Field: field, Operator: Operator(op[1:]), Value: value}, nil
		}
		return nil, fmt.Errorf("field %q: unknown operator %q", field, op)
	default:
		value, err := scalarValue(field, v)
		if err != nil {
			return nil, err
		}
		return &Expression{Field: field, Operator: OperatorEquals, Value: value}, nil
	}
}

func decodeNear(field string, v interface{}) (*Expression, error) {
	obj, ok := v.(object)
	if !ok {
		return nil, fmt.Errorf("field %q: %s value must be an object", field, keyNear)
	}

	expr := &Expression{Field: field, Operator: OperatorNear}
	var haveGeometry, haveDistance bool

	for _, m := range obj {
		switch m.key {
		case keyGeometry:
			geo, ok := m.value.(object)
			if !ok {
				return nil, fmt.Errorf("field %q: %s must be an object", field, keyGeometry)
			}
			if err := decodeGeometry(field, geo, expr); err != nil {
				return nil, err
			}
			haveGeometry = true
		case keyMaxDistance:
			d, err := numberValue(m.value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %s must be a number", field, keyMaxDistance)
			}
			expr.MaxDistance = d
			haveDistance = true
		}
	}

	if !haveGeometry || !haveDistance {
		return nil, fmt.Errorf("field %q: near query requires %s and %s", field, keyGeometry, keyMaxDistance)
	}
	return expr, nil
}

func decodeGeometry(field string, geo object, expr *Expression) error {
	var coords []interface{}
	for _, m := range geo {
		switch m.key {
		case "type":
			if s, ok := m.value.(string); !ok || s != "Point" {
				return fmt.Errorf("field %q: geometry type must be Point", field)
			}
		case "coordinates":
			c, ok := m.value.([]interface{})
			if !ok {
				return fmt.Errorf("field %q: coordinates must be an array", field)
			}
			coords = c
		}
	}
	if len(coords) != 2 {
		return fmt.Errorf("field %q: coordinates must hold [longitude, latitude]", field)
	}

	lng, err := numberValue(coords[0])
	if err != nil {
		return fmt.Errorf("field %q: longitude must be a number", field)
	}
	lat, err := numberValue(coords[1])
	if err != nil {
		return fmt.Errorf("field %q: latitude must be a number", field)
	}
	expr.Longitude = lng
	expr.Latitude = lat
	return nil
}

func scalarValue(field string, v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid number %q", field, val.String())
		}
		return f, nil
	case string:
		return val, nil
	default:
		return nil, fmt.Errorf("field %q: comparison value must be a number or string", field)
	}
}

func numberValue(v interface{}) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number")
	}
	return n.Float64()
}

// member is one key/value pair of an ordered JSON object
type member struct {
	key   string
	value interface{}
}

// object is a JSON object with member order preserved
type object []member

// parseOrdered parses JSON preserving object member order, which
// encoding/json's map decoding discards. Numbers stay json.Number.
func parseOrdered(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing content after document")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, member{key: key, value: val})
			}
			// consume '}'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []interface{}{}
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			// consume ']'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}
