package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6371000

// MatchesJSON reports whether a raw event payload satisfies the tree.
// Evaluation is local and approximate: the backend's engine remains the
// authority, this exists for previewing filters against sample events.
func MatchesJSON(t *Tree, payload json.RawMessage) (bool, error) {
	var values map[string]interface{}
	if err := json.Unmarshal(payload, &values); err != nil {
		return false, fmt.Errorf("payload is not a JSON object: %w", err)
	}
	return Matches(t, values), nil
}

// Matches reports whether the decoded payload satisfies the tree. A
// pass-through tree matches everything.
func Matches(t *Tree, values map[string]interface{}) bool {
	if t == nil {
		return true
	}
	return evaluateContainer(t.Root(), values)
}

func evaluateContainer(c *Container, values map[string]interface{}) bool {
	if c == nil || len(c.Children) == 0 {
		return true // no conditions means automatic match
	}

	switch c.Type {
	case ContainerAnd:
		for _, child := range c.Children {
			if !evaluateNode(child, values) {
				return false
			}
		}
		return true
	case ContainerOr:
		for _, child := range c.Children {
			if evaluateNode(child, values) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evaluateNode(n Node, values map[string]interface{}) bool {
	switch node := n.(type) {
	case *Container:
		return evaluateContainer(node, values)
	case *Expression:
		return evaluateExpression(node, values)
	default:
		return false
	}
}

func evaluateExpression(e *Expression, values map[string]interface{}) bool {
	value, exists := values[e.Field]
	if !exists {
		return false
	}

	switch e.Operator {
	case OperatorEquals:
		return compareValues(value, e.Value) == 0
	case OperatorGreaterThan:
		return compareValues(value, e.Value) > 0
	case OperatorLessThan:
		return compareValues(value, e.Value) < 0
	case OperatorGreaterThanOrEqual:
		return compareValues(value, e.Value) >= 0
	case OperatorLessThanOrEqual:
		return compareValues(value, e.Value) <= 0
	case OperatorNear:
		return withinDistance(value, e)
	default:
		return false
	}
}

// withinDistance checks a [longitude, latitude] payload value against
// the expression's center point using the haversine distance
func withinDistance(value interface{}, e *Expression) bool {
	point, ok := value.([]interface{})
	if !ok || len(point) != 2 {
		return false
	}
	lng, okLng := toFloat64(point[0])
	lat, okLat := toFloat64(point[1])
	if !okLng || !okLat {
		return false
	}

	return haversine(e.Latitude, e.Longitude, lat, lng) <= e.MaxDistance
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// compareValues compares two values of potentially different types
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if va, ok := toFloat64(a); ok {
		if vb, ok := toFloat64(b); ok {
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			default:
				return 0
			}
		}
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			if va == vb {
				return 0
			}
			if va {
				return 1
			}
			return -1
		}
	}

	// Incompatible types, fall back to string representations
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
