package filter

import (
	"fmt"
)

// ContainerType is the logical connective of a container node
type ContainerType string

const (
	ContainerAnd ContainerType = "and"
	ContainerOr  ContainerType = "or"
)

// Comparison operators for expression nodes
type Operator string

const (
	OperatorEquals             Operator = "eq"
	OperatorGreaterThan        Operator = "gt"
	OperatorLessThan           Operator = "lt"
	OperatorGreaterThanOrEqual Operator = "gte"
	OperatorLessThanOrEqual    Operator = "lte"
	OperatorNear               Operator = "near"
)

// ValidOperators contains all valid comparison operators
var ValidOperators = map[Operator]bool{
	OperatorEquals:             true,
	OperatorGreaterThan:        true,
	OperatorLessThan:           true,
	OperatorGreaterThanOrEqual: true,
	OperatorLessThanOrEqual:    true,
	OperatorNear:               true,
}

// Node is either an *Expression leaf or a *Container group
type Node interface {
	node()
}

// Expression is a single comparison against one payload field.
// Scalar operators use Value; OperatorNear uses the geo components instead.
type Expression struct {
	Field       string
	Operator    Operator
	Value       interface{}
	Longitude   float64
	Latitude    float64
	MaxDistance float64 // meters
}

func (*Expression) node() {}

// Container groups child nodes under a logical connective
type Container struct {
	Type     ContainerType
	Children []Node
}

func (*Container) node() {}

// Path addresses a node as the sequence of child indices from the root
type Path []int

// ValidationError represents a filter validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateExpression(expr *Expression) error {
	if expr.Field == "" {
		return &ValidationError{
			Field:   "field",
			Message: "expression field cannot be empty",
		}
	}
	if !ValidOperators[expr.Operator] {
		return &ValidationError{
			Field:   "operator",
			Message: fmt.Sprintf("unknown operator %q", expr.Operator),
		}
	}
	if expr.Operator == OperatorNear {
		if expr.MaxDistance <= 0 {
			return &ValidationError{
				Field:   "maxDistance",
				Message: "near query distance must be greater than 0",
			}
		}
	} else if expr.Value == nil {
		return &ValidationError{
			Field:   "value",
			Message: "comparison value is required",
		}
	}
	return nil
}
