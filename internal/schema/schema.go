// Package schema validates decoded input trees against a minimal
// declarative shape before normalization. The core treats a non-empty error
// list as "reject this input side"; it never inspects individual errors
// beyond counting and logging the first few.
package schema

import (
	"fmt"
)

// Kind names the expected JSON shape of a node.
type Kind string

// Shape kinds.
const (
	Object  Kind = "object"
	Array   Kind = "array"
	String  Kind = "string"
	Integer Kind = "integer"
	Number  Kind = "number"
	Any     Kind = "any"
)

// Shape is a declarative description of the expected input tree.
type Shape struct {
	Kind Kind

	// Required lists required fields of an object shape.
	Required map[string]*Shape

	// Items describes every element of an array shape.
	Items *Shape
}

// Validator checks a decoded tree and reports everything wrong with it.
type Validator interface {
	Validate(tree any) []error
}

// ShapeValidator validates against a Shape.
type ShapeValidator struct {
	shape *Shape
}

// New creates a validator for the given shape.
func New(shape *Shape) *ShapeValidator {
	return &ShapeValidator{shape: shape}
}

// Validate implements Validator.
func (v *ShapeValidator) Validate(tree any) []error {
	if v.shape == nil {
		return nil
	}
	var errs []error
	walk(tree, v.shape, "$", &errs)
	return errs
}

// walk recursively checks one node against its shape, accumulating every
// problem rather than stopping at the first.
func walk(node any, shape *Shape, path string, errs *[]error) {
	switch shape.Kind {
	case Object:
		m, ok := node.(map[string]any)
		if !ok {
			*errs = append(*errs, fmt.Errorf("%s: expected object", path))
			return
		}
		for field, fieldShape := range shape.Required {
			child, present := m[field]
			if !present {
				*errs = append(*errs, fmt.Errorf("%s: missing required field %q", path, field))
				continue
			}
			walk(child, fieldShape, path+"."+field, errs)
		}

	case Array:
		list, ok := node.([]any)
		if !ok {
			*errs = append(*errs, fmt.Errorf("%s: expected array", path))
			return
		}
		if shape.Items == nil {
			return
		}
		for i, item := range list {
			walk(item, shape.Items, fmt.Sprintf("%s[%d]", path, i), errs)
		}

	case String:
		if _, ok := node.(string); !ok {
			*errs = append(*errs, fmt.Errorf("%s: expected string", path))
		}

	case Integer:
		switch n := node.(type) {
		case float64:
			if n != float64(int64(n)) {
				*errs = append(*errs, fmt.Errorf("%s: expected integer", path))
			}
		case int, int64:
		default:
			*errs = append(*errs, fmt.Errorf("%s: expected integer", path))
		}

	case Number:
		switch node.(type) {
		case float64, int, int64:
		default:
			*errs = append(*errs, fmt.Errorf("%s: expected number", path))
		}

	case Any:
	}
}
