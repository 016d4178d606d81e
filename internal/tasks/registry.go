package tasks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOperationExists = errors.New("tasks: operation already exists")
	ErrOperationNil    = errors.New("tasks: operation is nil")
	ErrInvalidSpec     = errors.New("tasks: invalid operation spec")
)

// Registry stores operations by name, remembering registration order.
type Registry struct {
	items map[string]Operation
	order []string
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Operation)}
}

// ValidateSpec checks required spec fields and name format.
func ValidateSpec(spec OperationSpec) error {
	name := strings.TrimSpace(spec.Name)
	desc := strings.TrimSpace(spec.Description)
	if name == "" || desc == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalidSpec)
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: invalid name format %q", ErrInvalidSpec, name)
	}
	return nil
}

// Register adds an operation to the registry.
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return ErrOperationNil
	}

	spec := op.Spec()
	if err := ValidateSpec(spec); err != nil {
		return err
	}

	if _, ok := r.items[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrOperationExists, spec.Name)
	}
	r.items[spec.Name] = op
	r.order = append(r.order, spec.Name)
	return nil
}

// Resolve returns an operation by name.
func (r *Registry) Resolve(name string) (Operation, bool) {
	op, ok := r.items[name]
	return op, ok
}

// ListSpecs returns specs in registration order.
func (r *Registry) ListSpecs() []OperationSpec {
	list := make([]OperationSpec, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.items[name].Spec())
	}
	return list
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(name)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
