package graph

import "fmt"

// ValidationError reports a static-misuse problem caught at
// graph-construction time: rank above the ceiling, a dtype mismatch
// between operands, or an axis out of bounds. It is never a panic since
// it is caller-triggerable.
type ValidationError struct {
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph: invalid %s insert: %s", e.Kind, e.Reason)
}
