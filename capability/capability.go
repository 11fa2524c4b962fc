// Package capability implements the named-capability subsystem that lets
// callers invoke structured units of work (file reads, searches, completions,
// computations) addressed by unique name, with schema validated parameters
// and consistent error handling.
package capability

import (
	"context"
	"fmt"
)

// Capability is the interface every dispatchable unit of work implements.
//
// Capabilities are constructed once at process start, registered into a
// Registry and treated as immutable afterwards. Implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Declare a complete parameter schema
//   - Be thread-safe; Execute may be called concurrently
//   - Bound their own external calls (timeouts) rather than hang
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description returns a human-readable summary used for discovery and
	// documentation. It plays no role in execution.
	Description() string

	// Schema returns the declared parameter schema. The dispatcher validates
	// and defaults arguments against it before Execute is invoked.
	Schema() Schema

	// Execute runs the capability with validated, defaulted arguments.
	// Implementations may assume args already passed Schema().Validate.
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// NotFoundError is returned by Registry.Get for unregistered names.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("capability not found: %s", e.Name)
}

// DuplicateNameError is returned by Registry.Register when the name is taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("capability already registered: %s", e.Name)
}

// ExecutionError wraps a failure raised by a capability body, typically an
// unreachable external collaborator or malformed collaborator data.
type ExecutionError struct {
	Capability string `json:"capability"`
	Message    string `json:"message"`
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error in %s: %s", e.Capability, e.Message)
}

// NewExecutionError creates an ExecutionError for the named capability.
func NewExecutionError(capability, message string) *ExecutionError {
	return &ExecutionError{Capability: capability, Message: message}
}
