package capability

import "context"

// Func is a generic adapter that exposes a plain Go function as a Capability.
//
// Responsibilities:
//   - Holds the explicit parameter schema declared at construction
//   - Delegates execution to the wrapped function with already validated args
//
// A Func has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type Func struct {
	name        string
	description string
	schema      Schema
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunc constructs a Func capability from an explicit schema and function.
//
// Example:
//
//	sum := capability.NewFunc(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  capability.Schema{
//	    {Name: "a", Type: capability.TypeNumber, Required: true},
//	    {Name: "b", Type: capability.TypeNumber, Required: true},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunc(
	name, description string,
	schema Schema,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *Func {
	return &Func{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

// Name returns the unique capability name used for routing.
func (f *Func) Name() string { return f.name }

// Description returns the short natural language description used for discovery.
func (f *Func) Description() string { return f.description }

// Schema returns the declared parameter schema.
func (f *Func) Schema() Schema { return f.schema }

// Execute invokes the wrapped function.
func (f *Func) Execute(ctx context.Context, args map[string]any) (any, error) {
	return f.fn(ctx, args)
}
