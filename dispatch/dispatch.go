// Package dispatch implements the protocol core: the single synchronous entry
// point that resolves a capability by name, validates parameters against its
// declared schema, executes it and returns a uniform result envelope. Every
// outcome, success or failure, is a well-formed envelope; no fault from a
// capability body ever propagates to the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/logging"
)

// Error kinds carried in envelope errors.
const (
	// KindUnknownCapability: the requested name is not registered.
	KindUnknownCapability = "UNKNOWN_CAPABILITY"
	// KindInvalidParameters: the parameter map failed strict schema validation.
	KindInvalidParameters = "INVALID_PARAMETERS"
	// KindExecutionError: the capability body (or the collaborator it wraps) failed.
	KindExecutionError = "EXECUTION_ERROR"
)

// ErrInfo describes a dispatch failure.
type ErrInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Metadata accompanies every successful dispatch. The timestamp is captured
// when the envelope is built, after execution, not at request receipt.
type Metadata struct {
	Capability string    `json:"capability_name"`
	DispatchID string    `json:"dispatch_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Envelope is the uniform result wrapper returned by every dispatch. Exactly
// one of Result and Error is set; the shape is identical across capabilities.
type Envelope struct {
	Success  bool      `json:"success"`
	Result   any       `json:"result,omitempty"`
	Error    *ErrInfo  `json:"error,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Dispatcher routes (capability name, parameter map) pairs against an
// explicitly supplied registry. It holds no mutable state of its own and is
// safe for concurrent use; side effects are confined to capability bodies.
type Dispatcher struct {
	registry *capability.Registry
	logger   logging.Logger
}

// Options configure a Dispatcher.
type Options struct {
	Logger logging.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *capability.Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{registry: registry, logger: opts.Logger}
}

// Registry exposes the underlying capability registry for discovery listings.
func (d *Dispatcher) Registry() *capability.Registry { return d.registry }

// Dispatch resolves, validates and executes the named capability.
//
// Outcomes:
//
//	unregistered name              -> error kind UNKNOWN_CAPABILITY
//	schema violation               -> error kind INVALID_PARAMETERS (field named)
//	capability body / collaborator -> error kind EXECUTION_ERROR
//	success                        -> result plus metadata
//
// A panic inside a capability body is recovered and converted to an
// EXECUTION_ERROR envelope; the dispatcher is the boundary where local
// faults stop propagating.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]any) *Envelope {
	dispatchID := uuid.NewString()
	logger := d.logger

	logger.Debug("dispatch.start", "capability", name, "dispatch_id", dispatchID)

	c, err := d.registry.Get(name)
	if err != nil {
		logger.Warn("dispatch.unknown_capability", "capability", name, "dispatch_id", dispatchID)
		return failure(name, dispatchID, KindUnknownCapability, err.Error())
	}

	if params == nil {
		params = map[string]any{}
	}
	validated, err := c.Schema().Validate(params)
	if err != nil {
		logger.Warn("dispatch.invalid_parameters", "capability", name, "dispatch_id", dispatchID, "error", err.Error())
		return failure(name, dispatchID, KindInvalidParameters, err.Error())
	}

	start := time.Now()
	result, err := d.execute(ctx, c, validated)
	if err != nil {
		logger.Error("dispatch.execution_error", "capability", name, "dispatch_id", dispatchID, "error", err.Error())
		return failure(name, dispatchID, KindExecutionError, err.Error())
	}

	logger.Info("dispatch.success", "capability", name, "dispatch_id", dispatchID,
		"duration_ms", time.Since(start).Milliseconds())

	return &Envelope{
		Success: true,
		Result:  result,
		Metadata: &Metadata{
			Capability: name,
			DispatchID: dispatchID,
			Timestamp:  time.Now().UTC(),
		},
	}
}

// execute runs the capability body, converting panics into errors.
func (d *Dispatcher) execute(ctx context.Context, c capability.Capability, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability %s panicked: %v", c.Name(), r)
		}
	}()
	return c.Execute(ctx, args)
}

func failure(name, dispatchID, kind, message string) *Envelope {
	return &Envelope{
		Success: false,
		Error:   &ErrInfo{Kind: kind, Message: message},
		Metadata: &Metadata{
			Capability: name,
			DispatchID: dispatchID,
			Timestamp:  time.Now().UTC(),
		},
	}
}

// ResultMap returns the envelope result as a map when it is one, easing
// consumption of capability payloads that are JSON-object shaped.
func (e *Envelope) ResultMap() (map[string]any, bool) {
	m, ok := e.Result.(map[string]any)
	return m, ok
}

// Err returns the envelope error as a Go error, or nil on success.
func (e *Envelope) Err() error {
	if e.Success || e.Error == nil {
		return nil
	}
	return errors.New(e.Error.Kind + ": " + e.Error.Message)
}
