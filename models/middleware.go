package models

import (
	"context"
	"fmt"
)

// MiddlewareFunc is a single transformation step over an operation being
// assembled. Each step may read and write any field but must leave the record
// valid for the next step.
type MiddlewareFunc func(ctx context.Context, op *UserOperation) error

// Middleware is a named pipeline entry. The name identifies the originating
// step when a failure propagates out of the pipeline.
type Middleware struct {
	Name string
	Fn   MiddlewareFunc
}

// MiddlewareError wraps a failure of a single pipeline step with the name of
// the step that produced it.
type MiddlewareError struct {
	Name string
	Err  error
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("middleware %q failed: %s", e.Name, e.Err)
}

func (e *MiddlewareError) Unwrap() error {
	return e.Err
}

// RunPipeline applies the middleware entries to the operation in registration
// order. The first failure short-circuits the pipeline, no later entry runs.
func RunPipeline(ctx context.Context, op *UserOperation, pipeline []Middleware) error {
	for _, mw := range pipeline {
		if err := mw.Fn(ctx, op); err != nil {
			return &MiddlewareError{Name: mw.Name, Err: err}
		}
	}
	return nil
}
