// Package engine adapts an external Jewish-calendar computation service to
// the RawEvent stream consumed by the calendar pipeline.
package engine

import (
	"context"

	"yomtov/internal/model"
)

// Engine returns the ordered events for a query window. Implementations
// must honour ctx cancellation and must not retry.
type Engine interface {
	Events(ctx context.Context, q model.Query) ([]model.RawEvent, error)
}

// Func adapts an ordinary function to Engine.
type Func func(ctx context.Context, q model.Query) ([]model.RawEvent, error)

func (f Func) Events(ctx context.Context, q model.Query) ([]model.RawEvent, error) {
	return f(ctx, q)
}
