// Package migration registers content upgrade steps and runs them in version order.
package migration

import (
	"context"
	"time"

	"evalgo.org/contentupgrade/internal/document"
)

// Finished reports the outcome of a step. A nil err means params and extras are the
// step's output; otherwise they are ignored. Only the first report counts.
type Finished func(err error, params, extras document.Document)

// Step transforms a document from the previous minor version to the one it is
// registered under. It owns params and extras until it calls finished, which may
// happen on another goroutine.
type Step func(ctx context.Context, params, extras document.Document, finished Finished)

// Entry is a registered step.
type Entry struct {
	Minor int
	Name  string
	Step  Step
}

// Observer is notified around every step the runner executes.
type Observer interface {
	StepStarted(contentType string, version Version)
	StepFinished(contentType string, version Version, elapsed time.Duration, err error)
}

// Sync adapts a synchronous transformation into a Step.
func Sync(fn func(params, extras document.Document) (document.Document, error)) Step {
	return func(_ context.Context, params, extras document.Document, finished Finished) {
		out, err := fn(params, extras)
		finished(err, out, extras)
	}
}
