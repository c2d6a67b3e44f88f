package migration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/domain"
)

// Request describes one upgrade run.
type Request struct {
	ContentType string
	From        Version
	To          Version
	Params      document.Document
	Extras      document.Document
}

// Outcome is the document state after a run. When Run fails with a StepError it holds
// the state before the failing step.
type Outcome struct {
	Params  document.Document
	Extras  document.Document
	Applied []Version
}

// Runner folds documents through the registered upgrade steps.
type Runner struct {
	registry  *Registry
	logger    logrus.FieldLogger
	observers []Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for step progress.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver adds an observer notified around every step.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// NewRunner creates a runner over the given registry
func NewRunner(registry *Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type report struct {
	err    error
	params document.Document
	extras document.Document
}

// Run applies every pending step between req.From and req.To in ascending order.
//
// Each step receives its own deep copy of the document and extras and is waited on
// until it reports. The first failure stops the chain; the returned Outcome then
// carries the state from before that step. A done ctx stops the wait but does not
// interrupt the step itself.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	pending, err := r.registry.Pending(req.ContentType, req.From, req.To)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Params:  req.Params,
		Extras:  req.Extras,
		Applied: []Version{},
	}

	for _, entry := range pending {
		version := Version{Major: req.From.Major, Minor: entry.Minor}
		log := r.logger.WithFields(logrus.Fields{
			"content_type": req.ContentType,
			"version":      version.String(),
			"step":         entry.Name,
		})

		for _, o := range r.observers {
			o.StepStarted(req.ContentType, version)
		}
		log.Debug("Running upgrade step")

		start := time.Now()
		rep := r.invoke(ctx, entry, out, log)
		elapsed := time.Since(start)

		for _, o := range r.observers {
			o.StepFinished(req.ContentType, version, elapsed, rep.err)
		}

		if rep.err != nil {
			log.WithError(rep.err).Warn("Upgrade step failed, chain halted")
			return out, domain.NewStepError(req.ContentType, version.String(), entry.Name, rep.err)
		}

		out.Params = rep.params
		if rep.extras != nil {
			out.Extras = rep.extras
		}
		out.Applied = append(out.Applied, version)
		log.WithField("duration", elapsed).Debug("Upgrade step completed")
	}

	return out, nil
}

// invoke runs one step and blocks until its first report or until ctx is done.
func (r *Runner) invoke(ctx context.Context, entry Entry, current Outcome, log logrus.FieldLogger) report {
	done := make(chan report, 1)
	var once sync.Once

	finished := func(err error, params, extras document.Document) {
		reported := false
		once.Do(func() {
			done <- report{err: err, params: params, extras: extras}
			reported = true
		})
		if !reported {
			log.Warn("Ignoring repeated completion from upgrade step")
		}
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				finished(fmt.Errorf("step panicked: %v", p), nil, nil)
			}
		}()
		entry.Step(ctx, current.Params.Clone(), current.Extras.Clone(), finished)
	}()

	select {
	case rep := <-done:
		return rep
	case <-ctx.Done():
		return report{err: ctx.Err()}
	}
}
