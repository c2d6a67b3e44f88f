package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/journal"
	"evalgo.org/contentupgrade/internal/migration"
)

// Config wires the collaborators shared by all handlers.
type Config struct {
	Steps    *migration.Registry
	Runner   *migration.Runner
	Journal  *journal.Journal // optional
	Recorder RunRecorder      // optional
	Timeout  time.Duration    // per upgrade run, 0 disables
	Logger   logrus.FieldLogger
}

// Registry manages action handlers
type Registry struct {
	handlers map[string]Handler
	journal  *journal.Journal
	logger   logrus.FieldLogger
}

// NewRegistry creates a new action registry
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Runner == nil {
		cfg.Runner = migration.NewRunner(cfg.Steps, migration.WithLogger(cfg.Logger))
	}

	reg := &Registry{
		handlers: make(map[string]Handler),
		journal:  cfg.Journal,
		logger:   cfg.Logger,
	}

	base := BaseHandler{
		Steps:    cfg.Steps,
		Runner:   cfg.Runner,
		Recorder: cfg.Recorder,
		Timeout:  cfg.Timeout,
		Logger:   cfg.Logger,
	}

	// Register all handlers
	reg.Register(domain.ActionUpgrade, NewUpgradeHandler(base))
	reg.Register(domain.ActionPlan, NewPlanHandler(base))

	return reg
}

// Register registers a handler for an action
func (r *Registry) Register(action string, handler Handler) {
	r.handlers[action] = handler
}

// Handle executes an operation by routing to the appropriate handler
func (r *Registry) Handle(ctx context.Context, task domain.Task) (map[string]interface{}, error) {
	handler, exists := r.handlers[task.Action]
	if !exists {
		return nil, domain.NewValidationError("action", fmt.Sprintf("unknown action: %s", task.Action))
	}

	return handler.Handle(ctx, task)
}

// GetHandler returns the handler for an action (useful for testing)
func (r *Registry) GetHandler(action string) (Handler, bool) {
	handler, exists := r.handlers[action]
	return handler, exists
}
