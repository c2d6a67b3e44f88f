package operations

import (
	"context"
	"fmt"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/migration"
)

// PlannedStep is one step an upgrade would run.
type PlannedStep struct {
	Version string `json:"version"`
	Name    string `json:"name,omitempty"`
}

// PlanHandler lists the upgrade steps pending for a document without running them
type PlanHandler struct {
	BaseHandler
}

// NewPlanHandler creates a new content plan handler
func NewPlanHandler(base BaseHandler) Handler {
	return &PlanHandler{BaseHandler: base}
}

// Handle computes the upgrade plan
func (h *PlanHandler) Handle(ctx context.Context, task domain.Task) (map[string]interface{}, error) {
	env := task.Content
	if env == nil {
		return nil, domain.NewValidationError("content", "required for "+domain.ActionPlan)
	}

	from, to, err := h.resolveVersions(env)
	if err != nil {
		return nil, err
	}

	steps, err := Plan(h.Steps, env.ContentType, from, to)
	if err != nil {
		return nil, err
	}

	result := Result()
	SetResult(result, "status", "planned")
	SetResult(result, "message", fmt.Sprintf("%d upgrade step(s) pending", len(steps)))
	SetResult(result, "content_type", env.ContentType)
	SetResult(result, "from", from.String())
	SetResult(result, "to", to.String())
	SetResult(result, "steps", steps)
	SetResult(result, "up_to_date", len(steps) == 0)

	return result, nil
}

// Plan lists the steps that upgrade contentType from..to.
func Plan(steps *migration.Registry, contentType string, from, to migration.Version) ([]PlannedStep, error) {
	pending, err := steps.Pending(contentType, from, to)
	if err != nil {
		return nil, err
	}

	planned := make([]PlannedStep, 0, len(pending))
	for _, e := range pending {
		planned = append(planned, PlannedStep{
			Version: migration.Version{Major: from.Major, Minor: e.Minor}.String(),
			Name:    e.Name,
		})
	}
	return planned, nil
}
