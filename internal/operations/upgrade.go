package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/migration"
)

// UpgradeHandler runs the pending upgrade steps of a content document
type UpgradeHandler struct {
	BaseHandler
}

// NewUpgradeHandler creates a new content upgrade handler
func NewUpgradeHandler(base BaseHandler) Handler {
	return &UpgradeHandler{BaseHandler: base}
}

// Handle executes the content upgrade
func (h *UpgradeHandler) Handle(ctx context.Context, task domain.Task) (map[string]interface{}, error) {
	env := task.Content
	if env == nil {
		return nil, domain.NewValidationError("content", "required for "+domain.ActionUpgrade)
	}
	if env.Params == nil {
		return nil, domain.NewValidationError("content.params", "required for "+domain.ActionUpgrade)
	}

	from, to, err := h.resolveVersions(env)
	if err != nil {
		return nil, err
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	out, err := h.Runner.Run(ctx, migration.Request{
		ContentType: env.ContentType,
		From:        from,
		To:          to,
		Params:      document.Document(env.Params),
		Extras:      document.Document(env.Extras),
	})
	if h.Recorder != nil {
		h.Recorder.RunFinished(env.ContentType, err)
	}
	if err != nil {
		var stepErr *domain.StepError
		if errors.As(err, &stepErr) {
			return nil, domain.NewOperationError(domain.ActionUpgrade, fmt.Sprintf("upgrade halted at %s", stepErr.Version), stepErr)
		}
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"content_type": env.ContentType,
		"from":         from.String(),
		"to":           to.String(),
		"applied":      len(out.Applied),
	}).Info("Content upgraded")

	result := Result()
	SetResult(result, "status", "completed")
	if len(out.Applied) == 0 {
		SetResult(result, "message", "Content is already up to date")
	} else {
		SetResult(result, "message", fmt.Sprintf("Content upgraded from %s to %s", from, to))
	}
	SetResult(result, "content_type", env.ContentType)
	SetResult(result, "from", from.String())
	SetResult(result, "to", to.String())
	SetResult(result, "applied", versionStrings(out.Applied))
	SetResult(result, "params", out.Params)
	if out.Extras != nil {
		SetResult(result, "extras", out.Extras)
	}

	return result, nil
}
