package operations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
)

// Batch and task statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Error types recorded for failed tasks.
const (
	ErrorTypeValidation         = "validation"
	ErrorTypeUnknownContentType = "unknown_content_type"
	ErrorTypeStepFailed         = "step_failed"
	ErrorTypeTimeout            = "timeout"
	ErrorTypeInternal           = "internal"
)

// Caller identifies who sent a request.
type Caller struct {
	User      string
	IPAddress string
	UserAgent string
}

// TaskResult is the outcome of one task of a batch.
type TaskResult struct {
	Index     int                    `json:"index"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorType string                 `json:"error_type,omitempty"`
}

// BatchResult is the outcome of an upgrade request.
type BatchResult struct {
	SessionID string       `json:"session_id,omitempty"`
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	Results   []TaskResult `json:"results"`
}

// Execute validates req and runs every task in order. Tasks are independent: a
// failing task is reported in its result and the remaining tasks still run. When a
// journal is configured the request is recorded as one session.
func (r *Registry) Execute(ctx context.Context, req *domain.UpgradeRequest, caller Caller) (*BatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Version: req.Version,
		Results: make([]TaskResult, 0, len(req.Tasks)),
	}

	sessionID := r.startSession(req, caller)
	batch.SessionID = sessionID

	failed := 0
	for i, task := range req.Tasks {
		if err := ctx.Err(); err != nil {
			r.failSession(sessionID, fmt.Sprintf("request aborted before task %d: %v", i, err))
			return batch, err
		}
		pos := r.startTask(sessionID, i, task)

		result, err := r.Handle(ctx, task)
		if err != nil {
			failed++
			errType := ErrorType(err)
			batch.Results = append(batch.Results, TaskResult{
				Index:     i,
				Action:    task.Action,
				Status:    StatusError,
				Error:     err.Error(),
				ErrorType: errType,
			})
			r.logger.WithError(err).WithFields(logrus.Fields{
				"task":   i,
				"action": task.Action,
			}).Warn("Task failed")
			r.failTask(sessionID, pos, errType, err)
			continue
		}

		batch.Results = append(batch.Results, TaskResult{
			Index:  i,
			Action: task.Action,
			Status: StatusSuccess,
			Result: result,
		})
		r.completeTask(sessionID, pos, result)
	}

	switch {
	case failed == 0:
		batch.Status = StatusSuccess
	case failed == len(req.Tasks):
		batch.Status = StatusFailed
	default:
		batch.Status = StatusPartial
	}

	if sessionID != "" {
		if err := r.journal.CompleteSession(sessionID); err != nil {
			r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to close journal session")
		}
	}

	return batch, nil
}

func (r *Registry) failSession(sessionID, reason string) {
	if sessionID == "" {
		return
	}
	if err := r.journal.FailSession(sessionID, reason); err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to close journal session")
	}
}

// ErrorType classifies err for journal records and responses.
func ErrorType(err error) string {
	var (
		validation *domain.ValidationError
		unknown    *domain.UnknownContentTypeError
		stepErr    *domain.StepError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.As(err, &validation):
		return ErrorTypeValidation
	case errors.As(err, &unknown):
		return ErrorTypeUnknownContentType
	case errors.As(err, &stepErr):
		return ErrorTypeStepFailed
	default:
		return ErrorTypeInternal
	}
}

// Journal hooks below never fail a request; journal errors are logged.

func (r *Registry) startSession(req *domain.UpgradeRequest, caller Caller) string {
	if r.journal == nil {
		return ""
	}

	session, err := r.journal.StartSession(caller.User, caller.IPAddress, caller.UserAgent, len(req.Tasks), map[string]interface{}{
		"api_version": req.Version,
	})
	if err != nil {
		r.logger.WithError(err).Warn("Failed to start journal session")
		return ""
	}
	return session.ID
}

func (r *Registry) startTask(sessionID string, index int, task domain.Task) int {
	if sessionID == "" {
		return -1
	}

	var contentType, from, to string
	if task.Content != nil {
		contentType, from, to = task.Content.ContentType, task.Content.Version, task.Content.TargetVersion
	}

	pos, err := r.journal.StartTask(sessionID, index, task.Action, contentType, from, to)
	if err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to record task start")
		return -1
	}
	return pos
}

func (r *Registry) completeTask(sessionID string, pos int, result map[string]interface{}) {
	if sessionID == "" || pos < 0 {
		return
	}

	to, _ := result["to"].(string)
	applied, _ := result["applied"].([]string)

	var (
		size int64
		hash string
	)
	if params, ok := result["params"]; ok {
		if data, err := json.Marshal(params); err == nil {
			size = int64(len(data))
			hash = helpers.MD5Hash(data)
		}
	}

	if err := r.journal.CompleteTask(sessionID, pos, to, applied, size, hash); err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to record task completion")
	}
}

func (r *Registry) failTask(sessionID string, pos int, errType string, cause error) {
	if sessionID == "" || pos < 0 {
		return
	}
	if err := r.journal.FailTask(sessionID, pos, errType, cause.Error()); err != nil {
		r.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to record task failure")
	}
}
