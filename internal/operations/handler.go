// Package operations implements the task actions of upgrade requests.
package operations

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/migration"
)

// Handler defines the interface for task action handlers
type Handler interface {
	// Handle executes the action and returns the result
	Handle(ctx context.Context, task domain.Task) (map[string]interface{}, error)
}

// RunRecorder is told about every finished upgrade run.
type RunRecorder interface {
	RunFinished(contentType string, err error)
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	Steps    *migration.Registry
	Runner   *migration.Runner
	Recorder RunRecorder
	Timeout  time.Duration
	Logger   logrus.FieldLogger
}

// resolveVersions parses the envelope's version and target. A missing target
// defaults to the newest registered version of the same major.
func (b *BaseHandler) resolveVersions(env *domain.ContentEnvelope) (migration.Version, migration.Version, error) {
	from, err := migration.ParseVersion(env.Version)
	if err != nil {
		return migration.Version{}, migration.Version{}, err
	}

	if env.TargetVersion != "" {
		to, err := migration.ParseVersion(env.TargetVersion)
		if err != nil {
			return migration.Version{}, migration.Version{}, domain.NewValidationError("targetVersion", err.Error())
		}
		if to.Less(from) {
			return migration.Version{}, migration.Version{}, domain.NewValidationError("targetVersion", "must not be older than version")
		}
		return from, to, nil
	}

	to, err := b.Steps.Latest(env.ContentType, from.Major)
	if err != nil {
		return migration.Version{}, migration.Version{}, err
	}
	if to.Less(from) {
		to = from
	}
	return from, to, nil
}

// Result is a helper for building operation results
func Result() map[string]interface{} {
	return make(map[string]interface{})
}

// SetResult sets a field in the result map
func SetResult(result map[string]interface{}, key string, value interface{}) {
	result[key] = value
}

// GetResult gets a field from the result map
func GetResult(result map[string]interface{}, key string) (interface{}, bool) {
	val, exists := result[key]
	return val, exists
}

func versionStrings(versions []migration.Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.String()
	}
	return out
}
