// Package domain defines the core domain types for content upgrade operations.
package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Supported task actions.
const (
	ActionUpgrade = "content-upgrade"
	ActionPlan    = "content-plan"
)

// validate is the shared validator for request types; json tag names are used in
// error paths so messages match the wire format.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ContentEnvelope carries one content document together with its declared schema version.
//
// Version is the version the params were authored against ("1.5"); TargetVersion is
// optional and defaults to the newest registered version of the same major.
type ContentEnvelope struct {
	ContentType   string                 `json:"contentType" yaml:"contentType" validate:"required"`
	Version       string                 `json:"version" yaml:"version" validate:"required"`
	TargetVersion string                 `json:"targetVersion,omitempty" yaml:"targetVersion,omitempty"`
	Params        map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
	Extras        map[string]interface{} `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Task represents a single operation to be performed on a content document.
//
// Supported actions:
//   - content-upgrade: Run pending upgrade steps and return the upgraded params
//   - content-plan: List the upgrade steps that would run, without running them
type Task struct {
	Action  string           `json:"action" validate:"required,oneof=content-upgrade content-plan"` // The action to perform
	Content *ContentEnvelope `json:"content" validate:"required"`                                  // The document to work on
}

// UpgradeRequest represents the root request structure for upgrade operations.
type UpgradeRequest struct {
	Version string `json:"version" validate:"required"`          // API version (e.g., "v1")
	Tasks   []Task `json:"tasks" validate:"required,min=1,dive"` // List of tasks to execute
}

// Validate checks the request against its struct tags.
func (r *UpgradeRequest) Validate() error {
	return validateStruct(r)
}

// Validate checks a single task against its struct tags.
func (t *Task) Validate() error {
	return validateStruct(t)
}

// Validate checks the envelope against its struct tags.
func (c *ContentEnvelope) Validate() error {
	return validateStruct(c)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return NewValidationError(fe.Namespace(), msg)
	}
	return NewValidationError("request", err.Error())
}
