// Package ident generates the synthetic identifiers attached to migrated sub-content.
package ident

import (
	"regexp"

	"github.com/google/uuid"
)

var v4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// NewInstanceID returns a fresh random RFC-4122 version 4 identifier in its
// canonical lower-case form.
func NewInstanceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// uuid.New panics on entropy failure, which is what we want here too
		return uuid.New().String()
	}
	return id.String()
}

// IsV4 reports whether s has the canonical shape of a version 4 identifier.
func IsV4(s string) bool {
	return v4Pattern.MatchString(s)
}
