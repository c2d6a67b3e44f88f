package migration

import (
	"fmt"
	"sort"
	"sync"

	"evalgo.org/contentupgrade/internal/domain"
)

// Key identifies the step chain of one major version of a content type.
type Key struct {
	ContentType string
	Major       int
}

// Registry holds upgrade steps per content type and major version.
type Registry struct {
	mu      sync.RWMutex
	buckets map[Key][]Entry
	known   map[string]struct{}
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Key][]Entry),
		known:   make(map[string]struct{}),
	}
}

// Register adds a step that upgrades contentType to major.minor. Each
// (contentType, major, minor) may be registered only once.
func (r *Registry) Register(contentType string, major, minor int, name string, step Step) error {
	if contentType == "" {
		return domain.NewValidationError("contentType", "must not be empty")
	}
	if major < 0 || minor < 0 {
		return domain.NewValidationError("version", fmt.Sprintf("negative version %d.%d", major, minor))
	}
	if step == nil {
		return domain.NewValidationError("step", "must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{ContentType: contentType, Major: major}
	for _, e := range r.buckets[key] {
		if e.Minor == minor {
			return domain.NewConflictError("step", fmt.Sprintf("%s %s", contentType, Version{Major: major, Minor: minor}))
		}
	}

	entries := append(r.buckets[key], Entry{Minor: minor, Name: name, Step: step})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Minor < entries[j].Minor })
	r.buckets[key] = entries
	r.known[contentType] = struct{}{}

	return nil
}

// MustRegister is like Register but panics on error. Use it while wiring content
// types at start-up.
func (r *Registry) MustRegister(contentType string, major, minor int, name string, step Step) {
	if err := r.Register(contentType, major, minor, name, step); err != nil {
		panic(err)
	}
}

// Lookup returns the steps of one major version in ascending minor order.
// A content type without any steps is an UnknownContentTypeError; a known
// content type without steps for major yields an empty slice.
func (r *Registry) Lookup(contentType string, major int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.known[contentType]; !ok {
		return nil, domain.NewUnknownContentTypeError(contentType)
	}

	entries := r.buckets[Key{ContentType: contentType, Major: major}]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Latest returns the newest version registered for a major version. The minor is 0
// when the major has no steps.
func (r *Registry) Latest(contentType string, major int) (Version, error) {
	entries, err := r.Lookup(contentType, major)
	if err != nil {
		return Version{}, err
	}

	latest := Version{Major: major}
	if n := len(entries); n > 0 {
		latest.Minor = entries[n-1].Minor
	}
	return latest, nil
}

// ContentTypes lists the content types with registered steps, sorted.
func (r *Registry) ContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.known))
	for ct := range r.known {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}

// Pending returns the steps that upgrade from..to, in order. Only steps with
// from.Minor < minor <= to.Minor qualify.
func (r *Registry) Pending(contentType string, from, to Version) ([]Entry, error) {
	if from.Major != to.Major {
		return nil, domain.NewValidationError("version", fmt.Sprintf("cannot upgrade across major versions (%s to %s)", from, to))
	}

	entries, err := r.Lookup(contentType, from.Major)
	if err != nil {
		return nil, err
	}

	pending := entries[:0]
	for _, e := range entries {
		if e.Minor > from.Minor && e.Minor <= to.Minor {
			pending = append(pending, e)
		}
	}
	return pending, nil
}
