package migration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/domain"
)

const testType = "H5P.Test"

// tracing returns a step that appends tag to params["trace"].
func tracing(tag string) Step {
	return Sync(func(params, extras document.Document) (document.Document, error) {
		trace, _ := params["trace"].([]interface{})
		params["trace"] = append(trace, tag)
		return params, nil
	})
}

func failing(err error) Step {
	return func(_ context.Context, params, extras document.Document, finished Finished) {
		params["touched"] = true
		finished(err, params, extras)
	}
}

func v(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"1.5", v(1, 5), false},
		{"1.8.3", v(1, 8), false},
		{" 2.0 ", v(2, 0), false},
		{"1", Version{}, true},
		{"1.x", Version{}, true},
		{"a.1", Version{}, true},
		{"1.2.3.4", Version{}, true},
		{"1.2.p", Version{}, true},
		{"-1.2", Version{}, true},
		{"", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				var verr *domain.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionOrdering(t *testing.T) {
	assert.True(t, v(1, 5).Less(v(1, 6)))
	assert.True(t, v(1, 9).Less(v(2, 0)))
	assert.False(t, v(1, 6).Less(v(1, 6)))
	assert.Equal(t, "1.10", v(1, 10).String())
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testType, 1, 8, "eight", tracing("8")))
	require.NoError(t, reg.Register(testType, 1, 6, "six", tracing("6")))
	require.NoError(t, reg.Register("H5P.Other", 2, 1, "", tracing("o")))

	entries, err := reg.Lookup(testType, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 6, entries[0].Minor)
	assert.Equal(t, "six", entries[0].Name)
	assert.Equal(t, 8, entries[1].Minor)

	latest, err := reg.Latest(testType, 1)
	require.NoError(t, err)
	assert.Equal(t, v(1, 8), latest)

	assert.Equal(t, []string{"H5P.Other", testType}, reg.ContentTypes())
}

func TestRegistry_LookupEmptyMajor(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))

	entries, err := reg.Lookup(testType, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)

	latest, err := reg.Latest(testType, 2)
	require.NoError(t, err)
	assert.Equal(t, v(2, 0), latest)
}

func TestRegistry_UnknownContentType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Lookup("H5P.Missing", 1)
	var unknown *domain.UnknownContentTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "H5P.Missing", unknown.ContentType)

	_, err = reg.Latest("H5P.Missing", 1)
	assert.ErrorAs(t, err, &unknown)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testType, 1, 6, "first", tracing("a")))

	err := reg.Register(testType, 1, 6, "second", tracing("b"))
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	entries, err := reg.Lookup(testType, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Name)

	assert.Panics(t, func() { reg.MustRegister(testType, 1, 6, "", tracing("c")) })
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name        string
		contentType string
		major       int
		minor       int
		step        Step
	}{
		{"empty content type", "", 1, 1, tracing("x")},
		{"negative major", testType, -1, 1, tracing("x")},
		{"negative minor", testType, 1, -1, tracing("x")},
		{"nil step", testType, 1, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.contentType, tt.major, tt.minor, "", tt.step)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, reg.ContentTypes())
}

func newTestRunner(reg *Registry, opts ...Option) *Runner {
	logger, _ := logtest.NewNullLogger()
	return NewRunner(reg, append([]Option{WithLogger(logger)}, opts...)...)
}

func TestRunner_RunsPendingStepsInOrder(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 8, "", tracing("8"))
	reg.MustRegister(testType, 1, 6, "", tracing("6"))
	runner := newTestRunner(reg)

	tests := []struct {
		name        string
		from        Version
		wantTrace   []interface{}
		wantApplied []Version
	}{
		{"from 1.5", v(1, 5), []interface{}{"6", "8"}, []Version{v(1, 6), v(1, 8)}},
		{"from 1.6", v(1, 6), []interface{}{"8"}, []Version{v(1, 8)}},
		{"from 1.7", v(1, 7), []interface{}{"8"}, []Version{v(1, 8)}},
		{"from 1.8", v(1, 8), nil, []Version{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := document.Document{"title": "book"}

			out, err := runner.Run(context.Background(), Request{
				ContentType: testType,
				From:        tt.from,
				To:          v(1, 8),
				Params:      input,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantApplied, out.Applied)
			assert.Equal(t, "book", out.Params["title"])
			if tt.wantTrace == nil {
				assert.NotContains(t, out.Params, "trace")
			} else {
				assert.Equal(t, tt.wantTrace, out.Params["trace"])
			}
			// the caller's document is never mutated
			assert.NotContains(t, input, "trace")
		})
	}
}

func TestRunner_TargetBoundsTheChain(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))
	reg.MustRegister(testType, 1, 8, "", tracing("8"))

	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 7),
		Params:      document.Document{},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"6"}, out.Params["trace"])
}

func TestRunner_FailureHaltsChain(t *testing.T) {
	cause := errors.New("bad cover")
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "cover", failing(cause))
	reg.MustRegister(testType, 1, 8, "tables", tracing("8"))

	input := document.Document{"title": "book"}
	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 8),
		Params:      input,
	})

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, testType, stepErr.ContentType)
	assert.Equal(t, "1.6", stepErr.Version)
	assert.Equal(t, "cover", stepErr.Name)

	// pre-failure state, partial output discarded, step 1.8 never ran
	assert.Equal(t, document.Document{"title": "book"}, out.Params)
	assert.Empty(t, out.Applied)
	assert.NotContains(t, input, "touched")
}

func TestRunner_FailureKeepsEarlierProgress(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))
	reg.MustRegister(testType, 1, 8, "", failing(errors.New("nope")))

	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 8),
		Params:      document.Document{},
	})

	require.Error(t, err)
	assert.Equal(t, document.Document{"trace": []interface{}{"6"}}, out.Params)
	assert.Equal(t, []Version{v(1, 6)}, out.Applied)
}

func TestRunner_UnknownContentTypeIsFatal(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))

	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: "H5P.Missing",
		From:        v(1, 5),
		To:          v(1, 8),
		Params:      document.Document{"a": 1},
	})

	var unknown *domain.UnknownContentTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Nil(t, out.Params)
}

func TestRunner_EmptyChainReturnsInputUnchanged(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))

	input := document.Document{"a": "b"}
	extras := document.Document{"ctx": true}
	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(2, 0),
		To:          v(2, 3),
		Params:      input,
		Extras:      extras,
	})
	require.NoError(t, err)
	assert.Equal(t, input, out.Params)
	assert.Equal(t, extras, out.Extras)
	assert.Empty(t, out.Applied)
}

func TestRunner_RejectsMajorMismatch(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))

	_, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(2, 0),
		Params:      document.Document{},
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRunner_WaitsForAsynchronousCompletion(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", func(_ context.Context, params, extras document.Document, finished Finished) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			params["async"] = true
			finished(nil, params, extras)
		}()
	})
	reg.MustRegister(testType, 1, 7, "", Sync(func(params, extras document.Document) (document.Document, error) {
		if params["async"] != true {
			return nil, errors.New("ran before previous step reported")
		}
		params["after"] = true
		return params, nil
	}))

	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 7),
		Params:      document.Document{},
	})
	require.NoError(t, err)
	assert.Equal(t, true, out.Params["async"])
	assert.Equal(t, true, out.Params["after"])
}

func TestRunner_IgnoresRepeatedCompletion(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", func(_ context.Context, params, extras document.Document, finished Finished) {
		finished(nil, document.Document{"report": "first"}, extras)
		finished(nil, document.Document{"report": "second"}, extras)
		finished(errors.New("late failure"), nil, nil)
	})

	out, err := NewRunner(reg, WithLogger(logger)).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 6),
		Params:      document.Document{},
	})
	require.NoError(t, err)
	assert.Equal(t, "first", out.Params["report"])

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRunner_ExtrasThreadThroughSteps(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", func(_ context.Context, params, extras document.Document, finished Finished) {
		extras["seen"] = "1.6"
		finished(nil, params, extras)
	})
	reg.MustRegister(testType, 1, 7, "", func(_ context.Context, params, extras document.Document, finished Finished) {
		params["seen"] = extras["seen"]
		finished(nil, params, nil)
	})

	callerExtras := document.Document{"locale": "de"}
	out, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 7),
		Params:      document.Document{},
		Extras:      callerExtras,
	})
	require.NoError(t, err)
	assert.Equal(t, "1.6", out.Params["seen"])
	assert.Equal(t, document.Document{"locale": "de", "seen": "1.6"}, out.Extras)
	assert.NotContains(t, callerExtras, "seen")
}

func TestRunner_ContextStopsWaiting(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "stuck", func(context.Context, document.Document, document.Document, Finished) {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	input := document.Document{"a": 1}
	out, err := newTestRunner(reg).Run(ctx, Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 6),
		Params:      input,
	})

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, input, out.Params)
}

func TestRunner_PanicBecomesStepError(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", func(context.Context, document.Document, document.Document, Finished) {
		panic("kaboom")
	})

	_, err := newTestRunner(reg).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 6),
		Params:      document.Document{},
	})

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Contains(t, err.Error(), "kaboom")
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	finished []string
	failures int
}

func (o *recordingObserver) StepStarted(contentType string, version Version) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, version.String())
}

func (o *recordingObserver) StepFinished(contentType string, version Version, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, version.String())
	if err != nil {
		o.failures++
	}
}

func TestRunner_NotifiesObservers(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testType, 1, 6, "", tracing("6"))
	reg.MustRegister(testType, 1, 7, "", failing(errors.New("x")))
	reg.MustRegister(testType, 1, 8, "", tracing("8"))

	obs := &recordingObserver{}
	_, err := newTestRunner(reg, WithObserver(obs)).Run(context.Background(), Request{
		ContentType: testType,
		From:        v(1, 5),
		To:          v(1, 8),
		Params:      document.Document{},
	})
	require.Error(t, err)

	assert.Equal(t, []string{"1.6", "1.7"}, obs.started)
	assert.Equal(t, []string{"1.6", "1.7"}, obs.finished)
	assert.Equal(t, 1, obs.failures)
}
