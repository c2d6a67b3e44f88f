package operations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/contentupgrade/internal/book"
	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/journal"
	"evalgo.org/contentupgrade/internal/migration"
)

type recorder struct {
	mu   sync.Mutex
	runs map[string]int
}

func (r *recorder) RunFinished(contentType string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = make(map[string]int)
	}
	key := contentType + " ok"
	if err != nil {
		key = contentType + " failed"
	}
	r.runs[key]++
}

func newSteps(t *testing.T) *migration.Registry {
	t.Helper()
	steps := migration.NewRegistry()
	require.NoError(t, book.Register(steps))
	return steps
}

func newTestRegistry(t *testing.T, steps *migration.Registry, mutate func(*Config)) *Registry {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	cfg := Config{Steps: steps, Logger: logger}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRegistry(cfg)
}

func bookTask(action, version, target string) domain.Task {
	return domain.Task{
		Action: action,
		Content: &domain.ContentEnvelope{
			ContentType:   book.ContentType,
			Version:       version,
			TargetVersion: target,
			Params: map[string]interface{}{
				"bookCover": map[string]interface{}{
					"coverAltText":     "x",
					"coverDescription": "desc",
				},
			},
		},
	}
}

func TestNewRegistry_RegistersActions(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	for _, action := range []string{domain.ActionUpgrade, domain.ActionPlan} {
		_, ok := reg.GetHandler(action)
		assert.True(t, ok, action)
	}

	_, err := reg.Handle(context.Background(), domain.Task{Action: "content-delete"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpgradeHandler_DefaultsToLatest(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, newSteps(t), func(c *Config) { c.Recorder = rec })

	result, err := reg.Handle(context.Background(), bookTask(domain.ActionUpgrade, "1.5", ""))
	require.NoError(t, err)

	assert.Equal(t, "completed", result["status"])
	assert.Equal(t, "1.5", result["from"])
	assert.Equal(t, "1.8", result["to"])
	assert.Equal(t, []string{"1.6", "1.8"}, result["applied"])

	params := result["params"].(document.Document)
	bookCover, ok := params.Map("bookCover")
	require.True(t, ok)
	assert.Contains(t, bookCover, "coverMedium")
	assert.Equal(t, `<p style="text-align: center;">desc</p>`, bookCover["coverDescription"])

	assert.Equal(t, 1, rec.runs[book.ContentType+" ok"])
}

func TestUpgradeHandler_ExplicitTarget(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	result, err := reg.Handle(context.Background(), bookTask(domain.ActionUpgrade, "1.5.2", "1.7"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.6"}, result["applied"])
	assert.Equal(t, "1.7", result["to"])
}

func TestUpgradeHandler_AlreadyCurrent(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	result, err := reg.Handle(context.Background(), bookTask(domain.ActionUpgrade, "1.9", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{}, result["applied"])
	assert.Equal(t, "1.9", result["to"])
	assert.Equal(t, "Content is already up to date", result["message"])
}

func TestUpgradeHandler_Errors(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	tests := []struct {
		name     string
		task     domain.Task
		wantType string
	}{
		{"bad version", bookTask(domain.ActionUpgrade, "one", ""), ErrorTypeValidation},
		{"bad target", bookTask(domain.ActionUpgrade, "1.5", "x"), ErrorTypeValidation},
		{"older target", bookTask(domain.ActionUpgrade, "1.8", "1.6"), ErrorTypeValidation},
		{"major bump", bookTask(domain.ActionUpgrade, "1.5", "2.0"), ErrorTypeValidation},
		{"missing params", domain.Task{Action: domain.ActionUpgrade, Content: &domain.ContentEnvelope{ContentType: book.ContentType, Version: "1.5"}}, ErrorTypeValidation},
		{"unknown content type", domain.Task{Action: domain.ActionUpgrade, Content: &domain.ContentEnvelope{ContentType: "H5P.Nope", Version: "1.0", Params: map[string]interface{}{}}}, ErrorTypeUnknownContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Handle(context.Background(), tt.task)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, ErrorType(err))
		})
	}
}

func TestUpgradeHandler_StepFailure(t *testing.T) {
	steps := migration.NewRegistry()
	cause := errors.New("broken chapter")
	steps.MustRegister("H5P.Test", 1, 1, "chapters", func(_ context.Context, params, extras document.Document, finished migration.Finished) {
		finished(cause, nil, nil)
	})
	rec := &recorder{}
	reg := newTestRegistry(t, steps, func(c *Config) { c.Recorder = rec })

	_, err := reg.Handle(context.Background(), domain.Task{
		Action:  domain.ActionUpgrade,
		Content: &domain.ContentEnvelope{ContentType: "H5P.Test", Version: "1.0", Params: map[string]interface{}{}},
	})

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, domain.ActionUpgrade, opErr.Operation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeStepFailed, ErrorType(err))
	assert.Equal(t, 1, rec.runs["H5P.Test failed"])
}

func TestUpgradeHandler_Timeout(t *testing.T) {
	steps := migration.NewRegistry()
	steps.MustRegister("H5P.Test", 1, 1, "", func(context.Context, document.Document, document.Document, migration.Finished) {})
	reg := newTestRegistry(t, steps, func(c *Config) { c.Timeout = 20 * time.Millisecond })

	_, err := reg.Handle(context.Background(), domain.Task{
		Action:  domain.ActionUpgrade,
		Content: &domain.ContentEnvelope{ContentType: "H5P.Test", Version: "1.0", Params: map[string]interface{}{}},
	})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTimeout, ErrorType(err))
}

func TestPlanHandler(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	result, err := reg.Handle(context.Background(), bookTask(domain.ActionPlan, "1.5", ""))
	require.NoError(t, err)
	assert.Equal(t, "planned", result["status"])
	assert.Equal(t, []PlannedStep{
		{Version: "1.6", Name: "cover medium"},
		{Version: "1.8", Name: "table borders"},
	}, result["steps"])
	assert.Equal(t, false, result["up_to_date"])

	result, err = reg.Handle(context.Background(), bookTask(domain.ActionPlan, "1.8", ""))
	require.NoError(t, err)
	assert.Equal(t, true, result["up_to_date"])
}

func TestExecute_RecordsJournal(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	j, err := journal.New(t.TempDir(), 7, logger)
	require.NoError(t, err)
	reg := newTestRegistry(t, newSteps(t), func(c *Config) { c.Journal = j })

	unknown := bookTask(domain.ActionUpgrade, "1.5", "")
	unknown.Content.ContentType = "H5P.Nope"

	batch, err := reg.Execute(context.Background(), &domain.UpgradeRequest{
		Version: "v1",
		Tasks: []domain.Task{
			bookTask(domain.ActionUpgrade, "1.5", ""),
			unknown,
			bookTask(domain.ActionPlan, "1.5", ""),
		},
	}, Caller{User: "alice", IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, batch.Status)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, StatusSuccess, batch.Results[0].Status)
	assert.Equal(t, StatusError, batch.Results[1].Status)
	assert.Equal(t, ErrorTypeUnknownContentType, batch.Results[1].ErrorType)
	assert.Equal(t, StatusSuccess, batch.Results[2].Status)

	require.NotEmpty(t, batch.SessionID)
	session, err := j.GetSession(batch.SessionID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFailed, session.Status)
	assert.Equal(t, "alice", session.User)
	require.Len(t, session.Tasks, 3)
	assert.Equal(t, []string{"1.6", "1.8"}, session.Tasks[0].Applied)
	assert.NotEmpty(t, session.Tasks[0].MD5Hash)
	assert.Greater(t, session.Tasks[0].DataSize, int64(0))
	assert.Equal(t, ErrorTypeUnknownContentType, session.Tasks[1].ErrorType)
}

func TestExecute_WithoutJournal(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	batch, err := reg.Execute(context.Background(), &domain.UpgradeRequest{
		Version: "v1",
		Tasks:   []domain.Task{bookTask(domain.ActionUpgrade, "1.5", "")},
	}, Caller{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, batch.Status)
	assert.Empty(t, batch.SessionID)
}

func TestExecute_RejectsInvalidRequest(t *testing.T) {
	reg := newTestRegistry(t, newSteps(t), nil)

	_, err := reg.Execute(context.Background(), &domain.UpgradeRequest{Version: "v1"}, Caller{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestExecute_CancelledRequestFailsSession(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	j, err := journal.New(t.TempDir(), 7, logger)
	require.NoError(t, err)
	reg := newTestRegistry(t, newSteps(t), func(c *Config) { c.Journal = j })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := reg.Execute(ctx, &domain.UpgradeRequest{
		Version: "v1",
		Tasks:   []domain.Task{bookTask(domain.ActionUpgrade, "1.5", "")},
	}, Caller{User: "bob"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, batch.Results)

	session, err := j.GetSession(batch.SessionID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFailed, session.Status)
	assert.Contains(t, session.ErrorMessage, "before task 0")
	assert.Empty(t, j.GetActiveSessions())
}
