package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/book"
	"evalgo.org/contentupgrade/internal/config"
	"evalgo.org/contentupgrade/internal/journal"
	"evalgo.org/contentupgrade/internal/metrics"
	"evalgo.org/contentupgrade/internal/migration"
	"evalgo.org/contentupgrade/internal/operations"
)

// app bundles the collaborators shared by the CLI commands and the HTTP service.
type app struct {
	cfg        *config.Config
	steps      *migration.Registry
	operations *operations.Registry
	journal    *journal.Journal // nil when the journal is disabled
	metrics    *metrics.Observer
	gatherer   prometheus.Gatherer
	logger     logrus.FieldLogger
}

// registerContentTypes adds the upgrade steps of every supported content type.
func registerContentTypes(reg *migration.Registry) error {
	if err := book.Register(reg); err != nil {
		return fmt.Errorf("failed to register %s steps: %w", book.ContentType, err)
	}
	return nil
}

// newApp wires registry, runner, metrics and journal from cfg. withJournal is
// false for one-shot CLI runs.
func newApp(cfg *config.Config, logger logrus.FieldLogger, withJournal bool) (*app, error) {
	steps := migration.NewRegistry()
	if err := registerContentTypes(steps); err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer := metrics.NewObserver(promRegistry)

	var j *journal.Journal
	if withJournal && cfg.Journal.Enabled {
		var err error
		j, err = journal.New(cfg.Journal.Dir, cfg.Journal.RetentionDays, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	runner := migration.NewRunner(steps,
		migration.WithLogger(logger),
		migration.WithObserver(observer),
	)

	ops := operations.NewRegistry(operations.Config{
		Steps:    steps,
		Runner:   runner,
		Journal:  j,
		Recorder: observer,
		Timeout:  cfg.Upgrade.Timeout,
		Logger:   logger,
	})

	return &app{
		cfg:        cfg,
		steps:      steps,
		operations: ops,
		journal:    j,
		metrics:    observer,
		gatherer:   promRegistry,
		logger:     logger,
	}, nil
}
