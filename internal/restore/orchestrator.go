// Package restore drives the point-in-time restore pipeline: acquire the
// execution lock, validate the recovery point, create or reuse restore
// tables, wait until they are ready, compare item counts, swap the recovered
// data into the production tables, and remove the temporary tables.
package restore

import (
	"context"
	"time"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/dynamo"
	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
	"github.com/edwinbulter/quote-lambda-tf/internal/lock"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
	"github.com/edwinbulter/quote-lambda-tf/internal/naming"
	"github.com/edwinbulter/quote-lambda-tf/internal/restorepoint"
	"github.com/edwinbulter/quote-lambda-tf/internal/status"
)

const (
	// lockAcquireTimeout bounds the wait for the execution lock.
	lockAcquireTimeout = 5 * time.Second

	// defaultPollInterval is the pause between restore readiness checks.
	defaultPollInterval = 10 * time.Second

	// settleWait is the grace period after deleting stale restore tables,
	// so the new restore does not collide with in-flight deletions.
	settleWait = 10 * time.Second
)

// Orchestrator owns one restore run. It runs single-threaded; tables are
// worked sequentially, which keeps the batch-write rate predictable.
type Orchestrator struct {
	cfg    *config.Config
	api    dynamo.API
	log    logger.Logger
	status *status.Writer

	// overridable in tests
	now          func() time.Time
	pollInterval time.Duration
	settleWait   time.Duration
	lockTimeout  time.Duration

	state State
}

// New creates an orchestrator for one run.
func New(cfg *config.Config, api dynamo.API, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		api:          api,
		log:          log,
		status:       status.NewWriter(cfg.StatusDir),
		now:          time.Now,
		pollInterval: defaultPollInterval,
		settleWait:   settleWait,
		lockTimeout:  lockAcquireTimeout,
	}
}

// State returns the pipeline state, for observability and tests.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the complete restore operation for the given recovery point
// input. Returns nil only when the run reaches COMPLETED.
func (o *Orchestrator) Run(ctx context.Context, restorePointInput string) error {
	startedAt := o.now()
	runID := status.NewRunID(startedAt)
	log := o.log.WithField("run_id", runID)

	tableSet, err := o.cfg.TableSet()
	if err != nil {
		return err
	}

	rec := status.Record{
		RunID:        runID,
		State:        status.StateInitializing,
		RestorePoint: restorePointInput,
		StartedAt:    startedAt,
		Environment:  o.cfg.Environment,
		Tables:       tableSet,
	}
	o.writeStatus(log, rec)

	log.Info("Starting DynamoDB restore", "restore_point", restorePointInput, "environment", o.cfg.Environment)
	if o.cfg.DryRun {
		log.Info("DRY RUN MODE - no changes will be made")
	}

	fail := func(err error) error {
		o.state = StateFailed
		rec.State = status.StateFailed
		rec.ErrorMessage = errors.Reason(err)
		o.writeStatus(log, rec)
		return err
	}

	// The lock guards everything from validation to cleanup. Release on
	// every exit path.
	execLock := lock.New(o.cfg.LockFile, log)
	if err := execLock.Acquire(ctx, o.lockTimeout); err != nil {
		return fail(err)
	}
	defer execLock.Release()

	point, err := restorepoint.ParseAndValidate(restorePointInput, o.cfg.DefaultZone, o.now())
	if err != nil {
		log.Error("Restore point validation failed", "error", errors.Reason(err))
		return fail(err)
	}
	if point.ZoneApplied != "" {
		log.Info("No timezone in restore point, default zone applied", "zone", point.ZoneApplied)
	}
	log.Info("Restore point validated",
		"instant_utc", point.Instant.Format(time.RFC3339),
		"age_days", int(o.now().Sub(point.Instant).Hours()/24))

	if o.state, err = Transition(o.state, StateRestoringOrReusing); err != nil {
		return fail(err)
	}
	restoreTables := naming.RestoreTableNames(tableSet, point)
	if err := o.restoreOrReuse(ctx, log, tableSet, restoreTables, point); err != nil {
		return fail(err)
	}

	if o.state, err = Transition(o.state, StatePolling); err != nil {
		return fail(err)
	}
	if err := o.pollUntilReady(ctx, log, restoreTables); err != nil {
		// Restore tables stay in place for inspection and resumed runs.
		return fail(err)
	}

	if o.state, err = Transition(o.state, StateVerifying); err != nil {
		return fail(err)
	}
	o.checkCounts(ctx, log, tableSet, restoreTables)

	if o.state, err = Transition(o.state, StateSwapping); err != nil {
		return fail(err)
	}
	if err := o.swapAll(ctx, log, tableSet, restoreTables); err != nil {
		return fail(err)
	}

	if o.state, err = Transition(o.state, StateCleaningUp); err != nil {
		return fail(err)
	}
	if err := o.deleteRestoreTables(ctx, log, restoreTables); err != nil {
		// Hygiene, not correctness: the swap already succeeded.
		log.Warn("Some restore tables could not be deleted", "error", err)
	}

	if o.state, err = Transition(o.state, StateCompleted); err != nil {
		return fail(err)
	}
	rec.State = status.StateCompleted
	o.writeStatus(log, rec)
	log.Info("Restore completed successfully")
	return nil
}

// writeStatus persists a lifecycle transition. Status persistence failures
// never interrupt the pipeline.
func (o *Orchestrator) writeStatus(log logger.Logger, rec status.Record) {
	if err := o.status.Write(rec); err != nil {
		log.Warn("Failed to update status file", "error", err)
		return
	}
	log.Info("Status updated", "status", rec.State)
}
