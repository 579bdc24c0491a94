package restore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/dynamo"
	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
	"github.com/edwinbulter/quote-lambda-tf/internal/naming"
	"github.com/edwinbulter/quote-lambda-tf/internal/restorepoint"
)

// restoreOrReuse decides between reusing restore tables of a prior run with
// the same recovery point and initiating a fresh restore. Because table
// names derive from the recovery point, a re-run finds its predecessor's
// tables under exactly the names it would have chosen itself.
func (o *Orchestrator) restoreOrReuse(ctx context.Context, log logger.Logger, tableSet, restoreTables map[string]string, point restorepoint.Point) error {
	existing := o.existingRestoreTables(ctx, log, restoreTables)

	if len(existing) > 0 {
		log.Info("Found existing restore tables for this restore point", "count", len(existing))
		allActive := true
		for name, tableStatus := range existing {
			log.Info("Existing restore table", "table", name, "status", tableStatus)
			if tableStatus != types.TableStatusActive {
				allActive = false
			}
		}
		if allActive && len(existing) == len(restoreTables) {
			log.Info("All restore tables already exist and are ACTIVE, skipping restore initiation")
		} else {
			log.Info("Some restore tables exist but are not ACTIVE, waiting for them instead of re-triggering")
		}
		// Either way, initiation is skipped; polling settles the rest.
		return nil
	}

	if err := o.sweepStaleRestoreTables(ctx, log, tableSet, restoreTables); err != nil {
		return err
	}

	return o.initiateAll(ctx, log, tableSet, restoreTables, point)
}

// existingRestoreTables describes the recovery-point-derived table names and
// returns those that exist, with their status.
func (o *Orchestrator) existingRestoreTables(ctx context.Context, log logger.Logger, restoreTables map[string]string) map[string]types.TableStatus {
	existing := make(map[string]types.TableStatus)
	for _, name := range restoreTables {
		out, err := o.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(name),
		})
		if err != nil {
			if dynamo.IsNotFound(err) {
				continue
			}
			log.Warn("Error checking restore table", "table", name, "error", err)
			continue
		}
		existing[name] = out.Table.TableStatus
	}
	return existing
}

// sweepStaleRestoreTables removes restore tables left behind by runs that
// targeted a different recovery point. They would otherwise leak storage and
// could collide with later runs.
func (o *Orchestrator) sweepStaleRestoreTables(ctx context.Context, log logger.Logger, tableSet, restoreTables map[string]string) error {
	allTables, err := o.listAllTables(ctx)
	if err != nil {
		log.Warn("Error checking for stale restore tables", "error", err)
		return nil
	}

	stale := naming.StaleRestoreTables(allTables, tableSet, restoreTables)
	if len(stale) == 0 {
		return nil
	}

	log.Warn("Found stale restore tables from previous runs", "count", len(stale))
	for _, name := range stale {
		log.Warn("Stale restore table", "table", name)
	}

	if o.cfg.DryRun {
		log.Info("[DRY RUN] Would delete stale restore tables")
		return nil
	}

	for _, name := range stale {
		log.Info("Deleting stale restore table", "table", name)
		if _, err := o.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)}); err != nil {
			log.Error("Failed to delete stale restore table", "table", name, "error", err)
		}
	}

	// Give deletions a moment before reusing the namespace.
	log.Info("Waiting for table deletions to settle", "wait", o.settleWait.String())
	select {
	case <-time.After(o.settleWait):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// listAllTables follows the ListTables pagination cursor to exhaustion.
func (o *Orchestrator) listAllTables(ctx context.Context) ([]string, error) {
	var names []string
	var start *string
	for {
		out, err := o.api.ListTables(ctx, &dynamodb.ListTablesInput{
			ExclusiveStartTableName: start,
		})
		if err != nil {
			return nil, err
		}
		names = append(names, out.TableNames...)
		if out.LastEvaluatedTableName == nil {
			return names, nil
		}
		start = out.LastEvaluatedTableName
	}
}

// initiateAll starts a point-in-time restore for every table in the set.
func (o *Orchestrator) initiateAll(ctx context.Context, log logger.Logger, tableSet, restoreTables map[string]string, point restorepoint.Point) error {
	for _, role := range config.Roles() {
		original := tableSet[role]
		target := restoreTables[role]

		if o.cfg.DryRun {
			log.Info("[DRY RUN] Would restore table", "source", original, "target", target)
			continue
		}

		log.Info("Initiating point-in-time restore", "source", original, "target", target,
			"restore_time_utc", point.Instant.Format(time.RFC3339))

		_, err := o.api.RestoreTableToPointInTime(ctx, &dynamodb.RestoreTableToPointInTimeInput{
			SourceTableName:     aws.String(original),
			TargetTableName:     aws.String(target),
			RestoreDateTime:     aws.Time(point.Instant),
			BillingModeOverride: types.BillingModePayPerRequest,
		})
		if err != nil {
			if dynamo.IsInvalidRestoreTime(err) {
				return o.invalidRestoreTimeError(ctx, log, original, err)
			}
			return errors.RestoreRejected(original, err)
		}
		log.Info("Restore initiated", "target", target)
	}
	return nil
}

// invalidRestoreTimeError enriches a restore-window rejection with the
// table's actual restorable bounds, so the operator can pick a valid point
// without digging through the console.
func (o *Orchestrator) invalidRestoreTimeError(ctx context.Context, log logger.Logger, table string, cause error) error {
	var earliest, latest string

	out, err := o.api.DescribeContinuousBackups(ctx, &dynamodb.DescribeContinuousBackupsInput{
		TableName: aws.String(table),
	})
	if err == nil && out.ContinuousBackupsDescription != nil &&
		out.ContinuousBackupsDescription.PointInTimeRecoveryDescription != nil {
		pitr := out.ContinuousBackupsDescription.PointInTimeRecoveryDescription
		loc, locErr := time.LoadLocation(o.cfg.DefaultZone)
		if locErr != nil {
			loc = time.UTC
		}
		if pitr.EarliestRestorableDateTime != nil {
			earliest = pitr.EarliestRestorableDateTime.In(loc).Format("2006-01-02 15:04:05 MST")
		}
		if pitr.LatestRestorableDateTime != nil {
			latest = pitr.LatestRestorableDateTime.In(loc).Format("2006-01-02 15:04:05 MST")
		}
	}

	log.Error("Restore point outside the restorable window", "table", table,
		"earliest", earliest, "latest", latest)
	return errors.InvalidRestoreTime(table, earliest, latest, cause)
}

// pollUntilReady waits for every restore table to report ACTIVE, checking on
// a fixed interval until the configured timeout. A table that does not exist
// yet counts as not ready. Each table is logged once when it becomes ACTIVE.
// Partial readiness at the deadline is a hard failure; nothing is touched
// until every table is ready.
func (o *Orchestrator) pollUntilReady(ctx context.Context, log logger.Logger, restoreTables map[string]string) error {
	if o.cfg.DryRun {
		log.Info("[DRY RUN] Would poll restore tables until ACTIVE")
		return nil
	}

	timeout := time.Duration(o.cfg.TimeoutMinutes) * time.Minute
	deadline := o.now().Add(timeout)
	start := o.now()

	log.Info("Polling restore status",
		"interval", o.pollInterval.String(), "timeout_minutes", o.cfg.TimeoutMinutes)

	active := make(map[string]bool, len(restoreTables))

	for {
		elapsed := int(o.now().Sub(start).Seconds())

		for _, role := range config.Roles() {
			name := restoreTables[role]
			if active[name] {
				continue
			}

			out, err := o.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
				TableName: aws.String(name),
			})
			if err != nil {
				if dynamo.IsNotFound(err) {
					log.Info("Restore table not created yet", "table", name, "elapsed_s", elapsed)
					continue
				}
				return errors.RestoreRejected(name, err)
			}

			if out.Table.TableStatus == types.TableStatusActive {
				active[name] = true
				log.Info("Restore table is now ACTIVE", "table", name, "elapsed_s", elapsed)
			} else {
				log.Info("Restore table not ready", "table", name,
					"status", string(out.Table.TableStatus), "elapsed_s", elapsed)
			}
		}

		if len(active) == len(restoreTables) {
			log.Info("All restore tables are ACTIVE", "elapsed_s", elapsed)
			return nil
		}

		if !o.now().Add(o.pollInterval).Before(deadline) {
			var pending []string
			for _, name := range restoreTables {
				if !active[name] {
					pending = append(pending, name)
				}
			}
			log.Error("Restore operation timed out", "timeout_minutes", o.cfg.TimeoutMinutes)
			return errors.PollTimeout(o.cfg.TimeoutMinutes, pending)
		}

		select {
		case <-time.After(o.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
