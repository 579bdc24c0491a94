package restore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hashicorp/go-multierror"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

// deleteRestoreTables removes the temporary restore tables after a
// successful swap. Best-effort: one table's failure does not stop the
// others, and the aggregate failure is a warning, never a run failure.
func (o *Orchestrator) deleteRestoreTables(ctx context.Context, log logger.Logger, restoreTables map[string]string) error {
	log.Info("Deleting restore tables")

	var failures *multierror.Error
	for _, role := range config.Roles() {
		name := restoreTables[role]

		if o.cfg.DryRun {
			log.Info("[DRY RUN] Would delete restore table", "table", name)
			continue
		}

		log.Info("Deleting restore table", "table", name)
		if _, err := o.api.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)}); err != nil {
			log.Warn("Failed to delete restore table", "table", name, "error", err)
			failures = multierror.Append(failures, err)
			continue
		}
		log.Info("Deleted restore table", "table", name)
	}

	if err := failures.ErrorOrNil(); err != nil {
		return errors.CleanupIncomplete(err)
	}
	return nil
}
