package restore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dustin/go-humanize"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

// checkCounts compares item counts between each production table and its
// restore table. Advisory only: production tables legitimately receive
// writes after the recovery point, so a restored count below the current one
// is expected and a mismatch must not block the swap. A restored count
// ABOVE the current one is anomalous for this append-mostly workload and is
// flagged for manual follow-up.
func (o *Orchestrator) checkCounts(ctx context.Context, log logger.Logger, tableSet, restoreTables map[string]string) {
	log.Info("Checking item counts")

	for _, role := range config.Roles() {
		original := tableSet[role]
		restored := restoreTables[role]

		if o.cfg.DryRun {
			log.Info("[DRY RUN] Would check counts", "table", original)
			continue
		}

		originalCount, err := o.countItems(ctx, original)
		if err != nil {
			log.Warn("Failed to count items", "table", original, "error", err)
			continue
		}
		restoredCount, err := o.countItems(ctx, restored)
		if err != nil {
			log.Warn("Failed to count items", "table", restored, "error", err)
			continue
		}

		switch {
		case restoredCount > originalCount:
			log.Warn("Restore table has MORE items than production table - verify manually",
				"table", role,
				"original", humanize.Comma(originalCount),
				"restored", humanize.Comma(restoredCount))
		case restoredCount < originalCount:
			log.Info("Restore table is smaller, expected for a past restore point",
				"table", role,
				"original", humanize.Comma(originalCount),
				"restored", humanize.Comma(restoredCount),
				"missing", humanize.Comma(originalCount-restoredCount))
		default:
			log.Info("Item counts match",
				"table", role, "count", humanize.Comma(originalCount))
		}
	}
}

// countItems counts a table's items with a COUNT scan, following the
// continuation cursor so tables larger than one scan page count correctly.
func (o *Orchestrator) countItems(ctx context.Context, table string) (int64, error) {
	var total int64
	var startKey map[string]types.AttributeValue

	for {
		out, err := o.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, err
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
