package restore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/dynamo"
	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
	"github.com/edwinbulter/quote-lambda-tf/internal/logger"
)

// swapAll replaces each production table's contents with its restore table's
// contents, one table at a time. A failure aborts the remaining tables;
// tables already swapped are not rolled back.
func (o *Orchestrator) swapAll(ctx context.Context, log logger.Logger, tableSet, restoreTables map[string]string) error {
	log.Info("Swapping data from restore tables into production tables")

	for _, role := range config.Roles() {
		original := tableSet[role]
		restored := restoreTables[role]

		if o.cfg.DryRun {
			log.Info("[DRY RUN] Would swap data", "table", original)
			continue
		}

		if err := o.swapTable(ctx, log, original, restored); err != nil {
			return err
		}
	}
	return nil
}

// swapTable clears the production table, then repopulates it from the
// restore table. The two phases are not atomic: a crash in between leaves
// the production table empty. Re-running with the same recovery point
// recovers, since the restore table still holds the full snapshot.
func (o *Orchestrator) swapTable(ctx context.Context, log logger.Logger, original, restored string) error {
	stage := log.StartStage("swap " + original)

	stage.Update("clearing production table")
	deleted, err := o.clearTable(ctx, original)
	if err != nil {
		stage.Fail("clear failed")
		return errors.SwapFailed(errors.ErrCodeClearFailed, original, err)
	}
	stage.Update("cleared", "items_deleted", deleted)

	stage.Update("copying from restore table", "source", restored)
	written, err := o.copyTable(ctx, restored, original)
	if err != nil {
		stage.Fail("copy failed")
		return errors.SwapFailed(errors.ErrCodeCopyFailed, original, err)
	}

	stage.Complete("swapped", "items_written", written)
	return nil
}

// clearTable deletes every item of a table in bounded batches. The table's
// key schema tells us which attributes address an item for deletion.
func (o *Orchestrator) clearTable(ctx context.Context, table string) (int, error) {
	keyNames, err := o.tableKeyNames(ctx, table)
	if err != nil {
		return 0, err
	}

	deleted := 0
	err = o.forEachBatch(ctx, table, table, func(item map[string]types.AttributeValue) (types.WriteRequest, error) {
		key := make(map[string]types.AttributeValue, len(keyNames))
		for _, name := range keyNames {
			attr, ok := item[name]
			if !ok {
				return types.WriteRequest{}, fmt.Errorf("item in %s is missing key attribute %q", table, name)
			}
			key[name] = attr
		}
		deleted++
		return types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}, nil
	})
	return deleted, err
}

// copyTable writes every item of the source table into the target table in
// bounded batches, returning the number of items written.
func (o *Orchestrator) copyTable(ctx context.Context, source, target string) (int, error) {
	written := 0
	err := o.forEachBatch(ctx, source, target, func(item map[string]types.AttributeValue) (types.WriteRequest, error) {
		written++
		return types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}, nil
	})
	return written, err
}

// forEachBatch pages through every item of scanTable and applies the batched
// write operation derived per item against writeTable. One combinator serves
// both the delete and the copy phase; only the request constructor differs.
func (o *Orchestrator) forEachBatch(ctx context.Context, scanTable, writeTable string, makeRequest func(map[string]types.AttributeValue) (types.WriteRequest, error)) error {
	batch := make([]types.WriteRequest, 0, dynamo.MaxBatchWriteItems)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := dynamo.WriteBatch(ctx, o.api, writeTable, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	var startKey map[string]types.AttributeValue
	for {
		out, err := o.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(scanTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("scan of %s failed: %w", scanTable, err)
		}

		for _, item := range out.Items {
			req, err := makeRequest(item)
			if err != nil {
				return err
			}
			batch = append(batch, req)
			if len(batch) == dynamo.MaxBatchWriteItems {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return flush()
}

// tableKeyNames reads a table's key schema and returns its key attribute
// names (partition key, and sort key when present).
func (o *Orchestrator) tableKeyNames(ctx context.Context, table string) ([]string, error) {
	out, err := o.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read key schema of %s: %w", table, err)
	}

	names := make([]string, 0, len(out.Table.KeySchema))
	for _, element := range out.Table.KeySchema {
		names = append(names, aws.ToString(element.AttributeName))
	}
	return names, nil
}
