package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

// MaxBatchWriteItems is the provider's hard limit on operations per
// BatchWriteItem request.
const MaxBatchWriteItems = 25

// WriteBatch issues one BatchWriteItem call for up to MaxBatchWriteItems
// requests against a single table, retrying unprocessed items with
// exponential backoff until they drain or the retry window closes.
// Unprocessed items are how DynamoDB signals throttling on batch writes.
func WriteBatch(ctx context.Context, api API, table string, requests []types.WriteRequest) error {
	if len(requests) == 0 {
		return nil
	}
	if len(requests) > MaxBatchWriteItems {
		return fmt.Errorf("batch of %d exceeds the %d-item limit", len(requests), MaxBatchWriteItems)
	}

	pending := map[string][]types.WriteRequest{table: requests}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 100 * time.Millisecond
	expBackoff.MaxInterval = 5 * time.Second
	expBackoff.MaxElapsedTime = 60 * time.Second

	operation := func() error {
		out, err := api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			if IsThrottle(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(out.UnprocessedItems) > 0 {
			pending = out.UnprocessedItems
			return fmt.Errorf("%d items unprocessed", countRequests(out.UnprocessedItems))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(expBackoff, ctx))
}

func countRequests(items map[string][]types.WriteRequest) int {
	n := 0
	for _, reqs := range items {
		n += len(reqs)
	}
	return n
}

// IsNotFound reports whether the error is the provider's table-not-found
// response. During restore polling this means not-yet-created, not a failure.
func IsNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// IsInvalidRestoreTime reports whether the provider rejected a restore
// because the requested instant is outside the table's restorable window.
func IsInvalidRestoreTime(err error) bool {
	var invalid *types.InvalidRestoreTimeException
	return errors.As(err, &invalid)
}

// IsThrottle reports whether the error is a throughput/throttling rejection
// worth retrying.
func IsThrottle(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "RequestLimitExceeded":
			return true
		}
	}
	return false
}
