package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// batchAPI fakes only BatchWriteItem; the rest of the API is unused here.
type batchAPI struct {
	API
	calls     int
	responses []func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
}

func (f *batchAPI) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.calls >= len(f.responses) {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp(params)
}

func putRequests(n int) []types.WriteRequest {
	reqs := make([]types.WriteRequest, n)
	for i := range reqs {
		reqs[i] = types.WriteRequest{
			PutRequest: &types.PutRequest{
				Item: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: fmt.Sprintf("item-%d", i)},
				},
			},
		}
	}
	return reqs
}

func TestWriteBatch_Empty(t *testing.T) {
	api := &batchAPI{}
	if err := WriteBatch(context.Background(), api, "quotes", nil); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if api.calls != 0 {
		t.Errorf("expected no calls for empty batch, got %d", api.calls)
	}
}

func TestWriteBatch_OverLimit(t *testing.T) {
	api := &batchAPI{}
	if err := WriteBatch(context.Background(), api, "quotes", putRequests(26)); err == nil {
		t.Fatal("expected error for oversized batch")
	}
}

func TestWriteBatch_RetriesUnprocessed(t *testing.T) {
	leftover := putRequests(3)
	api := &batchAPI{
		responses: []func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error){
			func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				if got := len(in.RequestItems["quotes"]); got != 10 {
					t.Errorf("first call carried %d requests, want 10", got)
				}
				return &dynamodb.BatchWriteItemOutput{
					UnprocessedItems: map[string][]types.WriteRequest{"quotes": leftover},
				}, nil
			},
			func(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				if got := len(in.RequestItems["quotes"]); got != 3 {
					t.Errorf("retry carried %d requests, want 3", got)
				}
				return &dynamodb.BatchWriteItemOutput{}, nil
			},
		},
	}

	if err := WriteBatch(context.Background(), api, "quotes", putRequests(10)); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if api.calls != 2 {
		t.Errorf("expected 2 calls, got %d", api.calls)
	}
}

func TestWriteBatch_PermanentFailure(t *testing.T) {
	apiErr := errors.New("ValidationException: invalid item")
	api := &batchAPI{
		responses: []func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error){
			func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
				return nil, apiErr
			},
		},
	}

	err := WriteBatch(context.Background(), api, "quotes", putRequests(5))
	if !errors.Is(err, apiErr) {
		t.Fatalf("expected permanent failure %v, got %v", apiErr, err)
	}
	if api.calls != 1 {
		t.Errorf("non-throttle errors must not be retried, got %d calls", api.calls)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&types.ResourceNotFoundException{Message: aws.String("missing")}) {
		t.Error("expected typed not-found to match")
	}
	if IsNotFound(errors.New("something else")) {
		t.Error("plain error should not match")
	}
	wrapped := fmt.Errorf("operation failed: %w", &types.ResourceNotFoundException{})
	if !IsNotFound(wrapped) {
		t.Error("wrapped not-found should match")
	}
}

func TestIsInvalidRestoreTime(t *testing.T) {
	if !IsInvalidRestoreTime(&types.InvalidRestoreTimeException{}) {
		t.Error("expected typed invalid-restore-time to match")
	}
	if IsInvalidRestoreTime(&types.ResourceNotFoundException{}) {
		t.Error("not-found should not match")
	}
}

func TestIsThrottle(t *testing.T) {
	if !IsThrottle(&types.ProvisionedThroughputExceededException{}) {
		t.Error("expected throughput exception to match")
	}
	if IsThrottle(errors.New("boom")) {
		t.Error("plain error should not match")
	}
}
