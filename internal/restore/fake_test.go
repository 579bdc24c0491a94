package restore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is an in-memory table keyed by its partition key value.
type fakeTable struct {
	status        types.TableStatus
	keyName       string
	items         map[string]map[string]types.AttributeValue
	activateAfter int // DescribeTable calls until the table turns ACTIVE
}

func (t *fakeTable) sortedKeys() []string {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fakeDynamo implements dynamo.API against in-memory tables.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string]*fakeTable

	// snapshots holds the items a point-in-time restore of a source table
	// materializes in its target table.
	snapshots map[string]map[string]map[string]types.AttributeValue

	scanPageSize int // 0 = everything in one page

	failRestoreInvalidTime bool
	pitrEarliest           time.Time
	pitrLatest             time.Time
	failBatchWrite         bool
	failDeleteTable        map[string]bool

	restoreCalls  []string
	mutatingCalls int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables:          map[string]*fakeTable{},
		snapshots:       map[string]map[string]map[string]types.AttributeValue{},
		failDeleteTable: map[string]bool{},
	}
}

func item(id string, extra ...string) map[string]types.AttributeValue {
	m := map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
	for i := 0; i+1 < len(extra); i += 2 {
		m[extra[i]] = &types.AttributeValueMemberS{Value: extra[i+1]}
	}
	return m
}

func (f *fakeDynamo) addTable(name string, ids ...string) *fakeTable {
	t := &fakeTable{
		status:  types.TableStatusActive,
		keyName: "id",
		items:   map[string]map[string]types.AttributeValue{},
	}
	for _, id := range ids {
		t.items[id] = item(id)
	}
	f.tables[name] = t
	return t
}

func (f *fakeDynamo) setSnapshot(source string, ids ...string) {
	snap := map[string]map[string]types.AttributeValue{}
	for _, id := range ids {
		snap[id] = item(id)
	}
	f.snapshots[source] = snap
}

func (f *fakeDynamo) itemIDs(table string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return nil
	}
	return t.sortedKeys()
}

func (f *fakeDynamo) hasTable(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tables[name]
	return ok
}

func keyValue(item map[string]types.AttributeValue, keyName string) (string, error) {
	attr, ok := item[keyName]
	if !ok {
		return "", fmt.Errorf("missing key attribute %q", keyName)
	}
	s, ok := attr.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("key attribute %q is not a string", keyName)
	}
	return s.Value, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}

	if t.status != types.TableStatusActive {
		if t.activateAfter > 0 {
			t.activateAfter--
		}
		if t.activateAfter == 0 {
			t.status = types.TableStatusActive
		}
	}

	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: t.status,
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(t.keyName), KeyType: types.KeyTypeHash},
			},
		},
	}, nil
}

func (f *fakeDynamo) DescribeContinuousBackups(_ context.Context, params *dynamodb.DescribeContinuousBackupsInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeContinuousBackupsOutput, error) {
	return &dynamodb.DescribeContinuousBackupsOutput{
		ContinuousBackupsDescription: &types.ContinuousBackupsDescription{
			PointInTimeRecoveryDescription: &types.PointInTimeRecoveryDescription{
				EarliestRestorableDateTime: aws.Time(f.pitrEarliest),
				LatestRestorableDateTime:   aws.Time(f.pitrLatest),
			},
		},
	}, nil
}

func (f *fakeDynamo) RestoreTableToPointInTime(_ context.Context, params *dynamodb.RestoreTableToPointInTimeInput, _ ...func(*dynamodb.Options)) (*dynamodb.RestoreTableToPointInTimeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mutatingCalls++
	if f.failRestoreInvalidTime {
		return nil, &types.InvalidRestoreTimeException{Message: aws.String("An invalid restore time was specified")}
	}

	source := aws.ToString(params.SourceTableName)
	target := aws.ToString(params.TargetTableName)
	f.restoreCalls = append(f.restoreCalls, target)

	items := map[string]map[string]types.AttributeValue{}
	for id, it := range f.snapshots[source] {
		items[id] = it
	}
	f.tables[target] = &fakeTable{
		status:        types.TableStatusCreating,
		keyName:       "id",
		items:         items,
		activateAfter: 2,
	}
	return &dynamodb.RestoreTableToPointInTimeOutput{}, nil
}

func (f *fakeDynamo) ListTables(_ context.Context, params *dynamodb.ListTablesInput, _ ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return &dynamodb.ListTablesOutput{TableNames: names}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tables[aws.ToString(params.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}

	keys := t.sortedKeys()

	start := 0
	if params.ExclusiveStartKey != nil {
		after, err := keyValue(params.ExclusiveStartKey, t.keyName)
		if err != nil {
			return nil, err
		}
		for i, k := range keys {
			if k == after {
				start = i + 1
				break
			}
		}
	}

	end := len(keys)
	if f.scanPageSize > 0 && start+f.scanPageSize < end {
		end = start + f.scanPageSize
	}

	out := &dynamodb.ScanOutput{Count: int32(end - start)}
	if params.Select != types.SelectCount {
		for _, k := range keys[start:end] {
			out.Items = append(out.Items, t.items[k])
		}
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			t.keyName: &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mutatingCalls++
	if f.failBatchWrite {
		return nil, fmt.Errorf("ValidationException: batch write refused")
	}

	for table, requests := range params.RequestItems {
		t, ok := f.tables[table]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
		}
		if len(requests) > 25 {
			return nil, fmt.Errorf("too many items in batch: %d", len(requests))
		}
		for _, req := range requests {
			switch {
			case req.DeleteRequest != nil:
				id, err := keyValue(req.DeleteRequest.Key, t.keyName)
				if err != nil {
					return nil, err
				}
				delete(t.items, id)
			case req.PutRequest != nil:
				id, err := keyValue(req.PutRequest.Item, t.keyName)
				if err != nil {
					return nil, err
				}
				t.items[id] = req.PutRequest.Item
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeDynamo) DeleteTable(_ context.Context, params *dynamodb.DeleteTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mutatingCalls++
	name := aws.ToString(params.TableName)
	if f.failDeleteTable[name] {
		return nil, fmt.Errorf("ResourceInUseException: table busy")
	}
	if _, ok := f.tables[name]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	delete(f.tables, name)
	return &dynamodb.DeleteTableOutput{}, nil
}
