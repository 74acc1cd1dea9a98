package autotask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedOperationType = errors.New("unsupported operation type")
	ErrBatchItemRequired        = errors.New("operation requires an item")
	ErrTransactionFailed        = errors.New("transaction failed")
)

// BatchOperationType names what a batch operation does.
type BatchOperationType string

// Batch operation types.
const (
	BatchCreate BatchOperationType = constants.OperationCreate
	BatchGet    BatchOperationType = constants.OperationGet
	BatchUpdate BatchOperationType = constants.OperationUpdate
	BatchPatch  BatchOperationType = constants.OperationPatch
	BatchDelete BatchOperationType = constants.OperationDelete
)

// BatchOperation represents a single operation in a batch.
type BatchOperation[T any] struct {
	ID       string
	Type     BatchOperationType
	EntityID int64
	Item     *T
	Fields   map[string]interface{}
	Callback func(result *BatchResult[T])
}

// BatchResult represents the result of a batch operation.
type BatchResult[T any] struct {
	ID       string
	Success  bool
	ItemID   int64
	Item     *T
	Error    error
	Duration time.Duration
}

// BatchExecutor runs operations against one entity with bounded concurrency.
// Every operation still goes through the client's rate limiter, so the limit
// here only caps in-flight goroutines.
type BatchExecutor[T any] struct {
	client      EntityClient[T]
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor[T any](client EntityClient[T], concurrency int) *BatchExecutor[T] {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor[T]{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for each operation.
func (b *BatchExecutor[T]) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs a batch of operations. Individual failures are reported in
// the results; the returned error is only set when ctx is cancelled.
func (b *BatchExecutor[T]) Execute(ctx context.Context, operations []BatchOperation[T]) ([]BatchResult[T], error) {
	results := make([]BatchResult[T], len(operations))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)

	for index, operation := range operations {
		group.Go(func() error {
			opCtx, cancel := context.WithTimeout(groupCtx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}

			return nil
		})
	}

	_ = group.Wait()

	err := ctx.Err()
	if err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}

	return results, nil
}

func (b *BatchExecutor[T]) executeOperation(ctx context.Context, operation BatchOperation[T]) *BatchResult[T] {
	result := &BatchResult[T]{ID: operation.ID, ItemID: operation.EntityID}

	var err error

	switch operation.Type {
	case BatchCreate:
		if operation.Item == nil {
			err = ErrBatchItemRequired

			break
		}

		result.ItemID, err = b.client.Create(ctx, operation.Item)
	case BatchGet:
		result.Item, err = b.client.Get(ctx, operation.EntityID)
	case BatchUpdate:
		if operation.Item == nil {
			err = ErrBatchItemRequired

			break
		}

		result.ItemID, err = b.client.Update(ctx, operation.Item)
	case BatchPatch:
		result.ItemID, err = b.client.Patch(ctx, operation.EntityID, operation.Fields)
	case BatchDelete:
		err = b.client.Delete(ctx, operation.EntityID)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedOperationType, operation.Type)
	}

	result.Success = err == nil
	result.Error = err

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder[T any] struct {
	operations []BatchOperation[T]
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder[T any]() *BatchBuilder[T] {
	return &BatchBuilder[T]{operations: make([]BatchOperation[T], 0)}
}

// AddCreate adds a create operation.
func (b *BatchBuilder[T]) AddCreate(id string, item *T) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: BatchCreate, Item: item})
}

// AddGet adds a get operation.
func (b *BatchBuilder[T]) AddGet(id string, entityID int64) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: BatchGet, EntityID: entityID})
}

// AddUpdate adds a full update operation.
func (b *BatchBuilder[T]) AddUpdate(id string, item *T) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: BatchUpdate, Item: item})
}

// AddPatch adds a partial update operation.
func (b *BatchBuilder[T]) AddPatch(id string, entityID int64, fields map[string]interface{}) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: BatchPatch, EntityID: entityID, Fields: fields})
}

// AddDelete adds a delete operation.
func (b *BatchBuilder[T]) AddDelete(id string, entityID int64) *BatchBuilder[T] {
	return b.AddOperation(BatchOperation[T]{ID: id, Type: BatchDelete, EntityID: entityID})
}

// AddOperation adds a custom operation.
func (b *BatchBuilder[T]) AddOperation(operation BatchOperation[T]) *BatchBuilder[T] {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the built operations.
func (b *BatchBuilder[T]) Build() []BatchOperation[T] {
	return b.operations
}

// BatchTransaction runs a batch and, when any operation fails, deletes what
// the batch created. Updates and deletes cannot be undone.
type BatchTransaction[T any] struct {
	operations []BatchOperation[T]
	executor   *BatchExecutor[T]
	rollback   bool
}

// NewBatchTransaction creates a new batch transaction.
func NewBatchTransaction[T any](executor *BatchExecutor[T]) *BatchTransaction[T] {
	return &BatchTransaction[T]{
		executor:   executor,
		operations: make([]BatchOperation[T], 0),
		rollback:   true,
	}
}

// Add adds an operation to the transaction.
func (t *BatchTransaction[T]) Add(operation BatchOperation[T]) *BatchTransaction[T] {
	t.operations = append(t.operations, operation)

	return t
}

// SetRollback sets whether to rollback on failure.
func (t *BatchTransaction[T]) SetRollback(rollback bool) *BatchTransaction[T] {
	t.rollback = rollback

	return t
}

// Execute executes the transaction.
func (t *BatchTransaction[T]) Execute(ctx context.Context) ([]BatchResult[T], error) {
	results, err := t.executor.Execute(ctx, t.operations)
	if err != nil {
		return results, err
	}

	var failedOps []string

	for _, result := range results {
		if !result.Success {
			failedOps = append(failedOps, result.ID)
		}
	}

	if len(failedOps) == 0 {
		return results, nil
	}

	if t.rollback {
		t.performRollback(ctx, results)
	}

	return results, fmt.Errorf("%w, %d operations failed: %v", ErrTransactionFailed, len(failedOps), failedOps)
}

func (t *BatchTransaction[T]) performRollback(ctx context.Context, results []BatchResult[T]) {
	var rollbackOps []BatchOperation[T]

	for i, result := range results {
		if result.Success && t.operations[i].Type == BatchCreate && result.ItemID > 0 {
			rollbackOps = append(rollbackOps, BatchOperation[T]{
				ID:       "rollback_" + result.ID,
				Type:     BatchDelete,
				EntityID: result.ItemID,
			})
		}
	}

	if len(rollbackOps) > 0 {
		_, _ = t.executor.Execute(ctx, rollbackOps)
	}
}
