package autotask_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

var errBoom = errors.New("boom")

// MockTicketClient implements autotask.EntityClient[autotask.Ticket] for testing.
type MockTicketClient struct {
	mock.Mock
}

func (m *MockTicketClient) Name() string {
	return "Tickets"
}

func (m *MockTicketClient) Get(ctx context.Context, id int64) (*autotask.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*autotask.Ticket), args.Error(1)
}

func (m *MockTicketClient) Query(ctx context.Context, query *autotask.Query) (*autotask.ListResponse[autotask.Ticket], error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*autotask.ListResponse[autotask.Ticket]), args.Error(1)
}

func (m *MockTicketClient) QueryAll(ctx context.Context, query *autotask.Query) ([]autotask.Ticket, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]autotask.Ticket), args.Error(1)
}

func (m *MockTicketClient) Iterate(ctx context.Context, query *autotask.Query) *autotask.PaginationIterator[autotask.Ticket] {
	args := m.Called(ctx, query)

	return args.Get(0).(*autotask.PaginationIterator[autotask.Ticket])
}

func (m *MockTicketClient) Count(ctx context.Context, query *autotask.Query) (int64, error) {
	args := m.Called(ctx, query)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketClient) Create(ctx context.Context, item *autotask.Ticket) (int64, error) {
	args := m.Called(ctx, item)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketClient) Update(ctx context.Context, item *autotask.Ticket) (int64, error) {
	args := m.Called(ctx, item)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketClient) Patch(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	args := m.Called(ctx, id, fields)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTicketClient) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockTicketClient) EntityInfo(ctx context.Context) (*autotask.EntityInformation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*autotask.EntityInformation), args.Error(1)
}

func (m *MockTicketClient) FieldInfo(ctx context.Context) ([]autotask.FieldInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]autotask.FieldInfo), args.Error(1)
}

func (m *MockTicketClient) Under(parentID int64) autotask.EntityClient[autotask.Ticket] {
	return m
}

func TestBatchExecutor_Execute(t *testing.T) {
	t.Parallel()

	mockClient := new(MockTicketClient)
	newTicket := &autotask.Ticket{Title: "Printer on fire"}
	existing := &autotask.Ticket{ID: 7, Title: "VPN down"}

	mockClient.On("Create", mock.Anything, newTicket).Return(int64(101), nil)
	mockClient.On("Get", mock.Anything, int64(7)).Return(existing, nil)
	mockClient.On("Patch", mock.Anything, int64(7), map[string]interface{}{"status": 5}).Return(int64(7), nil)
	mockClient.On("Delete", mock.Anything, int64(8)).Return(errBoom)

	var (
		mu       sync.Mutex
		callback []string
	)

	operations := autotask.NewBatchBuilder[autotask.Ticket]().
		AddCreate("create", newTicket).
		AddGet("get", 7).
		AddPatch("patch", 7, map[string]interface{}{"status": 5}).
		AddDelete("delete", 8).
		AddOperation(autotask.BatchOperation[autotask.Ticket]{
			ID:   "update-without-item",
			Type: autotask.BatchUpdate,
			Callback: func(result *autotask.BatchResult[autotask.Ticket]) {
				mu.Lock()
				defer mu.Unlock()

				callback = append(callback, result.ID)
			},
		}).
		Build()

	executor := autotask.NewBatchExecutor[autotask.Ticket](mockClient, 2)
	executor.SetTimeout(time.Second)

	results, err := executor.Execute(context.Background(), operations)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.True(t, results[0].Success)
	assert.Equal(t, int64(101), results[0].ItemID)

	assert.True(t, results[1].Success)
	assert.Equal(t, "VPN down", results[1].Item.Title)

	assert.True(t, results[2].Success)

	assert.False(t, results[3].Success)
	require.ErrorIs(t, results[3].Error, errBoom)

	assert.False(t, results[4].Success)
	require.ErrorIs(t, results[4].Error, autotask.ErrBatchItemRequired)
	assert.Equal(t, []string{"update-without-item"}, callback)

	mockClient.AssertExpectations(t)
}

func TestBatchExecutor_UnsupportedOperation(t *testing.T) {
	t.Parallel()

	mockClient := new(MockTicketClient)
	executor := autotask.NewBatchExecutor[autotask.Ticket](mockClient, 0)

	results, err := executor.Execute(context.Background(), []autotask.BatchOperation[autotask.Ticket]{
		{ID: "odd", Type: "merge"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Error, autotask.ErrUnsupportedOperationType)

	mockClient.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBatchExecutor_Cancelled(t *testing.T) {
	t.Parallel()

	mockClient := new(MockTicketClient)
	mockClient.On("Delete", mock.Anything, mock.Anything).Return(context.Canceled).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := autotask.NewBatchExecutor[autotask.Ticket](mockClient, 1)

	_, err := executor.Execute(ctx, autotask.NewBatchBuilder[autotask.Ticket]().AddDelete("d", 1).Build())
	require.ErrorIs(t, err, context.Canceled)
}

func TestBatchTransaction(t *testing.T) {
	t.Parallel()

	t.Run("succeeds without rollback", func(t *testing.T) {
		t.Parallel()

		mockClient := new(MockTicketClient)
		ticket := &autotask.Ticket{Title: "ok"}
		mockClient.On("Create", mock.Anything, ticket).Return(int64(1), nil)

		tx := autotask.NewBatchTransaction(autotask.NewBatchExecutor[autotask.Ticket](mockClient, 1))
		tx.Add(autotask.BatchOperation[autotask.Ticket]{ID: "c", Type: autotask.BatchCreate, Item: ticket})

		results, err := tx.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, results[0].Success)

		mockClient.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes created entities on failure", func(t *testing.T) {
		t.Parallel()

		mockClient := new(MockTicketClient)
		good := &autotask.Ticket{Title: "good"}
		bad := &autotask.Ticket{Title: "bad"}

		mockClient.On("Create", mock.Anything, good).Return(int64(55), nil)
		mockClient.On("Create", mock.Anything, bad).Return(int64(0), errBoom)
		mockClient.On("Delete", mock.Anything, int64(55)).Return(nil)

		tx := autotask.NewBatchTransaction(autotask.NewBatchExecutor[autotask.Ticket](mockClient, 1)).
			Add(autotask.BatchOperation[autotask.Ticket]{ID: "good", Type: autotask.BatchCreate, Item: good}).
			Add(autotask.BatchOperation[autotask.Ticket]{ID: "bad", Type: autotask.BatchCreate, Item: bad})

		_, err := tx.Execute(context.Background())
		require.ErrorIs(t, err, autotask.ErrTransactionFailed)
		assert.Contains(t, err.Error(), "bad")

		mockClient.AssertCalled(t, "Delete", mock.Anything, int64(55))
	})

	t.Run("keeps created entities when rollback disabled", func(t *testing.T) {
		t.Parallel()

		mockClient := new(MockTicketClient)
		good := &autotask.Ticket{Title: "good"}

		mockClient.On("Create", mock.Anything, good).Return(int64(56), nil)
		mockClient.On("Delete", mock.Anything, int64(9)).Return(errBoom)

		tx := autotask.NewBatchTransaction(autotask.NewBatchExecutor[autotask.Ticket](mockClient, 1)).
			SetRollback(false).
			Add(autotask.BatchOperation[autotask.Ticket]{ID: "good", Type: autotask.BatchCreate, Item: good}).
			Add(autotask.BatchOperation[autotask.Ticket]{ID: "del", Type: autotask.BatchDelete, EntityID: 9})

		_, err := tx.Execute(context.Background())
		require.ErrorIs(t, err, autotask.ErrTransactionFailed)

		mockClient.AssertNotCalled(t, "Delete", mock.Anything, int64(56))
	})
}
