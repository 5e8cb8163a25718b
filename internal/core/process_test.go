package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/delivery/internal/model"
)

func newProcessService(db *mockDB) *ProcessService {
	return NewProcessService(db, NewBus())
}

// ---------- Create ----------

func TestProcessService_Create_MissingCustomer(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)

	p, err := svc.Create(context.Background(), 0, 2, []int64{1}, 7)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestProcessService_Create_EmptyModuleSelection(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)

	p, err := svc.Create(context.Background(), 1, 2, nil, 7)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestProcessService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 42
		*(dest[1].(*time.Time)) = now
		*(dest[2].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	p, err := svc.Create(ctx, 1, 2, []int64{10, 11}, 7)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, model.StatusInit, p.Status)
	assert.Equal(t, int64(7), p.CreatedBy)
	// Two module rows plus the creator membership.
	db.AssertNumberOfCalls(t, "Exec", 3)
	db.AssertExpectations(t)
}

func TestProcessService_Create_DBError(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("connection lost")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	p, err := svc.Create(ctx, 1, 2, []int64{10}, 7)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "create process")
	db.AssertExpectations(t)
}

// ---------- SetStatus ----------

func TestProcessService_SetStatus_InvalidValue(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)

	err := svc.SetStatus(context.Background(), 1, "CANCELLED", false)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	db.AssertExpectations(t)
}

func TestProcessService_SetStatus_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := svc.SetStatus(ctx, 99, model.StatusPending, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

func TestProcessService_SetStatus_SkipRejected(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanOne(model.StatusInit)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := svc.SetStatus(ctx, 1, model.StatusDone, false)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestProcessService_SetStatus_Forward(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanOne(model.StatusPending)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.SetStatus(ctx, 1, model.StatusInProgress, false)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestProcessService_SetStatus_ForceJump(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: scanOne(model.StatusInit)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.SetStatus(ctx, 1, model.StatusDone, true)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

// ---------- GetByID ----------

func TestProcessService_GetByID_Success(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 5
		*(dest[1].(*model.ProcessStatus)) = model.StatusInProgress
		*(dest[2].(*int64)) = 1
		*(dest[3].(*int64)) = 2
		*(dest[4].(*int64)) = 7
		*(dest[5].(*time.Time)) = now
		*(dest[6].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	p, err := svc.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
	assert.Equal(t, model.StatusInProgress, p.Status)
	db.AssertExpectations(t)
}

func TestProcessService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	p, err := svc.GetByID(ctx, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

// ---------- List ----------

func TestProcessService_List_Success(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	countRow := &mockRow{scanFunc: scanOne(int64(2))}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(countRow)

	now := time.Now().Truncate(time.Microsecond)
	procRow := func(id int64, status model.ProcessStatus) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*int64)) = id
			*(dest[1].(*model.ProcessStatus)) = status
			*(dest[2].(*int64)) = 1
			*(dest[3].(*int64)) = 2
			*(dest[4].(*int64)) = 7
			*(dest[5].(*time.Time)) = now
			*(dest[6].(*time.Time)) = now
			return nil
		}
	}
	rows := newMockRows(procRow(1, model.StatusInit), procRow(2, model.StatusDone))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	procs, total, err := svc.List(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, procs, 2)
	assert.Equal(t, model.StatusDone, procs[1].Status)
	db.AssertExpectations(t)
}

func TestProcessService_List_QueryError(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	countRow := &mockRow{scanFunc: scanOne(int64(0))}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(countRow)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil, errors.New("db error"))

	procs, _, err := svc.List(ctx, 0, 20)
	require.Error(t, err)
	assert.Nil(t, procs)
	assert.Contains(t, err.Error(), "list processes")
	db.AssertExpectations(t)
}

// ---------- MemberIDs ----------

func TestProcessService_MemberIDs_Success(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	rows := newMockRows(scanOne(int64(7)), scanOne(int64(9)))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	ids, err := svc.MemberIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, ids)
	db.AssertExpectations(t)
}

// ---------- Delete ----------

func TestProcessService_Delete_Referenced(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 3
		*(dest[1].(*int64)) = 1
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := svc.Delete(ctx, 1)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestProcessService_Delete_Success(t *testing.T) {
	db := &mockDB{}
	svc := newProcessService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 0
		*(dest[1].(*int64)) = 0
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	db.AssertNumberOfCalls(t, "Exec", 3)
	db.AssertExpectations(t)
}
