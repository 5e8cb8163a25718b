package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/delivery/internal/model"
)

func newPhaseService(db *mockDB, blob BlobStore) *PhaseService {
	return NewPhaseService(db, NewBus(), blob)
}

// phaseScan builds a scan function for the joined phase row.
func phaseScan(id, processID int64, status model.ProcessStatus, start, end *time.Time) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*int64)) = id
		*(dest[1].(*int64)) = processID
		*(dest[2].(*int64)) = 1
		*(dest[3].(*int)) = 1
		*(dest[4].(*string)) = "install on site"
		*(dest[5].(*time.Time)) = now
		*(dest[6].(*time.Time)) = now.AddDate(0, 0, 7)
		*(dest[7].(**time.Time)) = start
		*(dest[8].(**time.Time)) = end
		*(dest[9].(*time.Time)) = now
		*(dest[10].(*time.Time)) = now
		*(dest[11].(*model.ProcessStatus)) = status
		*(dest[12].(*string)) = "Installation"
		return nil
	}
}

// ---------- Add ----------

func TestPhaseService_Add_DatesOutOfOrder(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})

	start := time.Now()
	p, err := svc.Add(context.Background(), 1, 1, 0, start, start.AddDate(0, 0, -1), "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestPhaseService_Add_ProcessNotInit(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	row := &mockRow{scanFunc: scanOne(model.StatusInProgress)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	start := time.Now()
	p, err := svc.Add(ctx, 1, 1, 0, start, start.AddDate(0, 0, 7), "")
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestPhaseService_Add_NumOrderTaken(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	statusRow := &mockRow{scanFunc: scanOne(model.StatusInit)}
	takenRow := &mockRow{scanFunc: scanOne(true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(statusRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(takenRow).Once()

	start := time.Now()
	p, err := svc.Add(ctx, 1, 1, 2, start, start.AddDate(0, 0, 7), "")
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestPhaseService_Add_Success(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	statusRow := &mockRow{scanFunc: scanOne(model.StatusInit)}
	takenRow := &mockRow{scanFunc: scanOne(false)}
	insertRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = 11
		*(dest[1].(*time.Time)) = now
		*(dest[2].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(statusRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(takenRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(insertRow).Once()

	p, err := svc.Add(ctx, 1, 1, 2, now, now.AddDate(0, 0, 7), "install on site")
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, 2, p.NumOrder)
	assert.False(t, p.Started())
	db.AssertExpectations(t)
}

// ---------- Start ----------

func TestPhaseService_Start_ProcessNotInProgress(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInit, nil, nil)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	p, err := svc.Start(ctx, 5, 7)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, p)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestPhaseService_Start_AlreadyStarted(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	p, err := svc.Start(ctx, 5, 7)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

func TestPhaseService_Start_NotAMember(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, nil, nil)}
	memberRow := &mockRow{scanFunc: scanOne(false)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()

	p, err := svc.Start(ctx, 5, 7)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, p)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestPhaseService_Start_Success(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, nil, nil)}
	memberRow := &mockRow{scanFunc: scanOne(true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	p, err := svc.Start(ctx, 5, 7)
	require.NoError(t, err)
	require.NotNil(t, p.ActualStartDate)
	assert.True(t, p.Started())
	assert.False(t, p.IsDone())
	// Date update and the history append.
	db.AssertNumberOfCalls(t, "Exec", 2)
	db.AssertExpectations(t)
}

func TestPhaseService_Start_HistoryFailureIsPartial(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, nil, nil)}
	memberRow := &mockRow{scanFunc: scanOne(true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("db down")).Once()

	p, err := svc.Start(ctx, 5, 7)
	require.Error(t, err)
	assert.True(t, IsPartialFailure(err))
	// The start date write stands even though the history append failed.
	require.NotNil(t, p)
	assert.True(t, p.Started())
	db.AssertExpectations(t)
}

// ---------- Complete ----------

func TestPhaseService_Complete_NotStarted(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, nil, nil)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	res, err := svc.Complete(ctx, 5, 7, "", nil, nil)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, res)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestPhaseService_Complete_AlreadyDone(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Hour)
	ended := time.Now().Add(-time.Hour)
	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, &ended)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	res, err := svc.Complete(ctx, 5, 7, "", nil, nil)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, res)
	db.AssertExpectations(t)
}

func TestPhaseService_Complete_NotAMember(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	memberRow := &mockRow{scanFunc: scanOne(false)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()

	res, err := svc.Complete(ctx, 5, 999, "", nil, nil)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Nil(t, res)
	// The end date must not be written for an outsider.
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestPhaseService_Complete_NoFiles(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	memberRow := &mockRow{scanFunc: scanOne(true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	res, err := svc.Complete(ctx, 5, 7, "all done", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.DateUpdated)
	assert.Zero(t, res.FilesTotal)
	assert.True(t, res.HistoryAppended)
	db.AssertExpectations(t)
}

func TestPhaseService_Complete_LinksExistingFiles(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	memberRow := &mockRow{scanFunc: scanOne(true)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	res, err := svc.Complete(ctx, 5, 7, "", nil, []int64{30, 31})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesTotal)
	assert.Equal(t, 2, res.FilesLinked)
	assert.True(t, res.HistoryAppended)
	db.AssertExpectations(t)
}

func TestPhaseService_Complete_UploadFailureIsPartial(t *testing.T) {
	db := &mockDB{}
	blob := &mockBlob{}
	svc := newPhaseService(db, blob)
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	phaseRow := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	memberRow := &mockRow{scanFunc: scanOne(true)}
	fileRow := &mockRow{scanFunc: scanOne(int64(90))}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(phaseRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(memberRow).Once()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(fileRow)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	blob.On("Upload", mock.Anything, "report.pdf", "application/pdf", mock.Anything).Return("key-report", nil)
	blob.On("Upload", mock.Anything, "photo.jpg", "image/jpeg", mock.Anything).Return("", errors.New("bucket unavailable"))

	uploads := []EvidenceFile{
		{Name: "report.pdf", MimeType: "application/pdf", Data: []byte("pdf")},
		{Name: "photo.jpg", MimeType: "image/jpeg", Data: []byte("jpg")},
	}
	res, err := svc.Complete(ctx, 5, 7, "done with issues", uploads, nil)

	require.Error(t, err)
	assert.True(t, IsPartialFailure(err))
	// The completion date stuck and the good upload got linked.
	require.NotNil(t, res)
	assert.True(t, res.DateUpdated)
	assert.Equal(t, 2, res.FilesTotal)
	assert.Equal(t, 1, res.FilesLinked)
	assert.True(t, res.HistoryAppended)
	blob.AssertExpectations(t)
	db.AssertExpectations(t)
}

// ---------- Delete ----------

func TestPhaseService_Delete_StartedPhaseRejected(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInProgress, &started, nil)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := svc.Delete(ctx, 5)
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestPhaseService_Delete_Success(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	row := &mockRow{scanFunc: phaseScan(5, 1, model.StatusInit, nil, nil)}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Delete(ctx, 5)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

// ---------- CurrentStep ----------

func TestPhaseService_CurrentStep_FirstUndone(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	done := func(id int64, order int) func(dest ...any) error {
		return listedPhaseScan(id, order, &now, &now)
	}
	open := func(id int64, order int) func(dest ...any) error {
		return listedPhaseScan(id, order, &now, nil)
	}
	rows := newMockRows(done(1, 0), open(2, 1), open(3, 2))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	p, err := svc.CurrentStep(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(2), p.ID)
	db.AssertExpectations(t)
}

func TestPhaseService_CurrentStep_AllDone(t *testing.T) {
	db := &mockDB{}
	svc := newPhaseService(db, &mockBlob{})
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	rows := newMockRows(listedPhaseScan(1, 0, &now, &now), listedPhaseScan(2, 1, &now, &now))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	p, err := svc.CurrentStep(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
	db.AssertExpectations(t)
}

// listedPhaseScan builds a scan function for the ListByProcess row shape.
func listedPhaseScan(id int64, order int, start, end *time.Time) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*int64)) = id
		*(dest[1].(*int64)) = 1
		*(dest[2].(*int64)) = 1
		*(dest[3].(*int)) = order
		*(dest[4].(*string)) = "step"
		*(dest[5].(*time.Time)) = now
		*(dest[6].(*time.Time)) = now
		*(dest[7].(**time.Time)) = start
		*(dest[8].(**time.Time)) = end
		*(dest[9].(*time.Time)) = now
		*(dest[10].(*time.Time)) = now
		return nil
	}
}
