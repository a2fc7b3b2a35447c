package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"content_metrics/internal/domain"
	"content_metrics/internal/service/mocks"
)

type PullServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	ctx  context.Context
	now  time.Time

	source    *mocks.MockSource
	ingester  *mocks.MockIngester
	syncState *mocks.MockSyncStateStore

	service *PullService
}

func (s *PullServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s.source = mocks.NewMockSource(s.ctrl)
	s.ingester = mocks.NewMockIngester(s.ctrl)
	s.syncState = mocks.NewMockSyncStateStore(s.ctrl)

	s.source.EXPECT().ID().Return("hackapi").AnyTimes()
	s.source.EXPECT().Name().Return("Hack API feed").AnyTimes()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.service = NewPullService(s.source, s.ingester, s.syncState, 2, logger)
	s.service.now = func() time.Time { return s.now }
}

func (s *PullServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPullServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PullServiceTestSuite))
}

func (s *PullServiceTestSuite) TestPull_SkipsInvalidRecords() {
	good := newRecord("c-1", "a-1", 1, 1, 1, 1)
	bad := newRecord("c-2", "a-1", 1, 1, 1, 1)
	bad.Title = ""

	s.source.EXPECT().FetchRecords(s.ctx).Return([]domain.ContentRecord{good, bad}, nil)
	s.ingester.EXPECT().ValidateRecord(0, good).Return(nil)
	s.ingester.EXPECT().ValidateRecord(1, bad).Return([]domain.FieldError{
		{Index: 1, Field: "title", Reason: "is required"},
	})
	s.ingester.EXPECT().Ingest(s.ctx, []domain.ContentRecord{good}).Return(&domain.IngestStats{
		Records: 1,
		Created: 1,
	}, nil)
	s.syncState.EXPECT().Get(s.ctx, "hackapi").Return(&domain.SyncState{
		ID:          3,
		SourceID:    "hackapi",
		TotalSynced: 10,
	}, nil)
	s.syncState.EXPECT().Update(s.ctx, &domain.SyncState{
		ID:           3,
		SourceID:     "hackapi",
		LastSyncedAt: s.now,
		LastCount:    1,
		TotalSynced:  11,
	}).Return(nil)

	stats, err := s.service.Pull(s.ctx)

	s.NoError(err)
	s.Equal("hackapi", stats.SourceID)
	s.Equal(2, stats.Fetched)
	s.Equal(1, stats.Invalid)
	s.Equal(1, stats.Created)
	s.Equal(0, stats.Updated)
}

func (s *PullServiceTestSuite) TestPull_SplitsIntoBatches() {
	records := []domain.ContentRecord{
		newRecord("c-1", "a-1", 1, 1, 1, 1),
		newRecord("c-2", "a-1", 1, 1, 1, 1),
		newRecord("c-3", "a-2", 1, 1, 1, 1),
		newRecord("c-4", "a-2", 1, 1, 1, 1),
		newRecord("c-5", "a-3", 1, 1, 1, 1),
	}

	s.source.EXPECT().FetchRecords(s.ctx).Return(records, nil)
	s.ingester.EXPECT().ValidateRecord(gomock.Any(), gomock.Any()).Return(nil).Times(len(records))
	gomock.InOrder(
		s.ingester.EXPECT().Ingest(s.ctx, records[0:2]).Return(&domain.IngestStats{Records: 2, Created: 2}, nil),
		s.ingester.EXPECT().Ingest(s.ctx, records[2:4]).Return(&domain.IngestStats{Records: 2, Created: 1, Updated: 1}, nil),
		s.ingester.EXPECT().Ingest(s.ctx, records[4:5]).Return(&domain.IngestStats{Records: 1, Updated: 1}, nil),
	)
	s.syncState.EXPECT().Get(s.ctx, "hackapi").Return(&domain.SyncState{SourceID: "hackapi"}, nil)
	s.syncState.EXPECT().Update(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, state *domain.SyncState) error {
			s.Equal(int64(5), state.LastCount)
			return nil
		},
	)

	stats, err := s.service.Pull(s.ctx)

	s.Require().NoError(err)
	s.Equal(5, stats.Fetched)
	s.Equal(3, stats.Created)
	s.Equal(2, stats.Updated)
}

func (s *PullServiceTestSuite) TestPull_LaterBatchErrorStops() {
	records := []domain.ContentRecord{
		newRecord("c-1", "a-1", 1, 1, 1, 1),
		newRecord("c-2", "a-1", 1, 1, 1, 1),
		newRecord("c-3", "a-2", 1, 1, 1, 1),
	}

	s.source.EXPECT().FetchRecords(s.ctx).Return(records, nil)
	s.ingester.EXPECT().ValidateRecord(gomock.Any(), gomock.Any()).Return(nil).Times(len(records))
	gomock.InOrder(
		s.ingester.EXPECT().Ingest(s.ctx, records[0:2]).Return(&domain.IngestStats{Records: 2, Created: 2}, nil),
		s.ingester.EXPECT().Ingest(s.ctx, records[2:3]).Return(nil, errors.New("ingest batch: deadlock")),
	)

	stats, err := s.service.Pull(s.ctx)

	s.Nil(stats)
	s.ErrorContains(err, "ingest records")
}

func (s *PullServiceTestSuite) TestPull_EmptyFeed() {
	s.source.EXPECT().FetchRecords(s.ctx).Return(nil, nil)
	s.syncState.EXPECT().Get(s.ctx, "hackapi").Return(&domain.SyncState{SourceID: "hackapi"}, nil)
	s.syncState.EXPECT().Update(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, state *domain.SyncState) error {
			s.Equal(int64(0), state.LastCount)
			s.Equal(s.now, state.LastSyncedAt)
			return nil
		},
	)

	stats, err := s.service.Pull(s.ctx)

	s.NoError(err)
	s.Equal(0, stats.Fetched)
}

func (s *PullServiceTestSuite) TestPull_SourceError() {
	s.source.EXPECT().FetchRecords(s.ctx).Return(nil, errors.New("timeout"))

	stats, err := s.service.Pull(s.ctx)

	s.Nil(stats)
	s.ErrorContains(err, "fetch records: timeout")
}

func (s *PullServiceTestSuite) TestPull_IngestError() {
	record := newRecord("c-1", "a-1", 1, 1, 1, 1)

	s.source.EXPECT().FetchRecords(s.ctx).Return([]domain.ContentRecord{record}, nil)
	s.ingester.EXPECT().ValidateRecord(0, record).Return(nil)
	s.ingester.EXPECT().Ingest(s.ctx, gomock.Any()).Return(nil, errors.New("ingest batch: deadlock"))

	stats, err := s.service.Pull(s.ctx)

	s.Nil(stats)
	s.ErrorContains(err, "ingest records")
}

func (s *PullServiceTestSuite) TestPull_SyncStateError() {
	record := newRecord("c-1", "a-1", 1, 1, 1, 1)

	s.source.EXPECT().FetchRecords(s.ctx).Return([]domain.ContentRecord{record}, nil)
	s.ingester.EXPECT().ValidateRecord(0, record).Return(nil)
	s.ingester.EXPECT().Ingest(s.ctx, gomock.Any()).Return(&domain.IngestStats{Updated: 1}, nil)
	s.syncState.EXPECT().Get(s.ctx, "hackapi").Return(nil, errors.New("relation does not exist"))

	stats, err := s.service.Pull(s.ctx)

	s.Require().Error(err)
	s.ErrorContains(err, "update sync state")
	s.Equal(1, stats.Updated)
}

func TestChunkRecords(t *testing.T) {
	records := make([]domain.ContentRecord, 1001)

	chunks := chunkRecords(records, 1000)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1)

	assert.Len(t, chunkRecords(records, 0), 1)
	assert.Nil(t, chunkRecords(nil, 10))
}
