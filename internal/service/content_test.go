package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"content_metrics/internal/config"
	"content_metrics/internal/domain"
	"content_metrics/internal/service/mocks"
	"content_metrics/testdata/utils"
)

type ContentServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	ctx  context.Context
	now  time.Time

	contents *mocks.MockContentReader
	service  *ContentService
}

func (s *ContentServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s.contents = mocks.NewMockContentReader(s.ctrl)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewContentService(s.contents, logger, config.QueryConfig{
		DefaultItemsPerPage: 10,
		MaxItemsPerPage:     100,
	}).WithClock(func() time.Time { return s.now })
}

func (s *ContentServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestContentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContentServiceTestSuite))
}

func (s *ContentServiceTestSuite) TestList_Defaults() {
	expected := &domain.ContentPage{Total: 0, Page: 1}
	s.contents.EXPECT().List(s.ctx, domain.ContentQuery{
		Page: domain.Page{Number: 1, ItemsPerPage: 10},
		Now:  s.now,
	}).Return(expected, nil)

	page, err := s.service.List(s.ctx, domain.ContentFilter{}, domain.PageRequest{})

	s.NoError(err)
	s.Same(expected, page)
}

func (s *ContentServiceTestSuite) TestList_PassesFilterAndPage() {
	filter := domain.ContentFilter{
		AuthorUsername: utils.Ptr("alice"),
		TimeframeDays:  utils.Ptr(7),
	}
	s.contents.EXPECT().List(s.ctx, domain.ContentQuery{
		Filter: filter,
		Page:   domain.Page{Number: 3, ItemsPerPage: 25},
		Now:    s.now,
	}).Return(&domain.ContentPage{Page: 3}, nil)

	_, err := s.service.List(s.ctx, filter, domain.PageRequest{
		Number:       utils.Ptr(3),
		ItemsPerPage: utils.Ptr(25),
	})

	s.NoError(err)
}

func (s *ContentServiceTestSuite) TestList_BlankTextFiltersIgnored() {
	s.contents.EXPECT().List(s.ctx, domain.ContentQuery{
		Page: domain.Page{Number: 1, ItemsPerPage: 10},
		Now:  s.now,
	}).Return(&domain.ContentPage{Page: 1}, nil)

	_, err := s.service.List(s.ctx, domain.ContentFilter{
		AuthorUsername: utils.Ptr("  "),
		Title:          utils.Ptr(""),
	}, domain.PageRequest{})

	s.NoError(err)
}

func (s *ContentServiceTestSuite) TestList_InvalidParameters() {
	tests := []struct {
		name   string
		filter domain.ContentFilter
		req    domain.PageRequest
		param  string
	}{
		{
			name:  "zero page",
			req:   domain.PageRequest{Number: utils.Ptr(0)},
			param: "page",
		},
		{
			name:  "negative page",
			req:   domain.PageRequest{Number: utils.Ptr(-2)},
			param: "page",
		},
		{
			name:  "zero items per page",
			req:   domain.PageRequest{ItemsPerPage: utils.Ptr(0)},
			param: "items_per_page",
		},
		{
			name:  "items per page above limit",
			req:   domain.PageRequest{ItemsPerPage: utils.Ptr(101)},
			param: "items_per_page",
		},
		{
			name:  "offset overflows",
			req:   domain.PageRequest{Number: utils.Ptr(1<<62 + 1), ItemsPerPage: utils.Ptr(3)},
			param: "page",
		},
		{
			name:   "timeframe beyond limit",
			filter: domain.ContentFilter{TimeframeDays: utils.Ptr(1 << 40)},
			param:  "timeframe",
		},
		{
			name:   "negative timeframe",
			filter: domain.ContentFilter{TimeframeDays: utils.Ptr(-1)},
			param:  "timeframe",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			page, err := s.service.List(s.ctx, tt.filter, tt.req)

			s.Nil(page)
			var perr *domain.ParameterError
			s.Require().True(errors.As(err, &perr))
			s.Equal(tt.param, perr.Param)
		})
	}
}

func (s *ContentServiceTestSuite) TestList_StoreError() {
	s.contents.EXPECT().List(s.ctx, gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.service.List(s.ctx, domain.ContentFilter{}, domain.PageRequest{})

	s.ErrorContains(err, "list contents: db down")
	var perr *domain.ParameterError
	s.False(errors.As(err, &perr))
}

func (s *ContentServiceTestSuite) TestStats_UsesClock() {
	filter := domain.ContentFilter{TagID: utils.Ptr(int64(4))}
	expected := &domain.ContentStats{TotalContents: 2, TotalViews: 100}
	s.contents.EXPECT().Stats(s.ctx, filter, s.now).Return(expected, nil)

	stats, err := s.service.Stats(s.ctx, filter)

	s.NoError(err)
	s.Same(expected, stats)
}

func (s *ContentServiceTestSuite) TestStats_NegativeTimeframe() {
	_, err := s.service.Stats(s.ctx, domain.ContentFilter{TimeframeDays: utils.Ptr(-3)})

	var perr *domain.ParameterError
	s.Require().True(errors.As(err, &perr))
	s.Equal("timeframe", perr.Param)
}

func (s *ContentServiceTestSuite) TestStats_LargestTimeframeAccepted() {
	filter := domain.ContentFilter{TimeframeDays: utils.Ptr(maxTimeframeDays)}
	s.contents.EXPECT().Stats(s.ctx, filter, s.now).Return(&domain.ContentStats{}, nil)

	_, err := s.service.Stats(s.ctx, filter)

	s.NoError(err)
}
