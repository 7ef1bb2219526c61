package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/the-gavel/goapi/base/clock"
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/auction"
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/service/analytics"
	"github.com/the-gavel/goapi/service/cache"
	"github.com/the-gavel/goapi/service/cache/provider/primitive"
	"github.com/the-gavel/goapi/service/chainmock/mocks"
	activityRepo "github.com/the-gavel/goapi/stores/activity/repository"
	auctionRepo "github.com/the-gavel/goapi/stores/auction/repository"
	auctionUsecase "github.com/the-gavel/goapi/stores/auction/usecase"
	loanRepo "github.com/the-gavel/goapi/stores/loan/repository"
	loanUsecase "github.com/the-gavel/goapi/stores/loan/usecase"
)

var mockCtx = bCtx.Background()

type testsuite struct {
	suite.Suite

	clock    *clock.Mock
	executor *mocks.Executor
	events   event.Repo
	auctions auction.Usecase
	im       event.Usecase
}

func (ts *testsuite) SetupTest() {
	ts.clock = clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ts.executor = &mocks.Executor{}
	ts.events = activityRepo.NewEventRepo()
	recorder := analytics.New(ts.events, ts.clock, analytics.WithSynchronousRecord())
	loans := loanUsecase.NewLoanUseCase(loanRepo.NewLoanRepo(), ts.executor, recorder, ts.clock)
	ts.auctions = auctionUsecase.NewAuctionUseCase(auctionRepo.NewAuctionRepo(), loans, ts.executor, recorder, ts.clock)
	ts.im = NewActivityUseCase(ts.events, ts.auctions, loans, cache.New(cache.ServiceConfig{
		Ttl:   time.Second,
		Pfx:   "activityStats",
		Cache: primitive.NewPrimitive("activityStats", 8),
	}))
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) createAuction() {
	ts.executor.On("CreateAuction", mock.Anything, mock.Anything, mock.Anything).Return(&domain.TxResult{Success: true, TxHash: "0xdeadbeef"}, nil).Once()
	_, err := ts.auctions.Create(mockCtx, auction.CreateParams{
		CollateralToken:  domain.TokenWBTC,
		CollateralAmount: decimal.NewFromInt(2),
		LoanToken:        domain.TokenUSDC,
		LoanAmount:       decimal.NewFromInt(50000),
		MaxRepayment:     decimal.NewFromInt(55000),
		LoanDuration:     "30d",
		AuctionDuration:  "12h",
	}, "0xborrower")
	ts.Require().NoError(err)
}

func (ts *testsuite) TestFeedAndStats() {
	ts.createAuction()

	recent, err := ts.im.GetRecent(mockCtx, 10)
	ts.NoError(err)
	ts.Require().Len(recent, 1)
	ts.Equal(event.AuctionCreated, recent[0].Name)

	byUser, err := ts.im.GetByUser(mockCtx, "0xBorrower", 10)
	ts.NoError(err)
	ts.Len(byUser, 1)

	stats, err := ts.im.GetStats(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(int64(1), stats.TotalEvents)
	ts.Equal(int64(1), stats.CountsByName[event.AuctionCreated])
	ts.Equal(int64(1), stats.ActiveAuctions)
	ts.Equal(int64(0), stats.ActiveLoans)
}

func (ts *testsuite) TestStatsAreCached() {
	ts.createAuction()

	stats, err := ts.im.GetStats(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(int64(1), stats.TotalEvents)

	// a second auction inside the cache window is not visible yet
	ts.createAuction()
	stats, err = ts.im.GetStats(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(int64(1), stats.TotalEvents)

	time.Sleep(1100 * time.Millisecond)
	stats, err = ts.im.GetStats(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(int64(2), stats.TotalEvents)

	ts.Equal(int64(2), stats.ActiveAuctions)
}

func (ts *testsuite) TestStatsOnEmptyState() {
	stats, err := ts.im.GetStats(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(int64(0), stats.TotalEvents)
	ts.Empty(stats.CountsByName)
	ts.Equal(int64(0), stats.ActiveAuctions)
}
