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
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/service/analytics"
	"github.com/the-gavel/goapi/service/chainmock/mocks"
	activityRepo "github.com/the-gavel/goapi/stores/activity/repository"
	loanRepo "github.com/the-gavel/goapi/stores/loan/repository"
)

var mockCtx = bCtx.Background()

var (
	borrower = domain.Address("0xborrower")
	lender   = domain.Address("0xlender")
	stranger = domain.Address("0xstranger")
)

func okTx() *domain.TxResult {
	return &domain.TxResult{Success: true, TxHash: "0xdeadbeef"}
}

type testsuite struct {
	suite.Suite

	clock    *clock.Mock
	executor *mocks.Executor
	repo     loan.Repo
	events   event.Repo
	im       loan.Usecase
}

func (ts *testsuite) SetupTest() {
	ts.clock = clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ts.executor = &mocks.Executor{}
	ts.repo = loanRepo.NewLoanRepo()
	ts.events = activityRepo.NewEventRepo()
	recorder := analytics.New(ts.events, ts.clock, analytics.WithSynchronousRecord())
	ts.im = NewLoanUseCase(ts.repo, ts.executor, recorder, ts.clock)
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) snapshot() loan.AuctionSnapshot {
	return loan.AuctionSnapshot{
		AuctionId:        "#1234",
		Borrower:         borrower,
		Lender:           lender,
		CollateralToken:  domain.TokenWBTC,
		CollateralAmount: decimal.NewFromInt(2),
		LoanToken:        domain.TokenUSDC,
		LoanAmount:       decimal.NewFromInt(50000),
		RepaymentAmount:  decimal.NewFromInt(52000),
		LoanDuration:     "30d",
		TxHash:           "0xdeadbeef",
	}
}

func (ts *testsuite) create() *loan.Loan {
	l, err := ts.im.CreateFromAuction(mockCtx, ts.snapshot())
	ts.Require().NoError(err)
	return l
}

func (ts *testsuite) TestCreateFromAuction() {
	l := ts.create()

	ts.Equal(loan.StatusActive, l.Status)
	ts.Equal("#1234", l.AuctionId)
	ts.InDelta(4.0, l.SimpleRate, 1e-9)
	ts.Equal(ts.clock.Now(), l.StartTime)
	ts.Equal(ts.clock.Now().Add(30*24*time.Hour), l.MaturityTime)
	ts.Regexp(`^L\d{4}$`, l.Id)
	ts.Regexp(`^NFT-\d{5}$`, l.BorrowerNftId)
	ts.Regexp(`^NFT-\d{5}$`, l.LenderNftId)
	ts.NotEqual(l.BorrowerNftId, l.LenderNftId)
}

func (ts *testsuite) TestCreateFromAuctionRejectsBadSnapshot() {
	s := ts.snapshot()
	s.Lender = domain.EmptyAddress
	_, err := ts.im.CreateFromAuction(mockCtx, s)
	ts.ErrorIs(err, domain.ErrNoWinningBid)

	s = ts.snapshot()
	s.RepaymentAmount = decimal.NewFromInt(49000)
	_, err = ts.im.CreateFromAuction(mockCtx, s)
	ts.ErrorIs(err, domain.ErrInvalidMaxRepayment)
}

func (ts *testsuite) TestRepay() {
	l := ts.create()

	_, err := ts.im.Repay(mockCtx, l.Id, stranger)
	ts.ErrorIs(err, domain.ErrNotBorrower)

	ts.executor.On("RepayLoan", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.Repay(mockCtx, l.Id, borrower)
	ts.NoError(err)
	ts.Equal(loan.StatusRepaid, got.Status)

	// repaying a closed loan fails
	_, err = ts.im.Repay(mockCtx, l.Id, borrower)
	ts.ErrorIs(err, domain.ErrLoanClosed)

	entries, err := ts.events.FindRecent(mockCtx, 10)
	ts.NoError(err)
	ts.Require().Len(entries, 1)
	ts.Equal(event.LoanRepaid, entries[0].Name)
}

func (ts *testsuite) TestRepayDuringGracePeriod() {
	l := ts.create()
	ts.clock.Advance(30*24*time.Hour + 12*time.Hour)

	ts.executor.On("RepayLoan", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.Repay(mockCtx, l.Id, borrower)
	ts.NoError(err)
	ts.Equal(loan.StatusRepaid, got.Status)
}

func (ts *testsuite) TestRepayPastGracePeriod() {
	l := ts.create()
	ts.clock.Advance(30*24*time.Hour + loan.GracePeriod + time.Second)

	_, err := ts.im.Repay(mockCtx, l.Id, borrower)
	ts.ErrorIs(err, domain.ErrLoanPastGrace)
}

func (ts *testsuite) TestClaimCollateral() {
	l := ts.create()

	// collateral is locked until the grace period runs out
	_, err := ts.im.ClaimCollateral(mockCtx, l.Id, lender)
	ts.ErrorIs(err, domain.ErrGracePeriodActive)

	ts.clock.Advance(30*24*time.Hour + loan.GracePeriod + time.Second)

	_, err = ts.im.ClaimCollateral(mockCtx, l.Id, stranger)
	ts.ErrorIs(err, domain.ErrNotLender)

	ts.executor.On("ClaimCollateral", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.ClaimCollateral(mockCtx, l.Id, lender)
	ts.NoError(err)
	ts.Equal(loan.StatusDefaulted, got.Status)

	_, err = ts.im.ClaimCollateral(mockCtx, l.Id, lender)
	ts.ErrorIs(err, domain.ErrLoanClosed)

	entries, err := ts.events.FindRecent(mockCtx, 10)
	ts.NoError(err)
	ts.Require().Len(entries, 1)
	ts.Equal(event.CollateralClaimed, entries[0].Name)
}

func (ts *testsuite) TestTransferPosition() {
	l := ts.create()
	buyer := domain.Address("0xbuyer")

	_, err := ts.im.TransferPosition(mockCtx, l.Id, loan.SideLender, stranger, buyer)
	ts.ErrorIs(err, domain.ErrNotPositionHolder)

	got, err := ts.im.TransferPosition(mockCtx, l.Id, loan.SideLender, lender, buyer)
	ts.NoError(err)
	ts.Equal(buyer.ToLower(), got.Lender)
	ts.Equal(borrower.ToLower(), got.Borrower)

	// repayment now belongs to the new lender's counterparty flow, the
	// borrower side is untouched
	ts.executor.On("RepayLoan", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	_, err = ts.im.Repay(mockCtx, l.Id, borrower)
	ts.NoError(err)
}

func (ts *testsuite) TestTransferBorrowerSideMovesRepayRights() {
	l := ts.create()
	assignee := domain.Address("0xassignee")

	_, err := ts.im.TransferPosition(mockCtx, l.Id, loan.SideBorrower, borrower, assignee)
	ts.NoError(err)

	_, err = ts.im.Repay(mockCtx, l.Id, borrower)
	ts.ErrorIs(err, domain.ErrNotBorrower)

	ts.executor.On("RepayLoan", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.Repay(mockCtx, l.Id, assignee)
	ts.NoError(err)
	ts.Equal(loan.StatusRepaid, got.Status)
}

func (ts *testsuite) TestStatusAging() {
	l := ts.create()

	got, err := ts.im.Get(mockCtx, l.Id)
	ts.NoError(err)
	ts.Equal(loan.StatusActive, got.Status)

	ts.clock.Advance(30*24*time.Hour + time.Second)
	got, err = ts.im.Get(mockCtx, l.Id)
	ts.NoError(err)
	ts.Equal(loan.StatusGracePeriod, got.Status)

	ts.clock.Advance(loan.GracePeriod)
	got, err = ts.im.Get(mockCtx, l.Id)
	ts.NoError(err)
	ts.Equal(loan.StatusOverdue, got.Status)

	// overdue loans are still open positions
	active, err := ts.im.GetActive(mockCtx)
	ts.NoError(err)
	ts.Len(active, 1)
}

func (ts *testsuite) TestRefreshStatuses() {
	l := ts.create()
	ts.clock.Advance(30*24*time.Hour + time.Second)

	ts.NoError(ts.im.RefreshStatuses(mockCtx))
	got, err := ts.repo.FindOne(mockCtx, l.Id)
	ts.NoError(err)
	ts.Equal(loan.StatusGracePeriod, got.Status)
}

func (ts *testsuite) TestQueriesByParty() {
	l := ts.create()

	byBorrower, err := ts.im.GetByBorrower(mockCtx, borrower)
	ts.NoError(err)
	ts.Require().Len(byBorrower, 1)
	ts.Equal(l.Id, byBorrower[0].Id)

	byLender, err := ts.im.GetByLender(mockCtx, lender)
	ts.NoError(err)
	ts.Require().Len(byLender, 1)
	ts.Equal(l.Id, byLender[0].Id)

	none, err := ts.im.GetByBorrower(mockCtx, stranger)
	ts.NoError(err)
	ts.Empty(none)
}
