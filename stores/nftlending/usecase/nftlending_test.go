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
	"github.com/the-gavel/goapi/domain/nftlending"
	"github.com/the-gavel/goapi/service/analytics"
	"github.com/the-gavel/goapi/service/chainmock/mocks"
	activityRepo "github.com/the-gavel/goapi/stores/activity/repository"
	nftlendingRepo "github.com/the-gavel/goapi/stores/nftlending/repository"
)

var mockCtx = bCtx.Background()

var (
	borrower = domain.Address("0xborrower")
	lenderA  = domain.Address("0xlendera")
	lenderB  = domain.Address("0xlenderb")
)

func okTx() *domain.TxResult {
	return &domain.TxResult{
		Success: true,
		TxHash:  "0x1f3a5c7e9b2d4f6a8c0e1f3a5c7e9b2d4f6a8c0e1f3a5c7e9b2d4f6a8c0e7a4b",
	}
}

type testsuite struct {
	suite.Suite

	clock    *clock.Mock
	executor *mocks.Executor
	nfts     nftlending.NftRepo
	auctions nftlending.AuctionRepo
	loans    nftlending.LoanRepo
	im       nftlending.Usecase
}

func (ts *testsuite) SetupTest() {
	ts.clock = clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ts.executor = &mocks.Executor{}
	ts.nfts = nftlendingRepo.NewNftRepo()
	ts.auctions = nftlendingRepo.NewAuctionRepo()
	ts.loans = nftlendingRepo.NewLoanRepo()
	events := activityRepo.NewEventRepo()
	recorder := analytics.New(events, ts.clock, analytics.WithSynchronousRecord())
	ts.im = NewNftLendingUseCase(ts.nfts, ts.auctions, ts.loans, ts.executor, recorder, ts.clock)
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) mint() *nftlending.Nft {
	ts.executor.On("MintTestNft", mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	nft, err := ts.im.MintNft(mockCtx, nftlending.MintParams{
		Collection: "Test Apes",
		ImageUrl:   "https://img.example/ape.png",
		Category:   "pfp",
	}, borrower)
	ts.Require().NoError(err)
	return nft
}

func (ts *testsuite) createAuction(nftId string) *nftlending.Auction {
	ts.executor.On("CreateAuction", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	a, err := ts.im.CreateAuction(mockCtx, nftlending.CreateAuctionParams{
		NftId:           nftId,
		LoanToken:       domain.TokenETH,
		LoanAmount:      decimal.NewFromInt(10),
		MaxRepayment:    decimal.NewFromInt(11),
		LoanDuration:    "30d",
		AuctionDuration: "12h",
	}, borrower)
	ts.Require().NoError(err)
	return a
}

func (ts *testsuite) TestMintNft() {
	nft := ts.mint()

	ts.Equal("Test Apes", nft.Collection)
	ts.Equal(borrower.ToLower(), nft.Owner)
	ts.True(nft.Whitelisted)
	// token id is derived from the mint transaction hash tail
	ts.Equal("#"+string(okTx().TxHash[58:]), nft.TokenId)

	owned, err := ts.im.GetNfts(mockCtx, borrower)
	ts.NoError(err)
	ts.Len(owned, 1)
}

func (ts *testsuite) TestCreateAuctionEscrowsNft() {
	nft := ts.mint()

	// only the owner can pledge the token
	_, err := ts.im.CreateAuction(mockCtx, nftlending.CreateAuctionParams{
		NftId:           nft.Id,
		LoanToken:       domain.TokenETH,
		LoanAmount:      decimal.NewFromInt(10),
		MaxRepayment:    decimal.NewFromInt(11),
		LoanDuration:    "30d",
		AuctionDuration: "12h",
	}, lenderA)
	ts.ErrorIs(err, domain.ErrNotNftOwner)

	a := ts.createAuction(nft.Id)
	ts.Equal(nftlending.AuctionStatusActive, a.Status)
	ts.Equal(nft.Id, a.Nft.Id)
	ts.Empty(a.Bids)

	// escrowed tokens leave the collection
	owned, err := ts.im.GetNfts(mockCtx, borrower)
	ts.NoError(err)
	ts.Empty(owned)
}

func (ts *testsuite) TestBidHistory() {
	a := ts.createAuction(ts.mint().Id)
	ts.executor.On("PlaceBid", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil)

	got, err := ts.im.PlaceBid(mockCtx, a.Id, decimal.NewFromFloat(10.8), lenderA)
	ts.NoError(err)
	ts.Require().Len(got.Bids, 1)

	_, err = ts.im.PlaceBid(mockCtx, a.Id, decimal.NewFromFloat(10.9), lenderB)
	ts.ErrorIs(err, domain.ErrBidNotImproving)

	got, err = ts.im.PlaceBid(mockCtx, a.Id, decimal.NewFromFloat(10.5), lenderB)
	ts.NoError(err)
	ts.Require().Len(got.Bids, 2)

	// newest first, every bid kept with its rate
	ts.Equal(lenderB.ToLower(), got.Bids[0].Bidder)
	ts.True(got.Bids[0].Amount.Equal(decimal.NewFromFloat(10.5)))
	ts.InDelta(5.0, got.Bids[0].SimpleRate, 1e-9)
	ts.Equal(lenderA.ToLower(), got.Bids[1].Bidder)
	ts.InDelta(8.0, got.Bids[1].SimpleRate, 1e-9)

	best := got.BestBid()
	ts.Require().NotNil(best)
	ts.True(best.Amount.Equal(decimal.NewFromFloat(10.5)))
}

func (ts *testsuite) TestFinalizeAuction() {
	a := ts.createAuction(ts.mint().Id)
	ts.executor.On("PlaceBid", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	_, err := ts.im.PlaceBid(mockCtx, a.Id, decimal.NewFromFloat(10.5), lenderA)
	ts.Require().NoError(err)

	ts.executor.On("FinalizeAuction", mock.Anything, a.Id).Return(okTx(), nil).Once()
	l, err := ts.im.FinalizeAuction(mockCtx, a.Id)
	ts.Require().NoError(err)

	ts.Equal(nftlending.LoanStatusActive, l.Status)
	ts.Equal(lenderA.ToLower(), l.Lender)
	ts.True(l.RepaymentAmount.Equal(decimal.NewFromFloat(10.5)))
	ts.InDelta(5.0, l.SimpleRate, 1e-9)
	// annualized over the 30 day term
	ts.InDelta(5.0*365/30, l.Apr, 1e-9)
	ts.Equal(ts.clock.Now().Add(30*24*time.Hour), l.MaturityTime)

	got, err := ts.auctions.FindOne(mockCtx, a.Id)
	ts.NoError(err)
	ts.Equal(nftlending.AuctionStatusFinalized, got.Status)

	// collateral stays in escrow while the loan is open
	owned, err := ts.im.GetNfts(mockCtx, borrower)
	ts.NoError(err)
	ts.Empty(owned)
}

func (ts *testsuite) TestFinalizeWithoutBids() {
	a := ts.createAuction(ts.mint().Id)

	_, err := ts.im.FinalizeAuction(mockCtx, a.Id)
	ts.ErrorIs(err, domain.ErrNoWinningBid)
}

func (ts *testsuite) TestCancelAuctionReturnsNft() {
	nft := ts.mint()
	a := ts.createAuction(nft.Id)

	err := ts.im.CancelAuction(mockCtx, a.Id, lenderA)
	ts.ErrorIs(err, domain.ErrNotAuctionOwner)

	ts.executor.On("CancelAuction", mock.Anything, a.Id).Return(okTx(), nil).Once()
	ts.NoError(ts.im.CancelAuction(mockCtx, a.Id, borrower))

	owned, err := ts.im.GetNfts(mockCtx, borrower)
	ts.NoError(err)
	ts.Require().Len(owned, 1)
	ts.Equal(nft.Id, owned[0].Id)
}

func (ts *testsuite) finalizedLoan() *nftlending.Loan {
	a := ts.createAuction(ts.mint().Id)
	ts.executor.On("PlaceBid", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	_, err := ts.im.PlaceBid(mockCtx, a.Id, decimal.NewFromFloat(10.5), lenderA)
	ts.Require().NoError(err)
	ts.executor.On("FinalizeAuction", mock.Anything, a.Id).Return(okTx(), nil).Once()
	l, err := ts.im.FinalizeAuction(mockCtx, a.Id)
	ts.Require().NoError(err)
	return l
}

func (ts *testsuite) TestRepayReturnsCollateral() {
	l := ts.finalizedLoan()

	_, err := ts.im.Repay(mockCtx, l.Id, lenderA)
	ts.ErrorIs(err, domain.ErrNotBorrower)

	ts.executor.On("RepayLoan", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.Repay(mockCtx, l.Id, borrower)
	ts.NoError(err)
	ts.Equal(nftlending.LoanStatusRepaid, got.Status)

	owned, err := ts.im.GetNfts(mockCtx, borrower)
	ts.NoError(err)
	ts.Require().Len(owned, 1)
	ts.Equal(borrower.ToLower(), owned[0].Owner)
}

func (ts *testsuite) TestClaimNftAfterDefault() {
	l := ts.finalizedLoan()

	_, err := ts.im.ClaimNft(mockCtx, l.Id, lenderA)
	ts.ErrorIs(err, domain.ErrGracePeriodActive)

	ts.clock.Advance(30*24*time.Hour + nftlending.GracePeriod + time.Second)

	ts.executor.On("ClaimCollateral", mock.Anything, mock.Anything, mock.Anything).Return(okTx(), nil).Once()
	got, err := ts.im.ClaimNft(mockCtx, l.Id, lenderA)
	ts.NoError(err)
	ts.Equal(nftlending.LoanStatusDefaulted, got.Status)

	// the token lands in the lender's collection
	owned, err := ts.im.GetNfts(mockCtx, lenderA)
	ts.NoError(err)
	ts.Require().Len(owned, 1)
	ts.Equal(lenderA.ToLower(), owned[0].Owner)
}

func (ts *testsuite) TestRefreshStatuses() {
	a := ts.createAuction(ts.mint().Id)
	ts.clock.Advance(13 * time.Hour)

	ts.NoError(ts.im.RefreshStatuses(mockCtx))

	got, err := ts.auctions.FindOne(mockCtx, a.Id)
	ts.NoError(err)
	ts.Equal(nftlending.AuctionStatusEnded, got.Status)
}
