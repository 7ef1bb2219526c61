package mocks

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

type Executor struct {
	mock.Mock
}

func (m *Executor) result(args mock.Arguments) (*domain.TxResult, error) {
	var r0 *domain.TxResult
	if args.Get(0) != nil {
		r0 = args.Get(0).(*domain.TxResult)
	}
	return r0, args.Error(1)
}

func (m *Executor) CreateAuction(c ctx.Ctx, borrower domain.Address, collateralAmount decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, borrower, collateralAmount))
}

func (m *Executor) PlaceBid(c ctx.Ctx, bidder domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, bidder, amount))
}

func (m *Executor) FinalizeAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error) {
	return m.result(m.Called(c, auctionId))
}

func (m *Executor) CancelAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error) {
	return m.result(m.Called(c, auctionId))
}

func (m *Executor) RepayLoan(c ctx.Ctx, borrower domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, borrower, amount))
}

func (m *Executor) ClaimCollateral(c ctx.Ctx, lender domain.Address, loanId string) (*domain.TxResult, error) {
	return m.result(m.Called(c, lender, loanId))
}

func (m *Executor) ListPosition(c ctx.Ctx, seller domain.Address, price decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, seller, price))
}

func (m *Executor) BuyPosition(c ctx.Ctx, buyer domain.Address, price decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, buyer, price))
}

func (m *Executor) CancelListing(c ctx.Ctx, listingId string) (*domain.TxResult, error) {
	return m.result(m.Called(c, listingId))
}

func (m *Executor) MakeOffer(c ctx.Ctx, offerer domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, offerer, amount))
}

func (m *Executor) ApproveToken(c ctx.Ctx, owner domain.Address, token domain.TokenSymbol) (*domain.TxResult, error) {
	return m.result(m.Called(c, owner, token))
}

func (m *Executor) MintTestTokens(c ctx.Ctx, to domain.Address, token domain.TokenSymbol, amount decimal.Decimal) (*domain.TxResult, error) {
	return m.result(m.Called(c, to, token, amount))
}

func (m *Executor) MintTestNft(c ctx.Ctx, to domain.Address) (*domain.TxResult, error) {
	return m.result(m.Called(c, to))
}
