package chainmock

import (
	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

// Executor simulates on-chain contract calls. Every call blocks for a
// randomized confirmation delay, can fail at a configured rate, and returns
// a fabricated transaction hash. Engines must treat the delay window as
// hostile: state read before a call may be stale after it returns.
type Executor interface {
	CreateAuction(c ctx.Ctx, borrower domain.Address, collateralAmount decimal.Decimal) (*domain.TxResult, error)
	PlaceBid(c ctx.Ctx, bidder domain.Address, amount decimal.Decimal) (*domain.TxResult, error)
	FinalizeAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error)
	CancelAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error)
	RepayLoan(c ctx.Ctx, borrower domain.Address, amount decimal.Decimal) (*domain.TxResult, error)
	ClaimCollateral(c ctx.Ctx, lender domain.Address, loanId string) (*domain.TxResult, error)
	ListPosition(c ctx.Ctx, seller domain.Address, price decimal.Decimal) (*domain.TxResult, error)
	BuyPosition(c ctx.Ctx, buyer domain.Address, price decimal.Decimal) (*domain.TxResult, error)
	CancelListing(c ctx.Ctx, listingId string) (*domain.TxResult, error)
	MakeOffer(c ctx.Ctx, offerer domain.Address, amount decimal.Decimal) (*domain.TxResult, error)
	ApproveToken(c ctx.Ctx, owner domain.Address, token domain.TokenSymbol) (*domain.TxResult, error)
	MintTestTokens(c ctx.Ctx, to domain.Address, token domain.TokenSymbol, amount decimal.Decimal) (*domain.TxResult, error)
	MintTestNft(c ctx.Ctx, to domain.Address) (*domain.TxResult, error)
}
