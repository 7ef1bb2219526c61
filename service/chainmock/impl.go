package chainmock

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
)

var ErrTxReverted = xerrors.New("transaction reverted")

type Config struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	FailureRate float64
}

// DefaultConfig mirrors the confirmation window users see in the UI.
func DefaultConfig() Config {
	return Config{
		MinDelay:    2 * time.Second,
		MaxDelay:    4 * time.Second,
		FailureRate: 0,
	}
}

type impl struct {
	cfg     Config
	metrics metrics.Service
}

func New(cfg Config, m metrics.Service) Executor {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &impl{cfg: cfg, metrics: m}
}

func (im *impl) execute(c ctx.Ctx, op string) (*domain.TxResult, error) {
	defer im.metrics.BumpTime("chainmock.execute", "op", op).End()

	if err := im.wait(c); err != nil {
		c.WithField("err", err).WithField("op", op).Warn("tx aborted")
		return nil, err
	}
	if im.shouldFail() {
		im.metrics.BumpSum("chainmock.reverted", 1, "op", op)
		return nil, ErrTxReverted
	}
	return &domain.TxResult{Success: true, TxHash: randomTxHash()}, nil
}

func (im *impl) wait(c ctx.Ctx) error {
	delay := im.cfg.MinDelay
	if spread := im.cfg.MaxDelay - im.cfg.MinDelay; spread > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(spread)))
		if err == nil {
			delay += time.Duration(n.Int64())
		}
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-c.Done():
		return c.Err()
	}
}

func (im *impl) shouldFail() bool {
	if im.cfg.FailureRate <= 0 {
		return false
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return false
	}
	return float64(n.Int64()) < im.cfg.FailureRate*10000
}

func randomTxHash() domain.TxHash {
	buf := make([]byte, 32)
	rand.Read(buf)
	return domain.TxHash(common.BytesToHash(crypto.Keccak256(buf)).Hex())
}

func (im *impl) CreateAuction(c ctx.Ctx, borrower domain.Address, collateralAmount decimal.Decimal) (*domain.TxResult, error) {
	if borrower.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !collateralAmount.IsPositive() {
		return nil, domain.ErrInvalidCollateralAmount
	}
	return im.execute(c, "createAuction")
}

func (im *impl) PlaceBid(c ctx.Ctx, bidder domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	if bidder.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidBidAmount
	}
	return im.execute(c, "placeBid")
}

func (im *impl) FinalizeAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error) {
	if auctionId == "" {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "finalizeAuction")
}

func (im *impl) CancelAuction(c ctx.Ctx, auctionId string) (*domain.TxResult, error) {
	if auctionId == "" {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "cancelAuction")
}

func (im *impl) RepayLoan(c ctx.Ctx, borrower domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	if borrower.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !amount.IsPositive() {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "repayLoan")
}

func (im *impl) ClaimCollateral(c ctx.Ctx, lender domain.Address, loanId string) (*domain.TxResult, error) {
	if lender.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if loanId == "" {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "claimCollateral")
}

func (im *impl) ListPosition(c ctx.Ctx, seller domain.Address, price decimal.Decimal) (*domain.TxResult, error) {
	if seller.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	return im.execute(c, "listPosition")
}

func (im *impl) BuyPosition(c ctx.Ctx, buyer domain.Address, price decimal.Decimal) (*domain.TxResult, error) {
	if buyer.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	return im.execute(c, "buyPosition")
}

func (im *impl) CancelListing(c ctx.Ctx, listingId string) (*domain.TxResult, error) {
	if listingId == "" {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "cancelListing")
}

func (im *impl) MakeOffer(c ctx.Ctx, offerer domain.Address, amount decimal.Decimal) (*domain.TxResult, error) {
	if offerer.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidOfferAmount
	}
	return im.execute(c, "makeOffer")
}

func (im *impl) ApproveToken(c ctx.Ctx, owner domain.Address, token domain.TokenSymbol) (*domain.TxResult, error) {
	if owner.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if token == "" {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "approveToken")
}

func (im *impl) MintTestTokens(c ctx.Ctx, to domain.Address, token domain.TokenSymbol, amount decimal.Decimal) (*domain.TxResult, error) {
	if to.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if token == "" || !amount.IsPositive() {
		return nil, domain.ErrBadParamInput
	}
	return im.execute(c, "mintTestTokens")
}

func (im *impl) MintTestNft(c ctx.Ctx, to domain.Address) (*domain.TxResult, error) {
	if to.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	return im.execute(c, "mintTestNft")
}
