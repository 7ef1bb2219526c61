package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/clock"
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/auction"
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/service/chainmock"
)

type auctionUseCaseImpl struct {
	repo     auction.Repo
	loans    loan.Usecase
	executor chainmock.Executor
	recorder event.Recorder
	clock    clock.Clock
	metrics  metrics.Service
}

func NewAuctionUseCase(repo auction.Repo, loans loan.Usecase, executor chainmock.Executor, recorder event.Recorder, clk clock.Clock) auction.Usecase {
	return &auctionUseCaseImpl{
		repo:     repo,
		loans:    loans,
		executor: executor,
		recorder: recorder,
		clock:    clk,
		metrics:  metrics.New("auction"),
	}
}

func (u *auctionUseCaseImpl) Create(ctx bCtx.Ctx, params auction.CreateParams, borrower domain.Address) (*auction.Auction, error) {
	if borrower.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	auctionDuration, err := domain.ParseDuration(params.AuctionDuration)
	if err != nil {
		return nil, err
	}

	res, err := u.executor.CreateAuction(ctx, borrower, params.CollateralAmount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.CreateAuction failed")
		return nil, err
	}

	now := u.clock.Now()
	created, err := u.repo.Create(ctx, auction.Auction{
		Borrower:         borrower.ToLower(),
		CollateralToken:  params.CollateralToken,
		CollateralAmount: params.CollateralAmount,
		LoanToken:        params.LoanToken,
		LoanAmount:       params.LoanAmount,
		MaxRepayment:     params.MaxRepayment,
		BidCount:         0,
		AuctionEndTime:   now.Add(auctionDuration),
		LoanDuration:     params.LoanDuration,
		Status:           auction.StatusActive,
		CreatedAt:        now,
		TxHash:           res.TxHash,
	})
	if err != nil {
		ctx.WithField("err", err).Error("repo.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("create.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.AuctionCreated,
		User:      borrower,
		Amount:    &created.LoanAmount,
		Details:   fmt.Sprintf("%s %s against %s %s", created.LoanAmount, created.LoanToken, created.CollateralAmount, created.CollateralToken),
		TxHash:    res.TxHash,
		RelatedId: created.Id,
	})
	return created, nil
}

// checkBid applies the bid acceptance rules against a snapshot of the
// auction. It runs twice per bid: once before the simulated transaction to
// fail fast, and again inside the repo's critical section because the
// auction may have changed during the confirmation delay.
func (u *auctionUseCaseImpl) checkBid(a *auction.Auction, amount decimal.Decimal) error {
	switch a.StatusAt(u.clock.Now()) {
	case auction.StatusActive, auction.StatusEndingSoon:
	default:
		return domain.ErrAuctionClosed
	}
	if amount.LessThan(a.LoanAmount) {
		return domain.ErrBidBelowLoanAmount
	}
	if !amount.LessThan(a.BestRepayment()) {
		return domain.ErrBidNotImproving
	}
	return nil
}

func (u *auctionUseCaseImpl) PlaceBid(ctx bCtx.Ctx, auctionId string, bidAmount decimal.Decimal, bidder domain.Address) (*auction.Auction, error) {
	if bidder.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !bidAmount.IsPositive() {
		return nil, domain.ErrInvalidBidAmount
	}

	a, err := u.repo.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	if err := u.checkBid(a, bidAmount); err != nil {
		return nil, err
	}

	res, err := u.executor.PlaceBid(ctx, bidder, bidAmount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.PlaceBid failed")
		return nil, err
	}

	updated, err := u.repo.Update(ctx, auctionId, func(a *auction.Auction) error {
		if err := u.checkBid(a, bidAmount); err != nil {
			return err
		}
		bid := bidAmount
		bidder := bidder.ToLower()
		a.CurrentBid = &bid
		a.CurrentBidder = &bidder
		a.BidCount++
		return nil
	})
	if err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "auction": auctionId}).Warn("bid rejected after confirmation")
		return nil, err
	}

	u.metrics.BumpSum("bid.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.BidPlaced,
		User:      bidder,
		Amount:    &bidAmount,
		Details:   fmt.Sprintf("repayment %s %s on auction %s", bidAmount, updated.LoanToken, auctionId),
		TxHash:    res.TxHash,
		RelatedId: auctionId,
	})
	return updated, nil
}

func (u *auctionUseCaseImpl) Finalize(ctx bCtx.Ctx, auctionId string) (*loan.Loan, error) {
	a, err := u.repo.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	if a.Status.IsTerminal() {
		return nil, domain.ErrAuctionClosed
	}
	if !a.HasWinningBid() {
		return nil, domain.ErrNoWinningBid
	}

	res, err := u.executor.FinalizeAuction(ctx, auctionId)
	if err != nil {
		ctx.WithField("err", err).Error("executor.FinalizeAuction failed")
		return nil, err
	}

	// mark finalized first, revalidating under the lock, then derive the
	// loan. a failed derivation rolls the auction back so it is never left
	// finalized without a loan.
	finalized, err := u.repo.Update(ctx, auctionId, func(a *auction.Auction) error {
		if a.Status.IsTerminal() {
			return domain.ErrAuctionClosed
		}
		if !a.HasWinningBid() {
			return domain.ErrNoWinningBid
		}
		a.Status = auction.StatusFinalized
		return nil
	})
	if err != nil {
		return nil, err
	}

	newLoan, err := u.loans.CreateFromAuction(ctx, loan.AuctionSnapshot{
		AuctionId:        finalized.Id,
		Borrower:         finalized.Borrower,
		Lender:           *finalized.CurrentBidder,
		CollateralToken:  finalized.CollateralToken,
		CollateralAmount: finalized.CollateralAmount,
		LoanToken:        finalized.LoanToken,
		LoanAmount:       finalized.LoanAmount,
		RepaymentAmount:  *finalized.CurrentBid,
		LoanDuration:     finalized.LoanDuration,
		TxHash:           res.TxHash,
	})
	if err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "auction": auctionId}).Error("loan derivation failed, rolling back")
		if _, rbErr := u.repo.Update(ctx, auctionId, func(a *auction.Auction) error {
			a.Status = auction.TimeStatus(a.AuctionEndTime, u.clock.Now())
			return nil
		}); rbErr != nil {
			ctx.WithField("err", rbErr).Error("finalize rollback failed")
		}
		return nil, err
	}

	u.metrics.BumpSum("finalize.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.AuctionFinalized,
		User:      *finalized.CurrentBidder,
		Amount:    finalized.CurrentBid,
		Details:   fmt.Sprintf("auction %s settled into loan %s", auctionId, newLoan.Id),
		TxHash:    res.TxHash,
		RelatedId: newLoan.Id,
	})
	return newLoan, nil
}

func (u *auctionUseCaseImpl) Cancel(ctx bCtx.Ctx, auctionId string, caller domain.Address) error {
	a, err := u.repo.FindOne(ctx, auctionId)
	if err != nil {
		return err
	}
	if !a.Borrower.Equals(caller) {
		return domain.ErrNotAuctionOwner
	}
	if a.Status.IsTerminal() {
		return domain.ErrAuctionClosed
	}

	if _, err := u.executor.CancelAuction(ctx, auctionId); err != nil {
		ctx.WithField("err", err).Error("executor.CancelAuction failed")
		return err
	}

	if _, err := u.repo.Update(ctx, auctionId, func(a *auction.Auction) error {
		if !a.Borrower.Equals(caller) {
			return domain.ErrNotAuctionOwner
		}
		if a.Status.IsTerminal() {
			return domain.ErrAuctionClosed
		}
		a.Status = auction.StatusCancelled
		return nil
	}); err != nil {
		return err
	}

	u.metrics.BumpSum("cancel.count", 1)
	return nil
}

func (u *auctionUseCaseImpl) Get(ctx bCtx.Ctx, auctionId string) (*auction.Auction, error) {
	a, err := u.repo.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	a.Status = a.StatusAt(u.clock.Now())
	return a, nil
}

func (u *auctionUseCaseImpl) GetAll(ctx bCtx.Ctx) ([]*auction.Auction, error) {
	return u.findAll(ctx)
}

func (u *auctionUseCaseImpl) GetActive(ctx bCtx.Ctx) ([]*auction.Auction, error) {
	all, err := u.findAll(ctx)
	if err != nil {
		return nil, err
	}
	res := []*auction.Auction{}
	for _, a := range all {
		if a.Status == auction.StatusActive || a.Status == auction.StatusEndingSoon {
			res = append(res, a)
		}
	}
	return res, nil
}

func (u *auctionUseCaseImpl) GetByBorrower(ctx bCtx.Ctx, borrower domain.Address) ([]*auction.Auction, error) {
	return u.findAll(ctx, auction.WithBorrower(borrower))
}

func (u *auctionUseCaseImpl) findAll(ctx bCtx.Ctx, opts ...auction.SelectOptions) ([]*auction.Auction, error) {
	all, err := u.repo.FindAll(ctx, opts...)
	if err != nil {
		ctx.WithField("err", err).Error("repo.FindAll failed")
		return nil, err
	}
	now := u.clock.Now()
	for _, a := range all {
		a.Status = a.StatusAt(now)
	}
	return all, nil
}

func (u *auctionUseCaseImpl) RefreshStatuses(ctx bCtx.Ctx) error {
	now := u.clock.Now()
	return u.repo.UpdateEach(ctx, func(a *auction.Auction) {
		a.Status = a.StatusAt(now)
	})
}
