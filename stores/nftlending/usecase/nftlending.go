package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/clock"
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/domain/nftlending"
	"github.com/the-gavel/goapi/service/chainmock"
)

type nftLendingUseCaseImpl struct {
	nfts     nftlending.NftRepo
	auctions nftlending.AuctionRepo
	loans    nftlending.LoanRepo
	executor chainmock.Executor
	recorder event.Recorder
	clock    clock.Clock
	metrics  metrics.Service
}

func NewNftLendingUseCase(nfts nftlending.NftRepo, auctions nftlending.AuctionRepo, loans nftlending.LoanRepo, executor chainmock.Executor, recorder event.Recorder, clk clock.Clock) nftlending.Usecase {
	return &nftLendingUseCaseImpl{
		nfts:     nfts,
		auctions: auctions,
		loans:    loans,
		executor: executor,
		recorder: recorder,
		clock:    clk,
		metrics:  metrics.New("nftlending"),
	}
}

func (u *nftLendingUseCaseImpl) MintNft(ctx bCtx.Ctx, params nftlending.MintParams, owner domain.Address) (*nftlending.Nft, error) {
	if owner.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if params.Collection == "" {
		return nil, domain.ErrBadParamInput
	}

	res, err := u.executor.MintTestNft(ctx, owner)
	if err != nil {
		ctx.WithField("err", err).Error("executor.MintTestNft failed")
		return nil, err
	}

	created, err := u.nfts.Create(ctx, nftlending.Nft{
		Collection:  params.Collection,
		TokenId:     fmt.Sprintf("#%s", string(res.TxHash[58:])),
		ImageUrl:    params.ImageUrl,
		Whitelisted: true,
		FloorPrice:  "~0.1 ETH",
		Category:    params.Category,
		Owner:       owner.ToLower(),
		MintedAt:    u.clock.Now(),
	})
	if err != nil {
		ctx.WithField("err", err).Error("nfts.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("mint.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.NftMinted,
		User:      owner,
		Details:   fmt.Sprintf("%s %s", created.Collection, created.TokenId),
		TxHash:    res.TxHash,
		RelatedId: created.Id,
	})
	return created, nil
}

func (u *nftLendingUseCaseImpl) GetNfts(ctx bCtx.Ctx, owner domain.Address) ([]*nftlending.Nft, error) {
	nfts, err := u.nfts.FindByOwner(ctx, owner)
	if err != nil {
		ctx.WithField("err", err).Error("nfts.FindByOwner failed")
		return nil, err
	}
	return nfts, nil
}

func (u *nftLendingUseCaseImpl) CreateAuction(ctx bCtx.Ctx, params nftlending.CreateAuctionParams, borrower domain.Address) (*nftlending.Auction, error) {
	if borrower.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	nft, err := u.nfts.FindOne(ctx, params.NftId)
	if err != nil {
		return nil, err
	}
	if !nft.Owner.Equals(borrower) {
		return nil, domain.ErrNotNftOwner
	}

	auctionDuration, err := domain.ParseDuration(params.AuctionDuration)
	if err != nil {
		return nil, err
	}

	res, err := u.executor.CreateAuction(ctx, borrower, decimal.NewFromInt(1))
	if err != nil {
		ctx.WithField("err", err).Error("executor.CreateAuction failed")
		return nil, err
	}

	// escrow the token: out of the collection while the auction runs
	escrowed, err := u.nfts.Remove(ctx, params.NftId)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	created, err := u.auctions.Create(ctx, nftlending.Auction{
		Borrower:       borrower.ToLower(),
		Nft:            *escrowed,
		LoanToken:      params.LoanToken,
		LoanAmount:     params.LoanAmount,
		MaxRepayment:   params.MaxRepayment,
		Bids:           []nftlending.Bid{},
		AuctionEndTime: now.Add(auctionDuration),
		LoanDuration:   params.LoanDuration,
		Status:         nftlending.AuctionStatusActive,
		CreatedAt:      now,
		TxHash:         res.TxHash,
	})
	if err != nil {
		ctx.WithField("err", err).Error("auctions.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("auction.create.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.AuctionCreated,
		User:      borrower,
		Amount:    &created.LoanAmount,
		Details:   fmt.Sprintf("%s %s against %s %s", created.LoanAmount, created.LoanToken, escrowed.Collection, escrowed.TokenId),
		TxHash:    res.TxHash,
		RelatedId: created.Id,
	})
	return created, nil
}

func (u *nftLendingUseCaseImpl) checkBid(a *nftlending.Auction, amount decimal.Decimal) error {
	switch a.StatusAt(u.clock.Now()) {
	case nftlending.AuctionStatusActive, nftlending.AuctionStatusEndingSoon:
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

func (u *nftLendingUseCaseImpl) PlaceBid(ctx bCtx.Ctx, auctionId string, amount decimal.Decimal, bidder domain.Address) (*nftlending.Auction, error) {
	if bidder.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidBidAmount
	}

	a, err := u.auctions.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	if err := u.checkBid(a, amount); err != nil {
		return nil, err
	}

	res, err := u.executor.PlaceBid(ctx, bidder, amount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.PlaceBid failed")
		return nil, err
	}

	updated, err := u.auctions.Update(ctx, auctionId, func(a *nftlending.Auction) error {
		if err := u.checkBid(a, amount); err != nil {
			return err
		}
		a.Bids = append([]nftlending.Bid{{
			Bidder:     bidder.ToLower(),
			Amount:     amount,
			SimpleRate: loan.SimpleRate(a.LoanAmount, amount),
			Timestamp:  u.clock.Now(),
		}}, a.Bids...)
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
		Amount:    &amount,
		Details:   fmt.Sprintf("repayment %s %s on auction %s", amount, updated.LoanToken, auctionId),
		TxHash:    res.TxHash,
		RelatedId: auctionId,
	})
	return updated, nil
}

func (u *nftLendingUseCaseImpl) FinalizeAuction(ctx bCtx.Ctx, auctionId string) (*nftlending.Loan, error) {
	a, err := u.auctions.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	if a.Status.IsTerminal() {
		return nil, domain.ErrAuctionClosed
	}
	if a.BestBid() == nil {
		return nil, domain.ErrNoWinningBid
	}

	res, err := u.executor.FinalizeAuction(ctx, auctionId)
	if err != nil {
		ctx.WithField("err", err).Error("executor.FinalizeAuction failed")
		return nil, err
	}

	finalized, err := u.auctions.Update(ctx, auctionId, func(a *nftlending.Auction) error {
		if a.Status.IsTerminal() {
			return domain.ErrAuctionClosed
		}
		if a.BestBid() == nil {
			return domain.ErrNoWinningBid
		}
		a.Status = nftlending.AuctionStatusFinalized
		return nil
	})
	if err != nil {
		return nil, err
	}

	duration, err := domain.ParseDuration(finalized.LoanDuration)
	if err != nil {
		return nil, err
	}
	days := domain.DurationDays(finalized.LoanDuration)

	best := finalized.BestBid()
	simpleRate := loan.SimpleRate(finalized.LoanAmount, best.Amount)

	now := u.clock.Now()
	newLoan, err := u.loans.Create(ctx, nftlending.Loan{
		AuctionId:       finalized.Id,
		Borrower:        finalized.Borrower,
		Lender:          best.Bidder,
		Nft:             finalized.Nft,
		LoanToken:       finalized.LoanToken,
		LoanAmount:      finalized.LoanAmount,
		RepaymentAmount: best.Amount,
		SimpleRate:      simpleRate,
		Apr:             simpleRate * 365 / float64(days),
		StartTime:       now,
		MaturityTime:    now.Add(duration),
		Status:          nftlending.LoanStatusActive,
		TxHash:          res.TxHash,
	})
	if err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "auction": auctionId}).Error("loan derivation failed, rolling back")
		if _, rbErr := u.auctions.Update(ctx, auctionId, func(a *nftlending.Auction) error {
			a.Status = nftlending.TimeStatus(a.AuctionEndTime, u.clock.Now())
			return nil
		}); rbErr != nil {
			ctx.WithField("err", rbErr).Error("finalize rollback failed")
		}
		return nil, err
	}

	u.metrics.BumpSum("finalize.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.AuctionFinalized,
		User:      best.Bidder,
		Amount:    &best.Amount,
		Details:   fmt.Sprintf("auction %s settled into loan %s", auctionId, newLoan.Id),
		TxHash:    res.TxHash,
		RelatedId: newLoan.Id,
	})
	return newLoan, nil
}

func (u *nftLendingUseCaseImpl) CancelAuction(ctx bCtx.Ctx, auctionId string, caller domain.Address) error {
	a, err := u.auctions.FindOne(ctx, auctionId)
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

	cancelled, err := u.auctions.Update(ctx, auctionId, func(a *nftlending.Auction) error {
		if !a.Borrower.Equals(caller) {
			return domain.ErrNotAuctionOwner
		}
		if a.Status.IsTerminal() {
			return domain.ErrAuctionClosed
		}
		a.Status = nftlending.AuctionStatusCancelled
		return nil
	})
	if err != nil {
		return err
	}

	// the escrowed token goes back to the borrower's collection
	if _, err := u.nfts.Create(ctx, cancelled.Nft); err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "nft": cancelled.Nft.Id}).Error("failed to return escrowed nft")
	}

	u.metrics.BumpSum("auction.cancel.count", 1)
	return nil
}

func (u *nftLendingUseCaseImpl) checkRepay(l *nftlending.Loan, caller domain.Address) error {
	if !l.Borrower.Equals(caller) {
		return domain.ErrNotBorrower
	}
	switch l.StatusAt(u.clock.Now()) {
	case nftlending.LoanStatusActive, nftlending.LoanStatusGracePeriod:
		return nil
	case nftlending.LoanStatusOverdue:
		return domain.ErrLoanPastGrace
	default:
		return domain.ErrLoanClosed
	}
}

func (u *nftLendingUseCaseImpl) Repay(ctx bCtx.Ctx, loanId string, caller domain.Address) (*nftlending.Loan, error) {
	l, err := u.loans.FindOne(ctx, loanId)
	if err != nil {
		return nil, err
	}
	if err := u.checkRepay(l, caller); err != nil {
		return nil, err
	}

	res, err := u.executor.RepayLoan(ctx, caller, l.RepaymentAmount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.RepayLoan failed")
		return nil, err
	}

	updated, err := u.loans.Update(ctx, loanId, func(l *nftlending.Loan) error {
		if err := u.checkRepay(l, caller); err != nil {
			return err
		}
		l.Status = nftlending.LoanStatusRepaid
		return nil
	})
	if err != nil {
		return nil, err
	}

	// collateral returns to the borrower
	returned := updated.Nft
	returned.Owner = updated.Borrower
	if _, err := u.nfts.Create(ctx, returned); err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "nft": returned.Id}).Error("failed to return collateral nft")
	}

	u.metrics.BumpSum("repay.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.LoanRepaid,
		User:      caller,
		Amount:    &updated.RepaymentAmount,
		Details:   fmt.Sprintf("repaid %s %s on loan %s", updated.RepaymentAmount, updated.LoanToken, loanId),
		TxHash:    res.TxHash,
		RelatedId: loanId,
	})
	return updated, nil
}

func (u *nftLendingUseCaseImpl) checkClaim(l *nftlending.Loan, caller domain.Address) error {
	if !l.Lender.Equals(caller) {
		return domain.ErrNotLender
	}
	switch l.StatusAt(u.clock.Now()) {
	case nftlending.LoanStatusOverdue:
		return nil
	case nftlending.LoanStatusActive, nftlending.LoanStatusGracePeriod:
		return domain.ErrGracePeriodActive
	default:
		return domain.ErrLoanClosed
	}
}

func (u *nftLendingUseCaseImpl) ClaimNft(ctx bCtx.Ctx, loanId string, caller domain.Address) (*nftlending.Loan, error) {
	l, err := u.loans.FindOne(ctx, loanId)
	if err != nil {
		return nil, err
	}
	if err := u.checkClaim(l, caller); err != nil {
		return nil, err
	}

	res, err := u.executor.ClaimCollateral(ctx, caller, loanId)
	if err != nil {
		ctx.WithField("err", err).Error("executor.ClaimCollateral failed")
		return nil, err
	}

	updated, err := u.loans.Update(ctx, loanId, func(l *nftlending.Loan) error {
		if err := u.checkClaim(l, caller); err != nil {
			return err
		}
		l.Status = nftlending.LoanStatusDefaulted
		return nil
	})
	if err != nil {
		return nil, err
	}

	// collateral goes to the lender
	claimed := updated.Nft
	claimed.Owner = updated.Lender
	if _, err := u.nfts.Create(ctx, claimed); err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "nft": claimed.Id}).Error("failed to deliver claimed nft")
	}

	u.metrics.BumpSum("claim.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.CollateralClaimed,
		User:      caller,
		Details:   fmt.Sprintf("claimed %s %s from loan %s", updated.Nft.Collection, updated.Nft.TokenId, loanId),
		TxHash:    res.TxHash,
		RelatedId: loanId,
	})
	return updated, nil
}

func (u *nftLendingUseCaseImpl) GetAuction(ctx bCtx.Ctx, auctionId string) (*nftlending.Auction, error) {
	a, err := u.auctions.FindOne(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	a.Status = a.StatusAt(u.clock.Now())
	return a, nil
}

func (u *nftLendingUseCaseImpl) GetAuctions(ctx bCtx.Ctx) ([]*nftlending.Auction, error) {
	all, err := u.auctions.FindAll(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("auctions.FindAll failed")
		return nil, err
	}
	now := u.clock.Now()
	for _, a := range all {
		a.Status = a.StatusAt(now)
	}
	return all, nil
}

func (u *nftLendingUseCaseImpl) GetLoan(ctx bCtx.Ctx, loanId string) (*nftlending.Loan, error) {
	l, err := u.loans.FindOne(ctx, loanId)
	if err != nil {
		return nil, err
	}
	l.Status = l.StatusAt(u.clock.Now())
	return l, nil
}

func (u *nftLendingUseCaseImpl) GetLoans(ctx bCtx.Ctx) ([]*nftlending.Loan, error) {
	all, err := u.loans.FindAll(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("loans.FindAll failed")
		return nil, err
	}
	now := u.clock.Now()
	for _, l := range all {
		l.Status = l.StatusAt(now)
	}
	return all, nil
}

func (u *nftLendingUseCaseImpl) RefreshStatuses(ctx bCtx.Ctx) error {
	now := u.clock.Now()
	if err := u.auctions.UpdateEach(ctx, func(a *nftlending.Auction) {
		a.Status = a.StatusAt(now)
	}); err != nil {
		return err
	}
	return u.loans.UpdateEach(ctx, func(l *nftlending.Loan) {
		l.Status = l.StatusAt(now)
	})
}
