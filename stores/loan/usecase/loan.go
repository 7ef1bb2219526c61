package usecase

import (
	"fmt"

	"github.com/the-gavel/goapi/base/clock"
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/service/chainmock"
	"github.com/the-gavel/goapi/stores/loan/repository"
)

type loanUseCaseImpl struct {
	repo     loan.Repo
	executor chainmock.Executor
	recorder event.Recorder
	clock    clock.Clock
	metrics  metrics.Service
}

func NewLoanUseCase(repo loan.Repo, executor chainmock.Executor, recorder event.Recorder, clk clock.Clock) loan.Usecase {
	return &loanUseCaseImpl{
		repo:     repo,
		executor: executor,
		recorder: recorder,
		clock:    clk,
		metrics:  metrics.New("loan"),
	}
}

// CreateFromAuction derives a loan from a finalized auction snapshot. It is
// a pure insertion, no simulated transaction runs here. The finalize command
// already paid for one.
func (u *loanUseCaseImpl) CreateFromAuction(ctx bCtx.Ctx, snapshot loan.AuctionSnapshot) (*loan.Loan, error) {
	if snapshot.Borrower.IsEmpty() || snapshot.Lender.IsEmpty() {
		return nil, domain.ErrNoWinningBid
	}
	if snapshot.RepaymentAmount.LessThan(snapshot.LoanAmount) {
		return nil, domain.ErrInvalidMaxRepayment
	}

	duration, err := domain.ParseDuration(snapshot.LoanDuration)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	created, err := u.repo.Create(ctx, loan.Loan{
		AuctionId:        snapshot.AuctionId,
		Borrower:         snapshot.Borrower.ToLower(),
		Lender:           snapshot.Lender.ToLower(),
		CollateralToken:  snapshot.CollateralToken,
		CollateralAmount: snapshot.CollateralAmount,
		LoanToken:        snapshot.LoanToken,
		LoanAmount:       snapshot.LoanAmount,
		RepaymentAmount:  snapshot.RepaymentAmount,
		SimpleRate:       loan.SimpleRate(snapshot.LoanAmount, snapshot.RepaymentAmount),
		StartTime:        now,
		MaturityTime:     now.Add(duration),
		Status:           loan.StatusActive,
		BorrowerNftId:    repository.NextPositionId(),
		LenderNftId:      repository.NextPositionId(),
		TxHash:           snapshot.TxHash,
	})
	if err != nil {
		ctx.WithField("err", err).Error("repo.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("create.count", 1)
	return created, nil
}

func (u *loanUseCaseImpl) Repay(ctx bCtx.Ctx, loanId string, caller domain.Address) (*loan.Loan, error) {
	l, err := u.repo.FindOne(ctx, loanId)
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

	updated, err := u.repo.Update(ctx, loanId, func(l *loan.Loan) error {
		if err := u.checkRepay(l, caller); err != nil {
			return err
		}
		l.Status = loan.StatusRepaid
		return nil
	})
	if err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "loan": loanId}).Warn("repay rejected after confirmation")
		return nil, err
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

func (u *loanUseCaseImpl) checkRepay(l *loan.Loan, caller domain.Address) error {
	if !l.Borrower.Equals(caller) {
		return domain.ErrNotBorrower
	}
	switch l.StatusAt(u.clock.Now()) {
	case loan.StatusActive, loan.StatusGracePeriod:
		return nil
	case loan.StatusOverdue:
		return domain.ErrLoanPastGrace
	default:
		return domain.ErrLoanClosed
	}
}

func (u *loanUseCaseImpl) ClaimCollateral(ctx bCtx.Ctx, loanId string, caller domain.Address) (*loan.Loan, error) {
	l, err := u.repo.FindOne(ctx, loanId)
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

	updated, err := u.repo.Update(ctx, loanId, func(l *loan.Loan) error {
		if err := u.checkClaim(l, caller); err != nil {
			return err
		}
		l.Status = loan.StatusDefaulted
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.BumpSum("claim.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.CollateralClaimed,
		User:      caller,
		Amount:    &updated.CollateralAmount,
		Details:   fmt.Sprintf("claimed %s %s from loan %s", updated.CollateralAmount, updated.CollateralToken, loanId),
		TxHash:    res.TxHash,
		RelatedId: loanId,
	})
	return updated, nil
}

func (u *loanUseCaseImpl) checkClaim(l *loan.Loan, caller domain.Address) error {
	if !l.Lender.Equals(caller) {
		return domain.ErrNotLender
	}
	switch l.StatusAt(u.clock.Now()) {
	case loan.StatusOverdue:
		return nil
	case loan.StatusActive, loan.StatusGracePeriod:
		return domain.ErrGracePeriodActive
	default:
		return domain.ErrLoanClosed
	}
}

// TransferPosition reassigns one side of a loan to a new holder. It runs no
// simulated transaction of its own; the marketplace command that triggered
// it already did.
func (u *loanUseCaseImpl) TransferPosition(ctx bCtx.Ctx, loanId string, side loan.PositionSide, from, to domain.Address) (*loan.Loan, error) {
	if to.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}

	updated, err := u.repo.Update(ctx, loanId, func(l *loan.Loan) error {
		if !l.HolderOf(side).Equals(from) {
			return domain.ErrNotPositionHolder
		}
		if side == loan.SideBorrower {
			l.Borrower = to.ToLower()
		} else {
			l.Lender = to.ToLower()
		}
		return nil
	})
	if err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "loan": loanId}).Warn("position transfer rejected")
		return nil, err
	}

	u.metrics.BumpSum("transfer.count", 1)
	return updated, nil
}

func (u *loanUseCaseImpl) Get(ctx bCtx.Ctx, loanId string) (*loan.Loan, error) {
	l, err := u.repo.FindOne(ctx, loanId)
	if err != nil {
		return nil, err
	}
	l.Status = l.StatusAt(u.clock.Now())
	return l, nil
}

func (u *loanUseCaseImpl) GetAll(ctx bCtx.Ctx) ([]*loan.Loan, error) {
	return u.findAll(ctx)
}

func (u *loanUseCaseImpl) GetActive(ctx bCtx.Ctx) ([]*loan.Loan, error) {
	all, err := u.findAll(ctx)
	if err != nil {
		return nil, err
	}
	res := []*loan.Loan{}
	for _, l := range all {
		if !l.Status.IsTerminal() {
			res = append(res, l)
		}
	}
	return res, nil
}

func (u *loanUseCaseImpl) GetByBorrower(ctx bCtx.Ctx, borrower domain.Address) ([]*loan.Loan, error) {
	return u.findAll(ctx, loan.WithBorrower(borrower))
}

func (u *loanUseCaseImpl) GetByLender(ctx bCtx.Ctx, lender domain.Address) ([]*loan.Loan, error) {
	return u.findAll(ctx, loan.WithLender(lender))
}

func (u *loanUseCaseImpl) findAll(ctx bCtx.Ctx, opts ...loan.SelectOptions) ([]*loan.Loan, error) {
	all, err := u.repo.FindAll(ctx, opts...)
	if err != nil {
		ctx.WithField("err", err).Error("repo.FindAll failed")
		return nil, err
	}
	now := u.clock.Now()
	for _, l := range all {
		l.Status = l.StatusAt(now)
	}
	return all, nil
}

func (u *loanUseCaseImpl) RefreshStatuses(ctx bCtx.Ctx) error {
	now := u.clock.Now()
	return u.repo.UpdateEach(ctx, func(l *loan.Loan) {
		l.Status = l.StatusAt(now)
	})
}
