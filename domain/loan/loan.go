package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusGracePeriod Status = "grace_period"
	StatusOverdue     Status = "overdue"
	StatusRepaid      Status = "repaid"
	StatusDefaulted   Status = "defaulted"
)

func (s Status) IsTerminal() bool {
	return s == StatusRepaid || s == StatusDefaulted
}

// GracePeriod is how long after maturity the borrower may still repay
// before the lender can claim the collateral.
const GracePeriod = 24 * time.Hour

// PositionSide names the two transferable sides of a loan.
type PositionSide string

const (
	SideBorrower PositionSide = "borrower"
	SideLender   PositionSide = "lender"
)

// Loan is a funded agreement created from a finalized auction. Both sides are
// represented by position tokens so either can be traded on the marketplace.
type Loan struct {
	Id               string             `json:"id"`
	AuctionId        string             `json:"auctionId"`
	Borrower         domain.Address     `json:"borrower"`
	Lender           domain.Address     `json:"lender"`
	CollateralToken  domain.TokenSymbol `json:"collateralToken"`
	CollateralAmount decimal.Decimal    `json:"collateralAmount"`
	LoanToken        domain.TokenSymbol `json:"loanToken"`
	LoanAmount       decimal.Decimal    `json:"loanAmount"`
	RepaymentAmount  decimal.Decimal    `json:"repaymentAmount"`
	SimpleRate       float64            `json:"simpleRate"`
	StartTime        time.Time          `json:"startTime"`
	MaturityTime     time.Time          `json:"maturityTime"`
	Status           Status             `json:"status"`
	BorrowerNftId    string             `json:"borrowerNftId"`
	LenderNftId      string             `json:"lenderNftId"`
	TxHash           domain.TxHash      `json:"txHash"`
}

// StatusAt recomputes the lifecycle state from the clock. Terminal states are
// never revised.
func (l *Loan) StatusAt(now time.Time) Status {
	if l.Status.IsTerminal() {
		return l.Status
	}
	if now.After(l.MaturityTime.Add(GracePeriod)) {
		return StatusOverdue
	}
	if now.After(l.MaturityTime) {
		return StatusGracePeriod
	}
	return StatusActive
}

// GraceEnd is the last instant the borrower may repay.
func (l *Loan) GraceEnd() time.Time {
	return l.MaturityTime.Add(GracePeriod)
}

// HolderOf returns the address currently holding the given side's position.
func (l *Loan) HolderOf(side PositionSide) domain.Address {
	if side == SideBorrower {
		return l.Borrower
	}
	return l.Lender
}

func (l *Loan) Clone() *Loan {
	dup := *l
	return &dup
}

// SimpleRate computes the non-annualized cost of a loan as a percentage of
// principal.
func SimpleRate(loanAmount, repayment decimal.Decimal) float64 {
	if !loanAmount.IsPositive() {
		return 0
	}
	rate, _ := repayment.Sub(loanAmount).Div(loanAmount).Mul(decimal.NewFromInt(100)).Float64()
	return rate
}

// AuctionSnapshot carries the finalized auction fields a loan is derived
// from, so this package does not depend on the auction package.
type AuctionSnapshot struct {
	AuctionId        string
	Borrower         domain.Address
	Lender           domain.Address
	CollateralToken  domain.TokenSymbol
	CollateralAmount decimal.Decimal
	LoanToken        domain.TokenSymbol
	LoanAmount       decimal.Decimal
	RepaymentAmount  decimal.Decimal
	LoanDuration     string
	TxHash           domain.TxHash
}

type selectOptions struct {
	Offset   *int32
	Limit    *int32
	Borrower *domain.Address
	Lender   *domain.Address
	Statuses []Status
}

type SelectOptions func(*selectOptions) error

func GetSelectOptions(opts ...SelectOptions) (selectOptions, error) {
	res := selectOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithPagination(offset int32, limit int32) SelectOptions {
	return func(options *selectOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func WithBorrower(borrower domain.Address) SelectOptions {
	return func(options *selectOptions) error {
		options.Borrower = borrower.ToLowerPtr()
		return nil
	}
}

func WithLender(lender domain.Address) SelectOptions {
	return func(options *selectOptions) error {
		options.Lender = lender.ToLowerPtr()
		return nil
	}
}

func WithStatuses(statuses ...Status) SelectOptions {
	return func(options *selectOptions) error {
		options.Statuses = statuses
		return nil
	}
}

func (o *selectOptions) Match(l *Loan) bool {
	if o.Borrower != nil && !l.Borrower.Equals(*o.Borrower) {
		return false
	}
	if o.Lender != nil && !l.Lender.Equals(*o.Lender) {
		return false
	}
	if len(o.Statuses) > 0 {
		ok := false
		for _, s := range o.Statuses {
			if l.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

type UpdateFn func(*Loan) error

type Repo interface {
	FindAll(c ctx.Ctx, opts ...SelectOptions) ([]*Loan, error)
	FindOne(c ctx.Ctx, id string) (*Loan, error)
	Create(c ctx.Ctx, value Loan) (*Loan, error)
	Update(c ctx.Ctx, id string, fn UpdateFn) (*Loan, error)
	UpdateEach(c ctx.Ctx, fn func(*Loan)) error
}

type Usecase interface {
	CreateFromAuction(c ctx.Ctx, snapshot AuctionSnapshot) (*Loan, error)
	Repay(c ctx.Ctx, loanId string, caller domain.Address) (*Loan, error)
	ClaimCollateral(c ctx.Ctx, loanId string, caller domain.Address) (*Loan, error)
	TransferPosition(c ctx.Ctx, loanId string, side PositionSide, from, to domain.Address) (*Loan, error)
	Get(c ctx.Ctx, loanId string) (*Loan, error)
	GetAll(c ctx.Ctx) ([]*Loan, error)
	GetActive(c ctx.Ctx) ([]*Loan, error)
	GetByBorrower(c ctx.Ctx, borrower domain.Address) ([]*Loan, error)
	GetByLender(c ctx.Ctx, lender domain.Address) ([]*Loan, error)
	RefreshStatuses(c ctx.Ctx) error
}
