package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/loan"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusEndingSoon Status = "ending_soon"
	StatusEnded      Status = "ended"
	StatusFinalized  Status = "finalized"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status is immune to recomputation.
func (s Status) IsTerminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// EndingSoonWindow is how close to the end time an auction flips to
// ending_soon.
const EndingSoonWindow = time.Hour

// Auction is a time-bounded loan request. Lenders compete by offering lower
// total repayment amounts; only the current best bid is tracked.
type Auction struct {
	Id               string             `json:"id"`
	Borrower         domain.Address     `json:"borrower"`
	CollateralToken  domain.TokenSymbol `json:"collateralToken"`
	CollateralAmount decimal.Decimal    `json:"collateralAmount"`
	LoanToken        domain.TokenSymbol `json:"loanToken"`
	LoanAmount       decimal.Decimal    `json:"loanAmount"`
	MaxRepayment     decimal.Decimal    `json:"maxRepayment"`
	CurrentBid       *decimal.Decimal   `json:"currentBid"`
	CurrentBidder    *domain.Address    `json:"currentBidder"`
	BidCount         int32              `json:"bidCount"`
	AuctionEndTime   time.Time          `json:"auctionEndTime"`
	LoanDuration     string             `json:"loanDuration"`
	Status           Status             `json:"status"`
	CreatedAt        time.Time          `json:"createdAt"`
	TxHash           domain.TxHash      `json:"txHash"`
}

// TimeStatus maps an end time against the clock, ignoring terminal states.
func TimeStatus(endTime, now time.Time) Status {
	left := endTime.Sub(now)
	if left <= 0 {
		return StatusEnded
	}
	if left <= EndingSoonWindow {
		return StatusEndingSoon
	}
	return StatusActive
}

// StatusAt is the idempotent recompute rule. It never looks at bids.
func (a *Auction) StatusAt(now time.Time) Status {
	if a.Status.IsTerminal() {
		return a.Status
	}
	return TimeStatus(a.AuctionEndTime, now)
}

// BestRepayment is the amount a new bid must beat: the current bid if any,
// the max repayment ceiling otherwise.
func (a *Auction) BestRepayment() decimal.Decimal {
	if a.CurrentBid != nil {
		return *a.CurrentBid
	}
	return a.MaxRepayment
}

func (a *Auction) HasWinningBid() bool {
	return a.CurrentBid != nil && a.CurrentBidder != nil
}

// Clone deep-copies the auction so repository callers can not mutate the
// stored record.
func (a *Auction) Clone() *Auction {
	dup := *a
	if a.CurrentBid != nil {
		bid := *a.CurrentBid
		dup.CurrentBid = &bid
	}
	if a.CurrentBidder != nil {
		bidder := *a.CurrentBidder
		dup.CurrentBidder = &bidder
	}
	return &dup
}

// CreateParams is the borrower's auction request.
type CreateParams struct {
	CollateralToken  domain.TokenSymbol `json:"collateralToken" validate:"required"`
	CollateralAmount decimal.Decimal    `json:"collateralAmount"`
	LoanToken        domain.TokenSymbol `json:"loanToken" validate:"required"`
	LoanAmount       decimal.Decimal    `json:"loanAmount"`
	MaxRepayment     decimal.Decimal    `json:"maxRepayment"`
	LoanDuration     string             `json:"loanDuration" validate:"required"`
	AuctionDuration  string             `json:"auctionDuration" validate:"required"`
}

// Validate applies the fail-fast constraints checked before any simulated
// transaction is attempted.
func (p *CreateParams) Validate() error {
	if !p.CollateralAmount.IsPositive() {
		return domain.ErrInvalidCollateralAmount
	}
	if !p.LoanAmount.IsPositive() {
		return domain.ErrInvalidLoanAmount
	}
	if p.MaxRepayment.LessThanOrEqual(p.LoanAmount) {
		return domain.ErrInvalidMaxRepayment
	}
	if _, err := domain.ParseDuration(p.LoanDuration); err != nil {
		return err
	}
	if _, err := domain.ParseDuration(p.AuctionDuration); err != nil {
		return err
	}
	return nil
}

type selectOptions struct {
	Offset   *int32
	Limit    *int32
	Borrower *domain.Address
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

func WithStatuses(statuses ...Status) SelectOptions {
	return func(options *selectOptions) error {
		options.Statuses = statuses
		return nil
	}
}

func (o *selectOptions) Match(a *Auction) bool {
	if o.Borrower != nil && !a.Borrower.Equals(*o.Borrower) {
		return false
	}
	if len(o.Statuses) > 0 {
		ok := false
		for _, s := range o.Statuses {
			if a.Status == s {
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

// UpdateFn mutates an auction inside the repository's per-entity critical
// section. Returning an error aborts the update and leaves the stored record
// untouched.
type UpdateFn func(*Auction) error

type Repo interface {
	FindAll(c ctx.Ctx, opts ...SelectOptions) ([]*Auction, error)
	FindOne(c ctx.Ctx, id string) (*Auction, error)
	Create(c ctx.Ctx, value Auction) (*Auction, error)
	Update(c ctx.Ctx, id string, fn UpdateFn) (*Auction, error)
	UpdateEach(c ctx.Ctx, fn func(*Auction)) error
}

type Usecase interface {
	Create(c ctx.Ctx, params CreateParams, borrower domain.Address) (*Auction, error)
	PlaceBid(c ctx.Ctx, auctionId string, bidAmount decimal.Decimal, bidder domain.Address) (*Auction, error)
	Finalize(c ctx.Ctx, auctionId string) (*loan.Loan, error)
	Cancel(c ctx.Ctx, auctionId string, caller domain.Address) error
	Get(c ctx.Ctx, auctionId string) (*Auction, error)
	GetAll(c ctx.Ctx) ([]*Auction, error)
	GetActive(c ctx.Ctx) ([]*Auction, error)
	GetByBorrower(c ctx.Ctx, borrower domain.Address) ([]*Auction, error)
	RefreshStatuses(c ctx.Ctx) error
}
