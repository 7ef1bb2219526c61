package nftlending

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

// Nft is a mock collateral token held in a user's collection. Escrowed
// tokens are removed from the collection until the auction resolves.
type Nft struct {
	Id          string         `json:"id"`
	Collection  string         `json:"collection"`
	TokenId     string         `json:"tokenId"`
	ImageUrl    string         `json:"imageUrl"`
	Whitelisted bool           `json:"whitelisted"`
	FloorPrice  string         `json:"floorPrice"`
	Category    string         `json:"category"`
	Owner       domain.Address `json:"owner"`
	MintedAt    time.Time      `json:"mintedAt"`
}

func (n *Nft) Clone() *Nft {
	dup := *n
	return &dup
}

type AuctionStatus string

const (
	AuctionStatusActive     AuctionStatus = "active"
	AuctionStatusEndingSoon AuctionStatus = "ending_soon"
	AuctionStatusEnded      AuctionStatus = "ended"
	AuctionStatusFinalized  AuctionStatus = "finalized"
	AuctionStatusCancelled  AuctionStatus = "cancelled"
)

func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionStatusFinalized || s == AuctionStatusCancelled
}

const EndingSoonWindow = time.Hour

// Bid is one entry in an NFT auction's full bid history, newest first.
type Bid struct {
	Bidder     domain.Address  `json:"bidder"`
	Amount     decimal.Decimal `json:"amount"`
	SimpleRate float64         `json:"simpleRate"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Auction is a loan request collateralized by a single NFT. Unlike the
// fungible engine it keeps the whole bid ladder, not just the best bid.
type Auction struct {
	Id             string             `json:"id"`
	Borrower       domain.Address     `json:"borrower"`
	Nft            Nft                `json:"nft"`
	LoanToken      domain.TokenSymbol `json:"loanToken"`
	LoanAmount     decimal.Decimal    `json:"loanAmount"`
	MaxRepayment   decimal.Decimal    `json:"maxRepayment"`
	Bids           []Bid              `json:"bids"`
	AuctionEndTime time.Time          `json:"auctionEndTime"`
	LoanDuration   string             `json:"loanDuration"`
	Status         AuctionStatus      `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
	TxHash         domain.TxHash      `json:"txHash"`
}

// TimeStatus maps an end time against the clock, ignoring terminal states.
func TimeStatus(endTime, now time.Time) AuctionStatus {
	left := endTime.Sub(now)
	if left <= 0 {
		return AuctionStatusEnded
	}
	if left <= EndingSoonWindow {
		return AuctionStatusEndingSoon
	}
	return AuctionStatusActive
}

func (a *Auction) StatusAt(now time.Time) AuctionStatus {
	if a.Status.IsTerminal() {
		return a.Status
	}
	return TimeStatus(a.AuctionEndTime, now)
}

// BestBid returns the lowest-repayment bid, nil when the book is empty.
// Bids are stored newest first and each must improve on the last, so the
// head of the slice is the best.
func (a *Auction) BestBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	best := a.Bids[0]
	return &best
}

// BestRepayment is the ceiling a new bid must undercut.
func (a *Auction) BestRepayment() decimal.Decimal {
	if best := a.BestBid(); best != nil {
		return best.Amount
	}
	return a.MaxRepayment
}

func (a *Auction) Clone() *Auction {
	dup := *a
	dup.Bids = make([]Bid, len(a.Bids))
	copy(dup.Bids, a.Bids)
	return &dup
}

type LoanStatus string

const (
	LoanStatusActive      LoanStatus = "active"
	LoanStatusGracePeriod LoanStatus = "grace_period"
	LoanStatusOverdue     LoanStatus = "overdue"
	LoanStatusRepaid      LoanStatus = "repaid"
	LoanStatusDefaulted   LoanStatus = "defaulted"
)

func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusRepaid || s == LoanStatusDefaulted
}

const GracePeriod = 24 * time.Hour

// Loan is an NFT-collateralized loan. Apr annualizes the winning bid's
// simple rate over the loan term.
type Loan struct {
	Id              string             `json:"id"`
	AuctionId       string             `json:"auctionId"`
	Borrower        domain.Address     `json:"borrower"`
	Lender          domain.Address     `json:"lender"`
	Nft             Nft                `json:"nft"`
	LoanToken       domain.TokenSymbol `json:"loanToken"`
	LoanAmount      decimal.Decimal    `json:"loanAmount"`
	RepaymentAmount decimal.Decimal    `json:"repaymentAmount"`
	SimpleRate      float64            `json:"simpleRate"`
	Apr             float64            `json:"apr"`
	StartTime       time.Time          `json:"startTime"`
	MaturityTime    time.Time          `json:"maturityTime"`
	Status          LoanStatus         `json:"status"`
	TxHash          domain.TxHash      `json:"txHash"`
}

func (l *Loan) StatusAt(now time.Time) LoanStatus {
	if l.Status.IsTerminal() {
		return l.Status
	}
	if now.After(l.MaturityTime.Add(GracePeriod)) {
		return LoanStatusOverdue
	}
	if now.After(l.MaturityTime) {
		return LoanStatusGracePeriod
	}
	return LoanStatusActive
}

func (l *Loan) Clone() *Loan {
	dup := *l
	return &dup
}

type CreateAuctionParams struct {
	NftId           string             `json:"nftId" validate:"required"`
	LoanToken       domain.TokenSymbol `json:"loanToken" validate:"required"`
	LoanAmount      decimal.Decimal    `json:"loanAmount"`
	MaxRepayment    decimal.Decimal    `json:"maxRepayment"`
	LoanDuration    string             `json:"loanDuration" validate:"required"`
	AuctionDuration string             `json:"auctionDuration" validate:"required"`
}

func (p *CreateAuctionParams) Validate() error {
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

type MintParams struct {
	Collection string `json:"collection" validate:"required"`
	ImageUrl   string `json:"imageUrl"`
	Category   string `json:"category"`
}

type NftUpdateFn func(*Nft) error

type AuctionUpdateFn func(*Auction) error

type LoanUpdateFn func(*Loan) error

type NftRepo interface {
	FindAll(c ctx.Ctx) ([]*Nft, error)
	FindByOwner(c ctx.Ctx, owner domain.Address) ([]*Nft, error)
	FindOne(c ctx.Ctx, id string) (*Nft, error)
	Create(c ctx.Ctx, value Nft) (*Nft, error)
	Update(c ctx.Ctx, id string, fn NftUpdateFn) (*Nft, error)
	Remove(c ctx.Ctx, id string) (*Nft, error)
}

type AuctionRepo interface {
	FindAll(c ctx.Ctx) ([]*Auction, error)
	FindOne(c ctx.Ctx, id string) (*Auction, error)
	Create(c ctx.Ctx, value Auction) (*Auction, error)
	Update(c ctx.Ctx, id string, fn AuctionUpdateFn) (*Auction, error)
	UpdateEach(c ctx.Ctx, fn func(*Auction)) error
}

type LoanRepo interface {
	FindAll(c ctx.Ctx) ([]*Loan, error)
	FindOne(c ctx.Ctx, id string) (*Loan, error)
	Create(c ctx.Ctx, value Loan) (*Loan, error)
	Update(c ctx.Ctx, id string, fn LoanUpdateFn) (*Loan, error)
	UpdateEach(c ctx.Ctx, fn func(*Loan)) error
}

type Usecase interface {
	MintNft(c ctx.Ctx, params MintParams, owner domain.Address) (*Nft, error)
	GetNfts(c ctx.Ctx, owner domain.Address) ([]*Nft, error)
	CreateAuction(c ctx.Ctx, params CreateAuctionParams, borrower domain.Address) (*Auction, error)
	PlaceBid(c ctx.Ctx, auctionId string, amount decimal.Decimal, bidder domain.Address) (*Auction, error)
	FinalizeAuction(c ctx.Ctx, auctionId string) (*Loan, error)
	CancelAuction(c ctx.Ctx, auctionId string, caller domain.Address) error
	Repay(c ctx.Ctx, loanId string, caller domain.Address) (*Loan, error)
	ClaimNft(c ctx.Ctx, loanId string, caller domain.Address) (*Loan, error)
	GetAuction(c ctx.Ctx, auctionId string) (*Auction, error)
	GetAuctions(c ctx.Ctx) ([]*Auction, error)
	GetLoan(c ctx.Ctx, loanId string) (*Loan, error)
	GetLoans(c ctx.Ctx) ([]*Loan, error)
	RefreshStatuses(c ctx.Ctx) error
}
