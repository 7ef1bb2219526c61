package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

type Name string

const (
	AuctionCreated    Name = "auction_created"
	BidPlaced         Name = "bid_placed"
	AuctionFinalized  Name = "auction_finalized"
	LoanRepaid        Name = "loan_repaid"
	CollateralClaimed Name = "collateral_claimed"
	PositionListed    Name = "position_listed"
	PositionBought    Name = "position_bought"
	PositionSold      Name = "position_sold"
	OfferMade         Name = "offer_made"
	NftMinted         Name = "nft_minted"
)

// Event is what engines emit when an operation commits. Recording is
// fire-and-forget; a failed emit never fails the operation.
type Event struct {
	Name      Name             `json:"name"`
	User      domain.Address   `json:"user"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Details   string           `json:"details"`
	TxHash    domain.TxHash    `json:"txHash,omitempty"`
	RelatedId string           `json:"relatedId,omitempty"`
}

// Entry is a recorded event with its feed identity.
type Entry struct {
	Id        string           `json:"id"`
	Time      time.Time        `json:"time"`
	Name      Name             `json:"name"`
	User      domain.Address   `json:"user"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Details   string           `json:"details"`
	TxHash    domain.TxHash    `json:"txHash,omitempty"`
	RelatedId string           `json:"relatedId,omitempty"`
}

// Recorder is the emit side used by the engines.
type Recorder interface {
	Record(c ctx.Ctx, ev Event)
}

// Stats is the aggregate view served to the analytics dashboard.
type Stats struct {
	TotalEvents    int64          `json:"totalEvents"`
	CountsByName   map[Name]int64 `json:"countsByName"`
	ActiveAuctions int64          `json:"activeAuctions"`
	ActiveLoans    int64          `json:"activeLoans"`
}

type Repo interface {
	Add(c ctx.Ctx, entry Entry) (*Entry, error)
	FindRecent(c ctx.Ctx, limit int32) ([]*Entry, error)
	FindByUser(c ctx.Ctx, user domain.Address, limit int32) ([]*Entry, error)
	CountByName(c ctx.Ctx) (map[Name]int64, error)
}

type Usecase interface {
	GetRecent(c ctx.Ctx, limit int32) ([]*Entry, error)
	GetByUser(c ctx.Ctx, user domain.Address, limit int32) ([]*Entry, error)
	GetStats(c ctx.Ctx) (*Stats, error)
}
