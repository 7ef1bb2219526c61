package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/loan"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusCancelled ListingStatus = "cancelled"
)

func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusSold || s == ListingStatusCancelled
}

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusCancelled OfferStatus = "cancelled"
	OfferStatusExpired   OfferStatus = "expired"
)

func (s OfferStatus) IsTerminal() bool {
	return s != OfferStatusPending
}

// OfferTTL is how long an unanswered offer stays actionable.
const OfferTTL = 24 * time.Hour

// Listing puts one side of a loan up for sale at a fixed ask. The loan
// fields are denormalized at listing time so browsing needs no joins; the
// loan record stays authoritative for ownership checks.
type Listing struct {
	Id        string             `json:"id"`
	LoanId    string             `json:"loanId"`
	Side      loan.PositionSide  `json:"side"`
	Seller    domain.Address     `json:"seller"`
	AskPrice  decimal.Decimal    `json:"askPrice"`
	AskToken  domain.TokenSymbol `json:"askToken"`
	Loan      loan.Loan          `json:"loan"`
	Status    ListingStatus      `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	TxHash    domain.TxHash      `json:"txHash"`
}

func (l *Listing) Clone() *Listing {
	dup := *l
	return &dup
}

// Offer is a below-ask proposal on a listing. Only the listing's seller can
// accept it, and only while both offer and listing are still open.
type Offer struct {
	Id        string          `json:"id"`
	ListingId string          `json:"listingId"`
	Offerer   domain.Address  `json:"offerer"`
	Amount    decimal.Decimal `json:"amount"`
	Status    OfferStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

func (o *Offer) Clone() *Offer {
	dup := *o
	return &dup
}

// StatusAt expires pending offers past their deadline.
func (o *Offer) StatusAt(now time.Time) OfferStatus {
	if o.Status.IsTerminal() {
		return o.Status
	}
	if now.After(o.ExpiresAt) {
		return OfferStatusExpired
	}
	return OfferStatusPending
}

type ListParams struct {
	LoanId   string             `json:"loanId" validate:"required"`
	Side     loan.PositionSide  `json:"side" validate:"required,oneof=borrower lender"`
	AskPrice decimal.Decimal    `json:"askPrice"`
	AskToken domain.TokenSymbol `json:"askToken" validate:"required"`
}

func (p *ListParams) Validate() error {
	if !p.AskPrice.IsPositive() {
		return domain.ErrInvalidPrice
	}
	return nil
}

type listingSelectOptions struct {
	Offset   *int32
	Limit    *int32
	Seller   *domain.Address
	LoanId   *string
	Statuses []ListingStatus
}

type ListingSelectOptions func(*listingSelectOptions) error

func GetListingSelectOptions(opts ...ListingSelectOptions) (listingSelectOptions, error) {
	res := listingSelectOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func ListingWithPagination(offset int32, limit int32) ListingSelectOptions {
	return func(options *listingSelectOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func ListingWithSeller(seller domain.Address) ListingSelectOptions {
	return func(options *listingSelectOptions) error {
		options.Seller = seller.ToLowerPtr()
		return nil
	}
}

func ListingWithLoan(loanId string) ListingSelectOptions {
	return func(options *listingSelectOptions) error {
		options.LoanId = &loanId
		return nil
	}
}

func ListingWithStatuses(statuses ...ListingStatus) ListingSelectOptions {
	return func(options *listingSelectOptions) error {
		options.Statuses = statuses
		return nil
	}
}

func (o *listingSelectOptions) Match(l *Listing) bool {
	if o.Seller != nil && !l.Seller.Equals(*o.Seller) {
		return false
	}
	if o.LoanId != nil && l.LoanId != *o.LoanId {
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

type offerSelectOptions struct {
	ListingId *string
	Offerer   *domain.Address
	Statuses  []OfferStatus
}

type OfferSelectOptions func(*offerSelectOptions) error

func GetOfferSelectOptions(opts ...OfferSelectOptions) (offerSelectOptions, error) {
	res := offerSelectOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func OfferWithListing(listingId string) OfferSelectOptions {
	return func(options *offerSelectOptions) error {
		options.ListingId = &listingId
		return nil
	}
}

func OfferWithOfferer(offerer domain.Address) OfferSelectOptions {
	return func(options *offerSelectOptions) error {
		options.Offerer = offerer.ToLowerPtr()
		return nil
	}
}

func OfferWithStatuses(statuses ...OfferStatus) OfferSelectOptions {
	return func(options *offerSelectOptions) error {
		options.Statuses = statuses
		return nil
	}
}

func (o *offerSelectOptions) Match(of *Offer) bool {
	if o.ListingId != nil && of.ListingId != *o.ListingId {
		return false
	}
	if o.Offerer != nil && !of.Offerer.Equals(*o.Offerer) {
		return false
	}
	if len(o.Statuses) > 0 {
		ok := false
		for _, s := range o.Statuses {
			if of.Status == s {
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

type ListingUpdateFn func(*Listing) error

type OfferUpdateFn func(*Offer) error

type ListingRepo interface {
	FindAll(c ctx.Ctx, opts ...ListingSelectOptions) ([]*Listing, error)
	FindOne(c ctx.Ctx, id string) (*Listing, error)
	Create(c ctx.Ctx, value Listing) (*Listing, error)
	Update(c ctx.Ctx, id string, fn ListingUpdateFn) (*Listing, error)
}

type OfferRepo interface {
	FindAll(c ctx.Ctx, opts ...OfferSelectOptions) ([]*Offer, error)
	FindOne(c ctx.Ctx, id string) (*Offer, error)
	Create(c ctx.Ctx, value Offer) (*Offer, error)
	Update(c ctx.Ctx, id string, fn OfferUpdateFn) (*Offer, error)
	UpdateEach(c ctx.Ctx, fn func(*Offer)) error
}

type Usecase interface {
	List(c ctx.Ctx, params ListParams, seller domain.Address) (*Listing, error)
	Buy(c ctx.Ctx, listingId string, buyer domain.Address) (*Listing, error)
	Cancel(c ctx.Ctx, listingId string, caller domain.Address) error
	MakeOffer(c ctx.Ctx, listingId string, amount decimal.Decimal, offerer domain.Address) (*Offer, error)
	AcceptOffer(c ctx.Ctx, offerId string, caller domain.Address) (*Listing, error)
	Get(c ctx.Ctx, listingId string) (*Listing, error)
	GetAll(c ctx.Ctx) ([]*Listing, error)
	GetActive(c ctx.Ctx) ([]*Listing, error)
	GetBySeller(c ctx.Ctx, seller domain.Address) ([]*Listing, error)
	GetOffers(c ctx.Ctx, listingId string) ([]*Offer, error)
	RefreshOffers(c ctx.Ctx) error
}
