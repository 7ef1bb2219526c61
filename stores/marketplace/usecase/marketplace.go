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
	"github.com/the-gavel/goapi/domain/marketplace"
	"github.com/the-gavel/goapi/service/chainmock"
)

type marketplaceUseCaseImpl struct {
	listings marketplace.ListingRepo
	offers   marketplace.OfferRepo
	loans    loan.Usecase
	executor chainmock.Executor
	recorder event.Recorder
	clock    clock.Clock
	metrics  metrics.Service
}

func NewMarketplaceUseCase(listings marketplace.ListingRepo, offers marketplace.OfferRepo, loans loan.Usecase, executor chainmock.Executor, recorder event.Recorder, clk clock.Clock) marketplace.Usecase {
	return &marketplaceUseCaseImpl{
		listings: listings,
		offers:   offers,
		loans:    loans,
		executor: executor,
		recorder: recorder,
		clock:    clk,
		metrics:  metrics.New("marketplace"),
	}
}

func (u *marketplaceUseCaseImpl) List(ctx bCtx.Ctx, params marketplace.ListParams, seller domain.Address) (*marketplace.Listing, error) {
	if seller.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	l, err := u.loans.Get(ctx, params.LoanId)
	if err != nil {
		return nil, err
	}
	if l.Status.IsTerminal() {
		return nil, domain.ErrLoanClosed
	}
	if !l.HolderOf(params.Side).Equals(seller) {
		return nil, domain.ErrNotPositionHolder
	}

	open, err := u.listings.FindAll(ctx,
		marketplace.ListingWithLoan(params.LoanId),
		marketplace.ListingWithStatuses(marketplace.ListingStatusActive))
	if err != nil {
		ctx.WithField("err", err).Error("listings.FindAll failed")
		return nil, err
	}
	for _, existing := range open {
		if existing.Side == params.Side {
			return nil, domain.ErrListingExists
		}
	}

	res, err := u.executor.ListPosition(ctx, seller, params.AskPrice)
	if err != nil {
		ctx.WithField("err", err).Error("executor.ListPosition failed")
		return nil, err
	}

	created, err := u.listings.Create(ctx, marketplace.Listing{
		LoanId:    params.LoanId,
		Side:      params.Side,
		Seller:    seller.ToLower(),
		AskPrice:  params.AskPrice,
		AskToken:  params.AskToken,
		Loan:      *l,
		Status:    marketplace.ListingStatusActive,
		CreatedAt: u.clock.Now(),
		TxHash:    res.TxHash,
	})
	if err != nil {
		ctx.WithField("err", err).Error("listings.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("list.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.PositionListed,
		User:      seller,
		Amount:    &created.AskPrice,
		Details:   fmt.Sprintf("%s position of loan %s at %s %s", created.Side, created.LoanId, created.AskPrice, created.AskToken),
		TxHash:    res.TxHash,
		RelatedId: created.Id,
	})
	return created, nil
}

// settle marks the listing sold and hands the position to the buyer. Both
// mutations must land or neither: the listing flips first under its lock,
// and a failed transfer rolls it back.
func (u *marketplaceUseCaseImpl) settle(ctx bCtx.Ctx, listingId string, buyer domain.Address, price decimal.Decimal, txHash domain.TxHash) (*marketplace.Listing, error) {
	sold, err := u.listings.Update(ctx, listingId, func(l *marketplace.Listing) error {
		if l.Status != marketplace.ListingStatusActive {
			return domain.ErrListingClosed
		}
		l.Status = marketplace.ListingStatusSold
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := u.loans.TransferPosition(ctx, sold.LoanId, sold.Side, sold.Seller, buyer); err != nil {
		ctx.WithFields(map[string]interface{}{"err": err, "listing": listingId}).Error("position transfer failed, rolling back")
		if _, rbErr := u.listings.Update(ctx, listingId, func(l *marketplace.Listing) error {
			l.Status = marketplace.ListingStatusActive
			return nil
		}); rbErr != nil {
			ctx.WithField("err", rbErr).Error("listing rollback failed")
		}
		return nil, err
	}

	u.metrics.BumpSum("buy.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.PositionBought,
		User:      buyer,
		Amount:    &price,
		Details:   fmt.Sprintf("bought %s position of loan %s", sold.Side, sold.LoanId),
		TxHash:    txHash,
		RelatedId: listingId,
	})
	u.recorder.Record(ctx, event.Event{
		Name:      event.PositionSold,
		User:      sold.Seller,
		Amount:    &price,
		Details:   fmt.Sprintf("sold %s position of loan %s", sold.Side, sold.LoanId),
		TxHash:    txHash,
		RelatedId: listingId,
	})
	return sold, nil
}

func (u *marketplaceUseCaseImpl) Buy(ctx bCtx.Ctx, listingId string, buyer domain.Address) (*marketplace.Listing, error) {
	if buyer.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}

	l, err := u.listings.FindOne(ctx, listingId)
	if err != nil {
		return nil, err
	}
	if l.Status != marketplace.ListingStatusActive {
		return nil, domain.ErrListingClosed
	}
	if l.Seller.Equals(buyer) {
		return nil, domain.ErrOwnListing
	}

	res, err := u.executor.BuyPosition(ctx, buyer, l.AskPrice)
	if err != nil {
		ctx.WithField("err", err).Error("executor.BuyPosition failed")
		return nil, err
	}

	return u.settle(ctx, listingId, buyer, l.AskPrice, res.TxHash)
}

func (u *marketplaceUseCaseImpl) Cancel(ctx bCtx.Ctx, listingId string, caller domain.Address) error {
	l, err := u.listings.FindOne(ctx, listingId)
	if err != nil {
		return err
	}
	if !l.Seller.Equals(caller) {
		return domain.ErrNotSeller
	}
	if l.Status != marketplace.ListingStatusActive {
		return domain.ErrListingClosed
	}

	if _, err := u.executor.CancelListing(ctx, listingId); err != nil {
		ctx.WithField("err", err).Error("executor.CancelListing failed")
		return err
	}

	if _, err := u.listings.Update(ctx, listingId, func(l *marketplace.Listing) error {
		if !l.Seller.Equals(caller) {
			return domain.ErrNotSeller
		}
		if l.Status != marketplace.ListingStatusActive {
			return domain.ErrListingClosed
		}
		l.Status = marketplace.ListingStatusCancelled
		return nil
	}); err != nil {
		return err
	}

	u.metrics.BumpSum("cancel.count", 1)
	return nil
}

func (u *marketplaceUseCaseImpl) MakeOffer(ctx bCtx.Ctx, listingId string, amount decimal.Decimal, offerer domain.Address) (*marketplace.Offer, error) {
	if offerer.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidOfferAmount
	}

	l, err := u.listings.FindOne(ctx, listingId)
	if err != nil {
		return nil, err
	}
	if l.Status != marketplace.ListingStatusActive {
		return nil, domain.ErrListingClosed
	}
	if l.Seller.Equals(offerer) {
		return nil, domain.ErrOwnListing
	}

	res, err := u.executor.MakeOffer(ctx, offerer, amount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.MakeOffer failed")
		return nil, err
	}

	now := u.clock.Now()
	created, err := u.offers.Create(ctx, marketplace.Offer{
		ListingId: listingId,
		Offerer:   offerer.ToLower(),
		Amount:    amount,
		Status:    marketplace.OfferStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(marketplace.OfferTTL),
	})
	if err != nil {
		ctx.WithField("err", err).Error("offers.Create failed")
		return nil, err
	}

	u.metrics.BumpSum("offer.count", 1)
	u.recorder.Record(ctx, event.Event{
		Name:      event.OfferMade,
		User:      offerer,
		Amount:    &amount,
		Details:   fmt.Sprintf("offered %s on listing %s", amount, listingId),
		TxHash:    res.TxHash,
		RelatedId: listingId,
	})
	return created, nil
}

func (u *marketplaceUseCaseImpl) AcceptOffer(ctx bCtx.Ctx, offerId string, caller domain.Address) (*marketplace.Listing, error) {
	o, err := u.offers.FindOne(ctx, offerId)
	if err != nil {
		return nil, err
	}
	switch o.StatusAt(u.clock.Now()) {
	case marketplace.OfferStatusPending:
	case marketplace.OfferStatusExpired:
		return nil, domain.ErrOfferExpired
	default:
		return nil, domain.ErrOfferClosed
	}

	l, err := u.listings.FindOne(ctx, o.ListingId)
	if err != nil {
		return nil, err
	}
	if !l.Seller.Equals(caller) {
		return nil, domain.ErrNotSeller
	}
	if l.Status != marketplace.ListingStatusActive {
		return nil, domain.ErrListingClosed
	}

	res, err := u.executor.BuyPosition(ctx, o.Offerer, o.Amount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.BuyPosition failed")
		return nil, err
	}

	accepted, err := u.offers.Update(ctx, offerId, func(o *marketplace.Offer) error {
		if o.StatusAt(u.clock.Now()) != marketplace.OfferStatusPending {
			return domain.ErrOfferClosed
		}
		o.Status = marketplace.OfferStatusAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}

	sold, err := u.settle(ctx, o.ListingId, accepted.Offerer, accepted.Amount, res.TxHash)
	if err != nil {
		if _, rbErr := u.offers.Update(ctx, offerId, func(o *marketplace.Offer) error {
			o.Status = marketplace.OfferStatusPending
			return nil
		}); rbErr != nil {
			ctx.WithField("err", rbErr).Error("offer rollback failed")
		}
		return nil, err
	}

	// the listing is sold, remaining pending offers on it are moot
	siblings, err := u.offers.FindAll(ctx, marketplace.OfferWithListing(o.ListingId))
	if err != nil {
		ctx.WithField("err", err).Warn("sibling offer lookup failed")
		return sold, nil
	}
	now := u.clock.Now()
	for _, sib := range siblings {
		if sib.Id == offerId || sib.StatusAt(now) != marketplace.OfferStatusPending {
			continue
		}
		if _, err := u.offers.Update(ctx, sib.Id, func(s *marketplace.Offer) error {
			s.Status = marketplace.OfferStatusCancelled
			return nil
		}); err != nil {
			ctx.WithFields(map[string]interface{}{"err": err, "offer": sib.Id}).Warn("sibling offer cancel failed")
		}
	}
	return sold, nil
}

func (u *marketplaceUseCaseImpl) Get(ctx bCtx.Ctx, listingId string) (*marketplace.Listing, error) {
	return u.listings.FindOne(ctx, listingId)
}

func (u *marketplaceUseCaseImpl) GetAll(ctx bCtx.Ctx) ([]*marketplace.Listing, error) {
	return u.listings.FindAll(ctx)
}

func (u *marketplaceUseCaseImpl) GetActive(ctx bCtx.Ctx) ([]*marketplace.Listing, error) {
	return u.listings.FindAll(ctx, marketplace.ListingWithStatuses(marketplace.ListingStatusActive))
}

func (u *marketplaceUseCaseImpl) GetBySeller(ctx bCtx.Ctx, seller domain.Address) ([]*marketplace.Listing, error) {
	return u.listings.FindAll(ctx, marketplace.ListingWithSeller(seller))
}

func (u *marketplaceUseCaseImpl) GetOffers(ctx bCtx.Ctx, listingId string) ([]*marketplace.Offer, error) {
	offers, err := u.offers.FindAll(ctx, marketplace.OfferWithListing(listingId))
	if err != nil {
		return nil, err
	}
	now := u.clock.Now()
	for _, o := range offers {
		o.Status = o.StatusAt(now)
	}
	return offers, nil
}

func (u *marketplaceUseCaseImpl) RefreshOffers(ctx bCtx.Ctx) error {
	now := u.clock.Now()
	return u.offers.UpdateEach(ctx, func(o *marketplace.Offer) {
		o.Status = o.StatusAt(now)
	})
}
