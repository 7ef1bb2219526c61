package repository

import (
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/nftlending"
)

type auctionRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*nftlending.Auction
	order []string // newest first
}

func NewAuctionRepo() nftlending.AuctionRepo {
	return &auctionRepoImpl{byId: map[string]*nftlending.Auction{}}
}

func (r *auctionRepoImpl) FindAll(ctx bCtx.Ctx) ([]*nftlending.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*nftlending.Auction{}
	for _, id := range r.order {
		res = append(res, r.byId[id].Clone())
	}
	return res, nil
}

func (r *auctionRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*nftlending.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *auctionRepoImpl) Create(ctx bCtx.Ctx, value nftlending.Auction) (*nftlending.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.Id == "" {
		value.Id = generateId("nft-auction")
	} else if _, ok := r.byId[value.Id]; ok {
		return nil, domain.ErrConflict
	}

	stored := value.Clone()
	r.byId[stored.Id] = stored
	r.order = append([]string{stored.Id}, r.order...)
	return stored.Clone(), nil
}

func (r *auctionRepoImpl) Update(ctx bCtx.Ctx, id string, fn nftlending.AuctionUpdateFn) (*nftlending.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	next := stored.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Id = id
	r.byId[id] = next
	return next.Clone(), nil
}

func (r *auctionRepoImpl) UpdateEach(ctx bCtx.Ctx, fn func(*nftlending.Auction)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, stored := range r.byId {
		next := stored.Clone()
		fn(next)
		next.Id = id
		r.byId[id] = next
	}
	return nil
}
