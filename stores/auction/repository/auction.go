package repository

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/auction"
)

// auctionRepoImpl keeps the auction collection in memory. All reads return
// clones and all writes go through the per-repo lock, so Update closures are
// the only place compound check-then-write logic can run.
type auctionRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*auction.Auction
	order []string // newest first
}

func NewAuctionRepo() auction.Repo {
	return &auctionRepoImpl{byId: map[string]*auction.Auction{}}
}

func (r *auctionRepoImpl) nextId() string {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			n = big.NewInt(0)
		}
		id := fmt.Sprintf("#%d", 1000+n.Int64())
		if _, ok := r.byId[id]; !ok {
			return id
		}
	}
}

func (r *auctionRepoImpl) FindAll(ctx bCtx.Ctx, opts ...auction.SelectOptions) ([]*auction.Auction, error) {
	options, err := auction.GetSelectOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*auction.Auction{}
	for _, id := range r.order {
		if a := r.byId[id]; options.Match(a) {
			res = append(res, a.Clone())
		}
	}

	if options.Offset != nil && options.Limit != nil {
		res = paginate(res, *options.Offset, *options.Limit)
	}
	return res, nil
}

func paginate(res []*auction.Auction, offset, limit int32) []*auction.Auction {
	if offset >= int32(len(res)) {
		return []*auction.Auction{}
	}
	res = res[offset:]
	if limit > 0 && limit < int32(len(res)) {
		res = res[:limit]
	}
	return res
}

func (r *auctionRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *auctionRepoImpl) Create(ctx bCtx.Ctx, value auction.Auction) (*auction.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.Id == "" {
		value.Id = r.nextId()
	} else if _, ok := r.byId[value.Id]; ok {
		return nil, domain.ErrConflict
	}

	stored := value.Clone()
	r.byId[stored.Id] = stored
	r.order = append([]string{stored.Id}, r.order...)
	return stored.Clone(), nil
}

func (r *auctionRepoImpl) Update(ctx bCtx.Ctx, id string, fn auction.UpdateFn) (*auction.Auction, error) {
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

func (r *auctionRepoImpl) UpdateEach(ctx bCtx.Ctx, fn func(*auction.Auction)) error {
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
