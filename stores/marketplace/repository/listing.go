package repository

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/marketplace"
)

type listingRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*marketplace.Listing
	order []string // newest first
}

func NewListingRepo() marketplace.ListingRepo {
	return &listingRepoImpl{byId: map[string]*marketplace.Listing{}}
}

func randomRange(min, max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min))
	if err != nil {
		return min
	}
	return min + n.Int64()
}

func (r *listingRepoImpl) nextId() string {
	for {
		id := fmt.Sprintf("MKT-%d", randomRange(3000, 10000))
		if _, ok := r.byId[id]; !ok {
			return id
		}
	}
}

func (r *listingRepoImpl) FindAll(ctx bCtx.Ctx, opts ...marketplace.ListingSelectOptions) ([]*marketplace.Listing, error) {
	options, err := marketplace.GetListingSelectOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*marketplace.Listing{}
	for _, id := range r.order {
		if l := r.byId[id]; options.Match(l) {
			res = append(res, l.Clone())
		}
	}

	if options.Offset != nil && options.Limit != nil {
		if *options.Offset >= int32(len(res)) {
			return []*marketplace.Listing{}, nil
		}
		res = res[*options.Offset:]
		if *options.Limit > 0 && *options.Limit < int32(len(res)) {
			res = res[:*options.Limit]
		}
	}
	return res, nil
}

func (r *listingRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*marketplace.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *listingRepoImpl) Create(ctx bCtx.Ctx, value marketplace.Listing) (*marketplace.Listing, error) {
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

func (r *listingRepoImpl) Update(ctx bCtx.Ctx, id string, fn marketplace.ListingUpdateFn) (*marketplace.Listing, error) {
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
