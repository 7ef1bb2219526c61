package repository

import (
	"sync"

	"github.com/google/uuid"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/marketplace"
)

type offerRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*marketplace.Offer
	order []string // newest first
}

func NewOfferRepo() marketplace.OfferRepo {
	return &offerRepoImpl{byId: map[string]*marketplace.Offer{}}
}

func (r *offerRepoImpl) FindAll(ctx bCtx.Ctx, opts ...marketplace.OfferSelectOptions) ([]*marketplace.Offer, error) {
	options, err := marketplace.GetOfferSelectOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*marketplace.Offer{}
	for _, id := range r.order {
		if o := r.byId[id]; options.Match(o) {
			res = append(res, o.Clone())
		}
	}
	return res, nil
}

func (r *offerRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*marketplace.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *offerRepoImpl) Create(ctx bCtx.Ctx, value marketplace.Offer) (*marketplace.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.Id == "" {
		value.Id = "OFR-" + uuid.NewString()[:8]
	} else if _, ok := r.byId[value.Id]; ok {
		return nil, domain.ErrConflict
	}

	stored := value.Clone()
	r.byId[stored.Id] = stored
	r.order = append([]string{stored.Id}, r.order...)
	return stored.Clone(), nil
}

func (r *offerRepoImpl) Update(ctx bCtx.Ctx, id string, fn marketplace.OfferUpdateFn) (*marketplace.Offer, error) {
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

func (r *offerRepoImpl) UpdateEach(ctx bCtx.Ctx, fn func(*marketplace.Offer)) error {
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
