package repository

import (
	"sync"

	"github.com/google/uuid"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/nftlending"
)

func generateId(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

type nftRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*nftlending.Nft
	order []string // oldest first, collections render in mint order
}

func NewNftRepo() nftlending.NftRepo {
	return &nftRepoImpl{byId: map[string]*nftlending.Nft{}}
}

func (r *nftRepoImpl) FindAll(ctx bCtx.Ctx) ([]*nftlending.Nft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*nftlending.Nft{}
	for _, id := range r.order {
		res = append(res, r.byId[id].Clone())
	}
	return res, nil
}

func (r *nftRepoImpl) FindByOwner(ctx bCtx.Ctx, owner domain.Address) ([]*nftlending.Nft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*nftlending.Nft{}
	for _, id := range r.order {
		if n := r.byId[id]; n.Owner.Equals(owner) {
			res = append(res, n.Clone())
		}
	}
	return res, nil
}

func (r *nftRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*nftlending.Nft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n.Clone(), nil
}

func (r *nftRepoImpl) Create(ctx bCtx.Ctx, value nftlending.Nft) (*nftlending.Nft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.Id == "" {
		value.Id = generateId("nft")
	} else if _, ok := r.byId[value.Id]; ok {
		return nil, domain.ErrConflict
	}

	stored := value.Clone()
	r.byId[stored.Id] = stored
	r.order = append(r.order, stored.Id)
	return stored.Clone(), nil
}

func (r *nftRepoImpl) Update(ctx bCtx.Ctx, id string, fn nftlending.NftUpdateFn) (*nftlending.Nft, error) {
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

// Remove takes an escrowed token out of circulation until the auction or
// loan that holds it resolves.
func (r *nftRepoImpl) Remove(ctx bCtx.Ctx, id string) (*nftlending.Nft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	delete(r.byId, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return stored, nil
}
