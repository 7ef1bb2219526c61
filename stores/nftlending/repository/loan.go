package repository

import (
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/nftlending"
)

type loanRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*nftlending.Loan
	order []string // newest first
}

func NewLoanRepo() nftlending.LoanRepo {
	return &loanRepoImpl{byId: map[string]*nftlending.Loan{}}
}

func (r *loanRepoImpl) FindAll(ctx bCtx.Ctx) ([]*nftlending.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*nftlending.Loan{}
	for _, id := range r.order {
		res = append(res, r.byId[id].Clone())
	}
	return res, nil
}

func (r *loanRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*nftlending.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *loanRepoImpl) Create(ctx bCtx.Ctx, value nftlending.Loan) (*nftlending.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.Id == "" {
		value.Id = generateId("nft-loan")
	} else if _, ok := r.byId[value.Id]; ok {
		return nil, domain.ErrConflict
	}

	stored := value.Clone()
	r.byId[stored.Id] = stored
	r.order = append([]string{stored.Id}, r.order...)
	return stored.Clone(), nil
}

func (r *loanRepoImpl) Update(ctx bCtx.Ctx, id string, fn nftlending.LoanUpdateFn) (*nftlending.Loan, error) {
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

func (r *loanRepoImpl) UpdateEach(ctx bCtx.Ctx, fn func(*nftlending.Loan)) error {
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
