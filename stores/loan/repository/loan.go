package repository

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/loan"
)

type loanRepoImpl struct {
	mu    sync.RWMutex
	byId  map[string]*loan.Loan
	order []string // newest first
}

func NewLoanRepo() loan.Repo {
	return &loanRepoImpl{byId: map[string]*loan.Loan{}}
}

func randomRange(min, max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min))
	if err != nil {
		return min
	}
	return min + n.Int64()
}

func (r *loanRepoImpl) nextId() string {
	for {
		id := fmt.Sprintf("L%d", randomRange(2000, 10000))
		if _, ok := r.byId[id]; !ok {
			return id
		}
	}
}

// NextPositionId mints an opaque identifier for one tradeable side of a
// loan.
func NextPositionId() string {
	return fmt.Sprintf("NFT-%d", randomRange(10000, 100000))
}

func (r *loanRepoImpl) FindAll(ctx bCtx.Ctx, opts ...loan.SelectOptions) ([]*loan.Loan, error) {
	options, err := loan.GetSelectOptions(opts...)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*loan.Loan{}
	for _, id := range r.order {
		if l := r.byId[id]; options.Match(l) {
			res = append(res, l.Clone())
		}
	}

	if options.Offset != nil && options.Limit != nil {
		if *options.Offset >= int32(len(res)) {
			return []*loan.Loan{}, nil
		}
		res = res[*options.Offset:]
		if *options.Limit > 0 && *options.Limit < int32(len(res)) {
			res = res[:*options.Limit]
		}
	}
	return res, nil
}

func (r *loanRepoImpl) FindOne(ctx bCtx.Ctx, id string) (*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *loanRepoImpl) Create(ctx bCtx.Ctx, value loan.Loan) (*loan.Loan, error) {
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

func (r *loanRepoImpl) Update(ctx bCtx.Ctx, id string, fn loan.UpdateFn) (*loan.Loan, error) {
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

func (r *loanRepoImpl) UpdateEach(ctx bCtx.Ctx, fn func(*loan.Loan)) error {
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
