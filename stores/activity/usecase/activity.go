package usecase

import (
	"fmt"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/auction"
	"github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/service/cache"
)

type activityUseCaseImpl struct {
	repo     event.Repo
	auctions auction.Usecase
	loans    loan.Usecase
	cache    cache.Service
}

// NewActivityUseCase serves the activity feed and dashboard stats. Stats are
// cached briefly since every dashboard poll recomputes them otherwise.
func NewActivityUseCase(repo event.Repo, auctions auction.Usecase, loans loan.Usecase, cacheService cache.Service) event.Usecase {
	return &activityUseCaseImpl{
		repo:     repo,
		auctions: auctions,
		loans:    loans,
		cache:    cacheService,
	}
}

func (u *activityUseCaseImpl) GetRecent(ctx bCtx.Ctx, limit int32) ([]*event.Entry, error) {
	entries, err := u.repo.FindRecent(ctx, limit)
	if err != nil {
		ctx.WithField("err", err).Error("repo.FindRecent failed")
		return nil, err
	}
	return entries, nil
}

func (u *activityUseCaseImpl) GetByUser(ctx bCtx.Ctx, user domain.Address, limit int32) ([]*event.Entry, error) {
	entries, err := u.repo.FindByUser(ctx, user, limit)
	if err != nil {
		ctx.WithField("err", err).Error("repo.FindByUser failed")
		return nil, err
	}
	return entries, nil
}

func (u *activityUseCaseImpl) GetStats(ctx bCtx.Ctx) (*event.Stats, error) {
	stats := &event.Stats{}
	err := u.cache.GetByFunc(ctx, "stats", stats, func() (interface{}, error) {
		return u.buildStats(ctx)
	})
	if err != nil {
		ctx.WithField("err", err).Error("cache.GetByFunc failed")
		return nil, err
	}
	return stats, nil
}

func (u *activityUseCaseImpl) buildStats(ctx bCtx.Ctx) (*event.Stats, error) {
	counts, err := u.repo.CountByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	var total int64
	for _, v := range counts {
		total += v
	}

	activeAuctions, err := u.auctions.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	activeLoans, err := u.loans.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	return &event.Stats{
		TotalEvents:    total,
		CountsByName:   counts,
		ActiveAuctions: int64(len(activeAuctions)),
		ActiveLoans:    int64(len(activeLoans)),
	}, nil
}
