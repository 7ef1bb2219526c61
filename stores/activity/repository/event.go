package repository

import (
	"sync"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/event"
)

// FeedCap bounds the retained feed. Older entries fall off; counts keep
// accumulating.
const FeedCap = 100

type eventRepoImpl struct {
	mu      sync.RWMutex
	entries []*event.Entry // newest first
	counts  map[event.Name]int64
}

func NewEventRepo() event.Repo {
	return &eventRepoImpl{counts: map[event.Name]int64{}}
}

func (r *eventRepoImpl) Add(ctx bCtx.Ctx, entry event.Entry) (*event.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := entry
	r.entries = append([]*event.Entry{&stored}, r.entries...)
	if len(r.entries) > FeedCap {
		r.entries = r.entries[:FeedCap]
	}
	r.counts[entry.Name]++

	dup := stored
	return &dup, nil
}

func (r *eventRepoImpl) FindRecent(ctx bCtx.Ctx, limit int32) ([]*event.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*event.Entry{}
	for _, e := range r.entries {
		if limit > 0 && int32(len(res)) >= limit {
			break
		}
		dup := *e
		res = append(res, &dup)
	}
	return res, nil
}

func (r *eventRepoImpl) FindByUser(ctx bCtx.Ctx, user domain.Address, limit int32) ([]*event.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := []*event.Entry{}
	for _, e := range r.entries {
		if limit > 0 && int32(len(res)) >= limit {
			break
		}
		if e.User.Equals(user) {
			dup := *e
			res = append(res, &dup)
		}
	}
	return res, nil
}

func (r *eventRepoImpl) CountByName(ctx bCtx.Ctx) (map[event.Name]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make(map[event.Name]int64, len(r.counts))
	for k, v := range r.counts {
		res[k] = v
	}
	return res, nil
}
