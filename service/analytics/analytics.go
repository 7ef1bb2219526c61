// Package analytics records protocol events into the activity feed.
// Recording is asynchronous and best-effort: engines never block on it and
// never see its errors.
package analytics

import (
	"github.com/google/uuid"

	"github.com/the-gavel/goapi/base/clock"
	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/goroutine"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain/event"
)

type impl struct {
	repo    event.Repo
	clock   clock.Clock
	metrics metrics.Service
	// sync makes Record block until the entry is stored, for tests
	sync bool
}

type Option func(*impl)

// WithSynchronousRecord disables the background dispatch so tests can
// observe entries immediately.
func WithSynchronousRecord() Option {
	return func(im *impl) { im.sync = true }
}

func New(repo event.Repo, clk clock.Clock, opts ...Option) event.Recorder {
	im := &impl{
		repo:    repo,
		clock:   clk,
		metrics: metrics.New("analytics"),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

func (im *impl) Record(c ctx.Ctx, ev event.Event) {
	entry := event.Entry{
		Id:        uuid.NewString(),
		Time:      im.clock.Now(),
		Name:      ev.Name,
		User:      ev.User.ToLower(),
		Amount:    ev.Amount,
		Details:   ev.Details,
		TxHash:    ev.TxHash,
		RelatedId: ev.RelatedId,
	}
	if im.sync {
		im.store(c, entry)
		return
	}
	goroutine.RecoverableGo(func() {
		im.store(c, entry)
	})
}

func (im *impl) store(c ctx.Ctx, entry event.Entry) {
	if _, err := im.repo.Add(c, entry); err != nil {
		c.WithField("err", err).WithField("event", entry.Name).Warn("failed to record event")
		im.metrics.BumpSum("record.err", 1)
		return
	}
	im.metrics.BumpSum("record.count", 1, "event", string(entry.Name))
}
