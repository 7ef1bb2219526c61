package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/the-gavel/goapi/base/clock"
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain/event"
	activityRepo "github.com/the-gavel/goapi/stores/activity/repository"
)

var mockCtx = bCtx.Background()

func TestRecordNormalizesEntry(t *testing.T) {
	repo := activityRepo.NewEventRepo()
	clk := clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	recorder := New(repo, clk, WithSynchronousRecord())

	recorder.Record(mockCtx, event.Event{
		Name:      event.BidPlaced,
		User:      "0xLenderA",
		Details:   "repayment 52000 USDC on auction #1234",
		RelatedId: "#1234",
	})

	entries, err := repo.FindRecent(mockCtx, 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Id)
	assert.Equal(t, clk.Now(), entries[0].Time)
	assert.Equal(t, "0xlendera", string(entries[0].User))
	assert.Equal(t, event.BidPlaced, entries[0].Name)
}

func TestAsyncRecordEventuallyStores(t *testing.T) {
	repo := activityRepo.NewEventRepo()
	recorder := New(repo, clock.System())

	recorder.Record(mockCtx, event.Event{Name: event.NftMinted, User: "0xminter"})

	assert.Eventually(t, func() bool {
		entries, err := repo.FindRecent(mockCtx, 1)
		return err == nil && len(entries) == 1
	}, time.Second, 10*time.Millisecond)
}
