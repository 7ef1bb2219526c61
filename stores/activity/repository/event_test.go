package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/event"
)

var mockCtx = bCtx.Background()

func entry(id string, name event.Name, user domain.Address) event.Entry {
	return event.Entry{Id: id, Time: time.Now(), Name: name, User: user}
}

func TestFeedIsCappedButCountsAccumulate(t *testing.T) {
	repo := NewEventRepo()

	for i := 0; i < FeedCap+20; i++ {
		_, err := repo.Add(mockCtx, entry(fmt.Sprintf("e%d", i), event.BidPlaced, "0xuser"))
		assert.NoError(t, err)
	}

	entries, err := repo.FindRecent(mockCtx, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, FeedCap)
	// newest first
	assert.Equal(t, fmt.Sprintf("e%d", FeedCap+19), entries[0].Id)

	counts, err := repo.CountByName(mockCtx)
	assert.NoError(t, err)
	assert.Equal(t, int64(FeedCap+20), counts[event.BidPlaced])
}

func TestFindRecentLimit(t *testing.T) {
	repo := NewEventRepo()
	for i := 0; i < 5; i++ {
		repo.Add(mockCtx, entry(fmt.Sprintf("e%d", i), event.AuctionCreated, "0xuser"))
	}

	entries, err := repo.FindRecent(mockCtx, 3)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, "e4", entries[0].Id)
}

func TestFindByUserIgnoresCase(t *testing.T) {
	repo := NewEventRepo()
	repo.Add(mockCtx, entry("e1", event.AuctionCreated, "0xabc"))
	repo.Add(mockCtx, entry("e2", event.BidPlaced, "0xdef"))

	entries, err := repo.FindByUser(mockCtx, "0xABC", 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].Id)
}
