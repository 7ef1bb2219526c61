package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/auction"
)

var mockCtx = bCtx.Background()

func seed(t *testing.T, repo auction.Repo, borrower domain.Address) *auction.Auction {
	a, err := repo.Create(mockCtx, auction.Auction{
		Borrower:       borrower,
		LoanAmount:     decimal.NewFromInt(50000),
		MaxRepayment:   decimal.NewFromInt(55000),
		AuctionEndTime: time.Now().Add(12 * time.Hour),
		LoanDuration:   "30d",
		Status:         auction.StatusActive,
	})
	assert.NoError(t, err)
	return a
}

func TestCreateAssignsId(t *testing.T) {
	repo := NewAuctionRepo()
	a := seed(t, repo, "0xborrower")
	assert.Regexp(t, `^#\d{4}$`, a.Id)

	got, err := repo.FindOne(mockCtx, a.Id)
	assert.NoError(t, err)
	assert.Equal(t, a.Id, got.Id)

	_, err = repo.FindOne(mockCtx, "#0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAbortsOnError(t *testing.T) {
	repo := NewAuctionRepo()
	a := seed(t, repo, "0xborrower")

	boom := errors.New("boom")
	_, err := repo.Update(mockCtx, a.Id, func(a *auction.Auction) error {
		a.Status = auction.StatusCancelled
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindOne(mockCtx, a.Id)
	assert.NoError(t, err)
	assert.Equal(t, auction.StatusActive, got.Status)
}

func TestReadsAreIsolated(t *testing.T) {
	repo := NewAuctionRepo()
	a := seed(t, repo, "0xborrower")

	got, err := repo.FindOne(mockCtx, a.Id)
	assert.NoError(t, err)
	got.Status = auction.StatusCancelled
	bid := decimal.NewFromInt(1)
	got.CurrentBid = &bid

	again, err := repo.FindOne(mockCtx, a.Id)
	assert.NoError(t, err)
	assert.Equal(t, auction.StatusActive, again.Status)
	assert.Nil(t, again.CurrentBid)
}

func TestFindAllFilters(t *testing.T) {
	repo := NewAuctionRepo()
	first := seed(t, repo, "0xalice")
	seed(t, repo, "0xbob")

	all, err := repo.FindAll(mockCtx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	// newest first
	assert.NotEqual(t, first.Id, all[0].Id)

	byBorrower, err := repo.FindAll(mockCtx, auction.WithBorrower("0xAlice"))
	assert.NoError(t, err)
	assert.Len(t, byBorrower, 1)
	assert.Equal(t, first.Id, byBorrower[0].Id)

	page, err := repo.FindAll(mockCtx, auction.WithPagination(1, 10))
	assert.NoError(t, err)
	assert.Len(t, page, 1)

	none, err := repo.FindAll(mockCtx, auction.WithStatuses(auction.StatusFinalized))
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateEach(t *testing.T) {
	repo := NewAuctionRepo()
	seed(t, repo, "0xalice")
	seed(t, repo, "0xbob")

	err := repo.UpdateEach(mockCtx, func(a *auction.Auction) {
		a.Status = auction.StatusEnded
	})
	assert.NoError(t, err)

	all, err := repo.FindAll(mockCtx)
	assert.NoError(t, err)
	for _, a := range all {
		assert.Equal(t, auction.StatusEnded, a.Status)
	}
}
