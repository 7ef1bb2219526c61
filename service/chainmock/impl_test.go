package chainmock

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
)

func fastExecutor(failureRate float64) Executor {
	return New(Config{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, FailureRate: failureRate}, metrics.New("chainmock"))
}

func TestExecuteReturnsTxHash(t *testing.T) {
	ex := fastExecutor(0)
	res, err := ex.PlaceBid(ctx.Background(), "0xbidder", decimal.NewFromInt(52000))
	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(string(res.TxHash), "0x"))
	assert.Len(t, string(res.TxHash), 66)
}

func TestExecuteAlwaysFails(t *testing.T) {
	ex := fastExecutor(1)
	_, err := ex.PlaceBid(ctx.Background(), "0xbidder", decimal.NewFromInt(52000))
	assert.ErrorIs(t, err, ErrTxReverted)
}

func TestValidationBeforeDelay(t *testing.T) {
	ex := New(Config{MinDelay: time.Hour, MaxDelay: time.Hour}, metrics.New("chainmock"))

	start := time.Now()
	_, err := ex.PlaceBid(ctx.Background(), "", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	_, err = ex.PlaceBid(ctx.Background(), "0xbidder", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidBidAmount)

	_, err = ex.CreateAuction(ctx.Background(), "0xborrower", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidCollateralAmount)

	assert.Less(t, time.Since(start), time.Second)
}

func TestExecuteRespectsCancellation(t *testing.T) {
	ex := New(Config{MinDelay: time.Hour, MaxDelay: time.Hour}, metrics.New("chainmock"))

	c, cancel := ctx.WithTimeout(ctx.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := ex.FinalizeAuction(c, "#1001")
	assert.Error(t, err)
}
