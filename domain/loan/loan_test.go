package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/the-gavel/goapi/domain"
)

func TestStatusAt(t *testing.T) {
	maturity := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		desc   string
		status Status
		now    time.Time
		exp    Status
	}{
		{desc: "before maturity", status: StatusActive, now: maturity.Add(-time.Hour), exp: StatusActive},
		{desc: "at maturity", status: StatusActive, now: maturity, exp: StatusActive},
		{desc: "inside grace period", status: StatusActive, now: maturity.Add(12 * time.Hour), exp: StatusGracePeriod},
		{desc: "grace boundary", status: StatusGracePeriod, now: maturity.Add(GracePeriod), exp: StatusGracePeriod},
		{desc: "past grace period", status: StatusGracePeriod, now: maturity.Add(GracePeriod + time.Second), exp: StatusOverdue},
		{desc: "repaid is immune", status: StatusRepaid, now: maturity.Add(48 * time.Hour), exp: StatusRepaid},
		{desc: "defaulted is immune", status: StatusDefaulted, now: maturity.Add(-time.Hour), exp: StatusDefaulted},
	}
	for _, tc := range tests {
		l := Loan{Status: tc.status, MaturityTime: maturity}
		assert.Equal(t, tc.exp, l.StatusAt(tc.now), tc.desc)
	}
}

func TestSimpleRate(t *testing.T) {
	rate := SimpleRate(decimal.NewFromInt(50000), decimal.NewFromInt(52500))
	assert.InDelta(t, 5.0, rate, 1e-9)

	assert.Zero(t, SimpleRate(decimal.Zero, decimal.NewFromInt(100)))
}

func TestHolderOf(t *testing.T) {
	l := Loan{Borrower: "0xborrower", Lender: "0xlender"}
	assert.Equal(t, domain.Address("0xborrower"), l.HolderOf(SideBorrower))
	assert.Equal(t, domain.Address("0xlender"), l.HolderOf(SideLender))
}
