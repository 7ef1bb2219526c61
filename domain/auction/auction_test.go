package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/the-gavel/goapi/domain"
)

func TestStatusAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		desc    string
		status  Status
		endTime time.Time
		exp     Status
	}{
		{desc: "plenty of time left", status: StatusActive, endTime: now.Add(4 * time.Hour), exp: StatusActive},
		{desc: "59 minutes left", status: StatusActive, endTime: now.Add(59 * time.Minute), exp: StatusEndingSoon},
		{desc: "exactly one hour left", status: StatusActive, endTime: now.Add(time.Hour), exp: StatusEndingSoon},
		{desc: "time elapsed", status: StatusEndingSoon, endTime: now.Add(-time.Minute), exp: StatusEnded},
		{desc: "exactly at end time", status: StatusActive, endTime: now, exp: StatusEnded},
		{desc: "finalized is immune", status: StatusFinalized, endTime: now.Add(-time.Hour), exp: StatusFinalized},
		{desc: "cancelled is immune", status: StatusCancelled, endTime: now.Add(4 * time.Hour), exp: StatusCancelled},
	}
	for _, tc := range tests {
		a := Auction{Status: tc.status, AuctionEndTime: tc.endTime}
		assert.Equal(t, tc.exp, a.StatusAt(now), tc.desc)

		// recompute is idempotent
		a.Status = a.StatusAt(now)
		assert.Equal(t, tc.exp, a.StatusAt(now), tc.desc)
	}
}

func TestBestRepayment(t *testing.T) {
	a := Auction{MaxRepayment: decimal.NewFromInt(55000)}
	assert.True(t, decimal.NewFromInt(55000).Equal(a.BestRepayment()))

	bid := decimal.NewFromInt(52000)
	a.CurrentBid = &bid
	assert.True(t, bid.Equal(a.BestRepayment()))
}

func TestCreateParamsValidate(t *testing.T) {
	valid := CreateParams{
		CollateralToken:  domain.TokenWBTC,
		CollateralAmount: decimal.NewFromFloat(1.5),
		LoanToken:        domain.TokenUSDC,
		LoanAmount:       decimal.NewFromInt(50000),
		MaxRepayment:     decimal.NewFromInt(55000),
		LoanDuration:     "30d",
		AuctionDuration:  "1h",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		desc   string
		mut    func(*CreateParams)
		expErr error
	}{
		{desc: "zero loan amount", mut: func(p *CreateParams) { p.LoanAmount = decimal.Zero }, expErr: domain.ErrInvalidLoanAmount},
		{desc: "zero collateral", mut: func(p *CreateParams) { p.CollateralAmount = decimal.Zero }, expErr: domain.ErrInvalidCollateralAmount},
		{desc: "max repayment equals loan amount", mut: func(p *CreateParams) { p.MaxRepayment = p.LoanAmount }, expErr: domain.ErrInvalidMaxRepayment},
		{desc: "bad loan duration", mut: func(p *CreateParams) { p.LoanDuration = "x" }},
		{desc: "bad auction duration", mut: func(p *CreateParams) { p.AuctionDuration = "" }},
	}
	for _, tc := range tests {
		p := valid
		tc.mut(&p)
		err := p.Validate()
		assert.Error(t, err, tc.desc)
		if tc.expErr != nil {
			assert.ErrorIs(t, err, tc.expErr, tc.desc)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	bid := decimal.NewFromInt(52000)
	bidder := domain.Address("0xabc")
	a := Auction{Id: "#1001", CurrentBid: &bid, CurrentBidder: &bidder}

	dup := a.Clone()
	*dup.CurrentBid = decimal.NewFromInt(1)
	*dup.CurrentBidder = "0xdef"

	assert.True(t, bid.Equal(*a.CurrentBid))
	assert.Equal(t, bidder, *a.CurrentBidder)
}
