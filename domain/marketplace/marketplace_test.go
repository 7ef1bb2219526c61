package marketplace

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/the-gavel/goapi/domain"
)

func TestOfferStatusAt(t *testing.T) {
	expires := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	o := Offer{Status: OfferStatusPending, ExpiresAt: expires}
	assert.Equal(t, OfferStatusPending, o.StatusAt(expires.Add(-time.Minute)))
	assert.Equal(t, OfferStatusPending, o.StatusAt(expires))
	assert.Equal(t, OfferStatusExpired, o.StatusAt(expires.Add(time.Second)))

	o.Status = OfferStatusAccepted
	assert.Equal(t, OfferStatusAccepted, o.StatusAt(expires.Add(time.Hour)))
}

func TestListParamsValidate(t *testing.T) {
	p := ListParams{LoanId: "L2001", Side: "lender", AskPrice: decimal.NewFromInt(51000), AskToken: "USDC"}
	assert.NoError(t, p.Validate())

	p.AskPrice = decimal.Zero
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidPrice)
}
