package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")
	// ErrConflict will throw if the inserted item already exists
	ErrConflict = errors.New("Your Item already exists")

	ErrInvalidAddress        = errors.New("Invalid address")
	ErrInvalidDurationFormat = errors.New("invalid duration format")

	// auction
	ErrInvalidLoanAmount       = errors.New("loan amount must be greater than 0")
	ErrInvalidCollateralAmount = errors.New("collateral amount must be greater than 0")
	ErrInvalidMaxRepayment     = errors.New("max repayment must be greater than loan amount")
	ErrInvalidBidAmount        = errors.New("bid amount must be greater than 0")
	ErrAuctionClosed           = errors.New("auction is closed to bidding")
	ErrBidNotImproving         = errors.New("bid must be lower than current winning bid")
	ErrBidBelowLoanAmount      = errors.New("bid cannot be lower than loan amount")
	ErrNoWinningBid            = errors.New("auction has no winning bid")
	ErrNotAuctionOwner         = errors.New("only the borrower can cancel this auction")

	// loan
	ErrLoanClosed        = errors.New("loan is already closed")
	ErrLoanPastGrace     = errors.New("loan is past its grace period")
	ErrNotBorrower       = errors.New("only the borrower can repay this loan")
	ErrNotLender         = errors.New("only the lender can claim this collateral")
	ErrLoanNotInDefault  = errors.New("loan is not in default")
	ErrGracePeriodActive = errors.New("grace period has not ended yet")

	// marketplace
	ErrInvalidPrice       = errors.New("price must be greater than 0")
	ErrInvalidOfferAmount = errors.New("offer amount must be greater than 0")
	ErrListingClosed      = errors.New("listing is no longer active")
	ErrListingExists      = errors.New("position is already listed")
	ErrNotSeller          = errors.New("only the seller can perform this action")
	ErrNotPositionHolder  = errors.New("seller does not hold this position")
	ErrOwnListing         = errors.New("cannot buy your own listing")
	ErrOfferClosed        = errors.New("offer is no longer pending")
	ErrOfferExpired       = errors.New("offer has expired")

	// nft
	ErrNotNftOwner = errors.New("caller does not own this nft")
)

var validationErrs = map[error]struct{}{
	ErrBadParamInput:           {},
	ErrInvalidAddress:          {},
	ErrInvalidDurationFormat:   {},
	ErrInvalidLoanAmount:       {},
	ErrInvalidCollateralAmount: {},
	ErrInvalidMaxRepayment:     {},
	ErrInvalidBidAmount:        {},
	ErrAuctionClosed:           {},
	ErrBidNotImproving:         {},
	ErrBidBelowLoanAmount:      {},
	ErrNoWinningBid:            {},
	ErrNotAuctionOwner:         {},
	ErrLoanClosed:              {},
	ErrLoanPastGrace:           {},
	ErrNotBorrower:             {},
	ErrNotLender:               {},
	ErrLoanNotInDefault:        {},
	ErrGracePeriodActive:       {},
	ErrInvalidPrice:            {},
	ErrInvalidOfferAmount:      {},
	ErrListingClosed:           {},
	ErrListingExists:           {},
	ErrNotSeller:               {},
	ErrNotPositionHolder:       {},
	ErrOwnListing:              {},
	ErrOfferClosed:             {},
	ErrOfferExpired:            {},
	ErrNotNftOwner:             {},
}

// IsValidationErr reports whether err is caller-correctable, i.e. raised
// before any simulated transaction ran.
func IsValidationErr(err error) bool {
	for e := range validationErrs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
