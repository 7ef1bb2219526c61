package domain

import (
	"strings"
)

// Address is a lower-case-insensitive wallet address.
type Address string

const EmptyAddress = Address("")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// Short renders 0x1234...5678 for activity feeds.
func (a Address) Short() string {
	s := string(a)
	if len(s) < 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

type TxHash string

// TokenSymbol is a fungible token ticker, e.g. WBTC, ETH, USDC, USDT.
type TokenSymbol string

const (
	TokenWBTC TokenSymbol = "WBTC"
	TokenETH  TokenSymbol = "ETH"
	TokenUSDC TokenSymbol = "USDC"
	TokenUSDT TokenSymbol = "USDT"
)

// TxResult is what the transaction executor returns for every simulated
// on-chain operation.
type TxResult struct {
	Success bool   `json:"success"`
	TxHash  TxHash `json:"txHash"`
}
