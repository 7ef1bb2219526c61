package faucet

import (
	"github.com/shopspring/decimal"

	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/domain"
)

// Usecase hands out test tokens and records token approvals so a fresh
// wallet can take part in auctions without real funds.
type Usecase interface {
	MintTokens(c ctx.Ctx, to domain.Address, token domain.TokenSymbol, amount decimal.Decimal) (*domain.TxResult, error)
	Approve(c ctx.Ctx, owner domain.Address, token domain.TokenSymbol) (*domain.TxResult, error)
}
