package usecase

import (
	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/metrics"
	"github.com/the-gavel/goapi/domain"
	"github.com/the-gavel/goapi/domain/faucet"
	"github.com/the-gavel/goapi/service/chainmock"

	"github.com/shopspring/decimal"
)

type faucetUseCaseImpl struct {
	executor chainmock.Executor
	metrics  metrics.Service
}

func NewFaucetUseCase(executor chainmock.Executor) faucet.Usecase {
	return &faucetUseCaseImpl{
		executor: executor,
		metrics:  metrics.New("faucet"),
	}
}

func (u *faucetUseCaseImpl) MintTokens(ctx bCtx.Ctx, to domain.Address, token domain.TokenSymbol, amount decimal.Decimal) (*domain.TxResult, error) {
	if to.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}

	res, err := u.executor.MintTestTokens(ctx, to, token, amount)
	if err != nil {
		ctx.WithField("err", err).Error("executor.MintTestTokens failed")
		return nil, err
	}

	u.metrics.BumpSum("mint.count", 1, "token", string(token))
	return res, nil
}

func (u *faucetUseCaseImpl) Approve(ctx bCtx.Ctx, owner domain.Address, token domain.TokenSymbol) (*domain.TxResult, error) {
	if owner.IsEmpty() {
		return nil, domain.ErrInvalidAddress
	}

	res, err := u.executor.ApproveToken(ctx, owner, token)
	if err != nil {
		ctx.WithField("err", err).Error("executor.ApproveToken failed")
		return nil, err
	}

	u.metrics.BumpSum("approve.count", 1, "token", string(token))
	return res, nil
}
