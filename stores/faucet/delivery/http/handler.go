package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/delivery"
	"github.com/the-gavel/goapi/domain"
	dFaucet "github.com/the-gavel/goapi/domain/faucet"
)

type handler struct {
	faucet dFaucet.Usecase
}

func New(e *echo.Echo, _faucet dFaucet.Usecase) {
	h := &handler{_faucet}

	g := e.Group("/faucet")
	g.POST("/tokens", h.mintTokens)
	g.POST("/approvals", h.approve)
}

func (h *handler) mintTokens(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		To     domain.Address     `json:"to" validate:"required"`
		Token  domain.TokenSymbol `json:"token" validate:"required"`
		Amount decimal.Decimal    `json:"amount"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}
	if err := _ctx.Validate(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	res, err := h.faucet.MintTokens(ctx, p.To, p.Token, p.Amount)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) approve(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Owner domain.Address     `json:"owner" validate:"required"`
		Token domain.TokenSymbol `json:"token" validate:"required"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}
	if err := _ctx.Validate(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	res, err := h.faucet.Approve(ctx, p.Owner, p.Token)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}
