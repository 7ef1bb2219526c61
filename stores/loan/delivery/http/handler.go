package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/delivery"
	"github.com/the-gavel/goapi/domain"
	dLoan "github.com/the-gavel/goapi/domain/loan"
	"github.com/the-gavel/goapi/middleware"
)

type handler struct {
	loan dLoan.Usecase
}

func New(e *echo.Echo, _loan dLoan.Usecase) {
	h := &handler{_loan}

	g := e.Group("/loans")
	g.GET("", h.getAll)
	g.GET("/active", h.getActive)
	g.GET("/:id", h.get)
	g.POST("/:id/repay", h.repay)
	g.POST("/:id/claim", h.claim)

	e.GET("/account/:address/loans", h.getByBorrower, middleware.IsValidAddress("address"))
	e.GET("/account/:address/lendings", h.getByLender, middleware.IsValidAddress("address"))
}

func (h *handler) getAll(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.loan.GetAll(ctx)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getActive(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.loan.GetActive(ctx)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) get(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.loan.Get(ctx, _ctx.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getByBorrower(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.loan.GetByBorrower(ctx, domain.Address(_ctx.Param("address")))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getByLender(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.loan.GetByLender(ctx, domain.Address(_ctx.Param("address")))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) repay(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Caller domain.Address `json:"caller" validate:"required"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	res, err := h.loan.Repay(ctx, _ctx.Param("id"), p.Caller)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) claim(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Caller domain.Address `json:"caller" validate:"required"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	res, err := h.loan.ClaimCollateral(ctx, _ctx.Param("id"), p.Caller)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}
