package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/delivery"
	"github.com/the-gavel/goapi/domain"
	dAuction "github.com/the-gavel/goapi/domain/auction"
	"github.com/the-gavel/goapi/middleware"
)

type handler struct {
	auction dAuction.Usecase
}

func New(e *echo.Echo, _auction dAuction.Usecase) {
	h := &handler{_auction}

	g := e.Group("/auctions")
	g.POST("", h.create)
	g.GET("", h.getAll)
	g.GET("/active", h.getActive, middleware.CacheHttp(3*time.Second))
	g.GET("/:id", h.get)
	g.POST("/:id/bids", h.placeBid)
	g.POST("/:id/finalize", h.finalize)
	g.POST("/:id/cancel", h.cancel)

	e.GET("/account/:address/auctions", h.getByBorrower, middleware.IsValidAddress("address"))
}

func (h *handler) create(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Borrower domain.Address `json:"borrower" validate:"required"`
		dAuction.CreateParams
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}
	if err := _ctx.Validate(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	res, err := h.auction.Create(ctx, p.CreateParams, p.Borrower)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusCreated, res)
}

func (h *handler) getAll(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.GetAll(ctx)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getActive(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.GetActive(ctx)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) get(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.Get(ctx, _ctx.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getByBorrower(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.GetByBorrower(ctx, domain.Address(_ctx.Param("address")))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) placeBid(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Bidder domain.Address  `json:"bidder" validate:"required"`
		Amount decimal.Decimal `json:"amount"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}
	if err := _ctx.Validate(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	res, err := h.auction.PlaceBid(ctx, _ctx.Param("id"), p.Amount, p.Bidder)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) finalize(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.auction.Finalize(ctx, _ctx.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) cancel(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type payload struct {
		Caller domain.Address `json:"caller" validate:"required"`
	}

	p := &payload{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	if err := h.auction.Cancel(ctx, _ctx.Param("id"), p.Caller); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, "ok")
}
