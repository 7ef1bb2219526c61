package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	bCtx "github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/delivery"
	"github.com/the-gavel/goapi/domain"
	dEvent "github.com/the-gavel/goapi/domain/event"
	"github.com/the-gavel/goapi/middleware"
)

type handler struct {
	activity dEvent.Usecase
}

func New(e *echo.Echo, _activity dEvent.Usecase) {
	h := &handler{_activity}

	g := e.Group("/activities")
	g.GET("", h.getRecent)
	g.GET("/stats", h.getStats, middleware.CacheHttp(5*time.Second))
	g.GET("/user/:address", h.getByUser, middleware.IsValidAddress("address"))
}

func (h *handler) getRecent(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		Limit int32 `query:"limit"`
	}

	p := &params{Limit: 50}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	res, err := h.activity.GetRecent(ctx, p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getByUser(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		Limit int32 `query:"limit"`
	}

	p := &params{Limit: 50}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	res, err := h.activity.GetByUser(ctx, domain.Address(_ctx.Param("address")), p.Limit)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getStats(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.activity.GetStats(ctx)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}
