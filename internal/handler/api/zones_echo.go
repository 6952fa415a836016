package api

import (
	"time"

	models "Epoch/internal/domain/models"
	domrepo "Epoch/internal/domain/repository"
	"Epoch/internal/usecase"
	xhttp "Epoch/pkg/http"
	phmw "Epoch/pkg/http/middleware"
	xlogger "Epoch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ZonesEchoHandler implements the Echo-based dashboard API. The older
// query-param surface stays mounted under /legacy until dashboards
// finish migrating.
type ZonesEchoHandler struct {
	logger *xlogger.Logger
	dash   *usecase.DashboardUseCase
	bars   *usecase.BarsUseCase
	legacy *ZonesHandler
}

func NewZonesEchoHandler(logger *xlogger.Logger, dash *usecase.DashboardUseCase, bars *usecase.BarsUseCase) *ZonesEchoHandler {
	return &ZonesEchoHandler{logger: logger, dash: dash, bars: bars}
}

// SetLegacyHandler mounts the query-param surface alongside the v1 API.
func (h *ZonesEchoHandler) SetLegacyHandler(legacy *ZonesHandler) { h.legacy = legacy }

func (h *ZonesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/zones/:ticker", h.Zones)
	g.GET("/setups/:ticker", h.Setups)
	g.GET("/edge/:ticker", h.Edge)
	g.GET("/bars/:ticker", h.Bars)

	if h.legacy != nil {
		mw := phmw.Metrics(h.logger, 500*time.Millisecond)
		lg := e.Group("/legacy")
		lg.GET("/zones", echo.WrapHandler(mw(h.legacy.Zones())))
		lg.GET("/setups", echo.WrapHandler(mw(h.legacy.Setups())))
		lg.GET("/edge", echo.WrapHandler(mw(h.legacy.Edge())))
	}
}

func (h *ZonesEchoHandler) Zones(c echo.Context) error {
	req := &models.ZonesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.LatestZones(c.Request().Context(), req.Ticker, req.Tier, req.Limit)
	if err != nil {
		h.logger.Error("zones usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, models.NewZonePayloads(res))
}

func (h *ZonesEchoHandler) Setups(c echo.Context) error {
	req := &models.SetupsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.LatestSetups(c.Request().Context(), req.Ticker, req.Kind)
	if err != nil {
		h.logger.Error("setups usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewSetupPayloads(res))
}

func (h *ZonesEchoHandler) Edge(c echo.Context) error {
	req := &models.EdgeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dash.Edge(c.Request().Context(), req.Ticker, req.Window)
	if err != nil {
		h.logger.Error("edge usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewEdgeStatPayloads(res))
}

func (h *ZonesEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	to := time.Now().UTC()
	if req.To != "" {
		t, err := time.Parse("2006-01-02", req.To)
		if err == nil {
			to = t.Add(24 * time.Hour)
		}
	}
	from := to.AddDate(0, 0, -30)
	if req.From != "" {
		t, err := time.Parse("2006-01-02", req.From)
		if err == nil {
			from = t
		}
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Ticker:    req.Ticker,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewBarsPayload(res.Ticker, res.Timeframe, res.From, res.To, res.Bars))
}
