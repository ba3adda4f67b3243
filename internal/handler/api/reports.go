package api

import (
	"errors"
	"os"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/service/metrics"
	"github.com/xllucky21/xllucky/internal/service/ratelimit"
	"github.com/xllucky21/xllucky/internal/usecase"
	xhttp "github.com/xllucky21/xllucky/pkg/http"
	xlogger "github.com/xllucky21/xllucky/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportsHandler serves the generated reports read-only over HTTP.
type ReportsHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.ReportsUseCase
	hub     *ScoreHub
	limiter *ratelimit.Limiter
}

// NewReportsHandler builds the handler. hub and limiter may be nil.
func NewReportsHandler(logger *xlogger.Logger, uc *usecase.ReportsUseCase, hub *ScoreHub, limiter *ratelimit.Limiter) *ReportsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	metrics.Register()
	return &ReportsHandler{logger: logger, uc: uc, hub: hub, limiter: limiter}
}

func (h *ReportsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware())
	}
	g := e.Group("/api", mw...)
	g.GET("/reports/bond", h.Bond)
	g.GET("/reports/dividend", h.Dividend)
	g.GET("/reports/lof", h.LOF)
	g.GET("/summary", h.Summary)
	g.GET("/overview", h.Overview)
	g.GET("/scores", h.Scores)

	if h.hub != nil {
		e.GET("/ws/scores", h.hub.Serve)
	}
}

func (h *ReportsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ReportsHandler) Bond(c echo.Context) error {
	defer observe("bond", time.Now())
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list, err := h.uc.BondHistory(req.Limit)
	if err != nil {
		return h.fail(c, "bond", err)
	}
	if len(list) == 0 {
		return h.fail(c, "bond", drepo.ErrNoSnapshot)
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *ReportsHandler) Dividend(c echo.Context) error {
	defer observe("dividend", time.Now())
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	list, err := h.uc.DividendHistory(req.Limit)
	if err != nil {
		return h.fail(c, "dividend", err)
	}
	if len(list) == 0 {
		return h.fail(c, "dividend", drepo.ErrNoSnapshot)
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *ReportsHandler) LOF(c echo.Context) error {
	defer observe("lof", time.Now())
	req := &models.LOFRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.LOF(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "lof", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsHandler) Summary(c echo.Context) error {
	defer observe("summary", time.Now())
	res, err := h.uc.Summary()
	if err != nil {
		return h.fail(c, "summary", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportsHandler) Overview(c echo.Context) error {
	defer observe("overview", time.Now())
	return xhttp.SuccessResponse(c, h.uc.Overview(c.Request().Context()))
}

func (h *ReportsHandler) Scores(c echo.Context) error {
	defer observe("scores", time.Now())
	req := &models.ScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Scores(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "scores", err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

// fail maps use case errors onto API errors. A report that has not been
// generated yet is a 404, a disabled backend a 503.
func (h *ReportsHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	switch {
	case errors.Is(err, drepo.ErrNoSnapshot), errors.Is(err, os.ErrNotExist):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s report not generated yet", endpoint).WithError(err))
	case errors.Is(err, usecase.ErrScoresDisabled):
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(err.Error()))
	}
	h.logger.Error("report endpoint error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to read "+endpoint).WithError(err))
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
