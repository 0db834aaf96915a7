package api

import (
	"errors"
	"strings"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/internal/usecase"
	xhttp "PokerAssist/pkg/http"
	"PokerAssist/pkg/http/middleware"
	xlogger "PokerAssist/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultHistoryWindow = 24 * time.Hour

// HistoryEchoHandler lists recorded hands.
type HistoryEchoHandler struct {
	logger  *xlogger.Logger
	proc    *usecase.HistoryProcessor
	limiter middleware.Allower
	now     func() time.Time
}

func NewHistoryEchoHandler(logger *xlogger.Logger, proc *usecase.HistoryProcessor, limiter middleware.Allower) *HistoryEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &HistoryEchoHandler{logger: logger, proc: proc, limiter: limiter, now: time.Now}
}

func (h *HistoryEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/v1", v1Middleware(h.limiter)...)
	g.GET("/history", h.List)
}

func (h *HistoryEchoHandler) List(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := xhttp.ParseTimeDefault(req.To, h.now())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-defaultHistoryWindow))
	if to.Before(from) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must not be after to"))
	}

	rows, err := h.proc.Query(c.Request().Context(), strings.TrimSpace(req.OpponentID), from, to, req.Limit)
	if err != nil {
		if errors.Is(err, usecase.ErrHistoryUnavailable) {
			return xhttp.AppErrorResponse(c, xhttp.NotImplementedError(err))
		}
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if rows == nil {
		rows = []*models.HandRecord{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
