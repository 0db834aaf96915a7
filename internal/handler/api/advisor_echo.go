package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"PokerAssist/internal/domain/models"
	"PokerAssist/internal/usecase"
	xhttp "PokerAssist/pkg/http"
	"PokerAssist/pkg/http/middleware"
	xlogger "PokerAssist/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthResponse is served on /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Opponents int    `json:"opponents"`
	Reasoning string `json:"reasoning"`
	History   string `json:"history"`
}

const historyHealthTimeout = 2 * time.Second

// HistoryHealth reports the hand history backend state.
type HistoryHealth interface {
	Health(ctx context.Context) string
}

// AdvisorEchoHandler serves the advisory and opponent profile endpoints.
type AdvisorEchoHandler struct {
	logger        *xlogger.Logger
	advisor       *usecase.Advisor
	recorder      *usecase.ObservationRecorder
	reasoningMode string
	history       HistoryHealth
	limiter       middleware.Allower
}

// NewAdvisorEchoHandler creates the handler; a nil limiter disables rate limiting.
func NewAdvisorEchoHandler(logger *xlogger.Logger, advisor *usecase.Advisor, recorder *usecase.ObservationRecorder, reasoningMode string, history HistoryHealth, limiter middleware.Allower) *AdvisorEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &AdvisorEchoHandler{
		logger:        logger,
		advisor:       advisor,
		recorder:      recorder,
		reasoningMode: reasoningMode,
		history:       history,
		limiter:       limiter,
	}
}

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/v1", v1Middleware(h.limiter)...)
	g.POST("/solve", h.Solve)
	g.POST("/opponents/:id/observations", h.Observe)
	g.GET("/opponents/:id", h.Profile)
}

// v1Middleware is shared by every /v1 handler: rate limit first, then the bearer check.
func v1Middleware(limiter middleware.Allower) []echo.MiddlewareFunc {
	var mws []echo.MiddlewareFunc
	if limiter != nil {
		mws = append(mws, middleware.RateLimit(limiter))
	}
	return append(mws, middleware.RequireBearer())
}

// Solve returns the bare recommendation, not the envelope, to match the suggestion payload clients decode.
func (h *AdvisorEchoHandler) Solve(c echo.Context) error {
	req := &models.SolveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec := h.advisor.Advise(c.Request().Context(), strings.TrimSpace(req.OpponentID), req.Snapshot())
	return c.JSON(http.StatusOK, rec)
}

func (h *AdvisorEchoHandler) Observe(c echo.Context) error {
	req := &models.ObservationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.recorder.Record(c.Request().Context(), usecase.ObservationSourceHTTP, req.Observation())
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyOpponentID) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("observation usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"profile": view})
}

func (h *AdvisorEchoHandler) Profile(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.recorder.Profile(strings.TrimSpace(req.OpponentID)))
}

// Health stays 200 when history is unreachable; advisories do not depend on it.
func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:    "ok",
		Opponents: h.recorder.Tracked(),
		Reasoning: h.reasoningMode,
		History:   usecase.HistoryDisabled,
	}
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), historyHealthTimeout)
		defer cancel()
		resp.History = h.history.Health(ctx)
	}
	if resp.History == usecase.HistoryUnreachable {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}
