package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/api/metrics"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// EarnHandler exposes the earn games and their play history.
type EarnHandler struct {
	games ports.GameService
}

func NewEarnHandler(games ports.GameService) *EarnHandler {
	return &EarnHandler{games: games}
}

// SpinWheel handles POST /earn/wheel.
func (h *EarnHandler) SpinWheel(c echo.Context) error {
	return h.play(c, h.games.SpinWheel)
}

// Mine handles POST /earn/mine.
func (h *EarnHandler) Mine(c echo.Context) error {
	return h.play(c, h.games.Mine)
}

// OpenMysteryBox handles POST /earn/box.
func (h *EarnHandler) OpenMysteryBox(c echo.Context) error {
	return h.play(c, h.games.OpenMysteryBox)
}

// History handles GET /earn/history. Optional ?limit, default 10.
func (h *EarnHandler) History(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	logs, err := h.games.History(c.Request().Context(), profile.UserID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *EarnHandler) play(c echo.Context, game func(ctx context.Context, userID string) (*ports.GameResult, error)) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	result, err := game(c.Request().Context(), profile.UserID)
	if err != nil {
		return err
	}

	metrics.GamePlaysTotal.WithLabelValues(string(result.Game), result.Tier).Inc()
	return c.JSON(http.StatusOK, result)
}
