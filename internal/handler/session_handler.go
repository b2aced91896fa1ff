package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/history"
	"github.com/wiredbrain/axiom/internal/port"
)

// SessionHandler manages conversation sessions.
type SessionHandler struct {
	histories *history.Manager
	sink      port.InteractionSink // nil when persistence is disabled
}

// NewSessionHandler creates a new session handler. sink may be nil.
func NewSessionHandler(histories *history.Manager, sink port.InteractionSink) *SessionHandler {
	return &SessionHandler{histories: histories, sink: sink}
}

// Register sets up session routes.
func (h *SessionHandler) Register(router fiber.Router) {
	sessions := router.Group("/sessions")
	sessions.Post("/", h.Create)
	sessions.Delete("/:id", h.End)
	sessions.Get("/:id/history", h.History)
	sessions.Get("/:id/stats", h.Stats)
}

// Create starts a new session and returns its ID.
func (h *SessionHandler) Create(c fiber.Ctx) error {
	id := h.histories.Create()
	slog.Info("session created", "session", id)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": id})
}

// End closes a session and drops its in-memory history.
func (h *SessionHandler) End(c fiber.Ctx) error {
	id := c.Params("id")
	if !h.histories.End(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	slog.Info("session ended", "session", id)
	return c.JSON(fiber.Map{"session_id": id, "ended": true})
}

// History returns the session's recent interactions, oldest first.
func (h *SessionHandler) History(c fiber.Ctx) error {
	id := c.Params("id")
	hist, ok := h.histories.Lookup(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	n := hist.Len()
	if v, err := strconv.Atoi(c.Query("n", "")); err == nil && v > 0 {
		n = v
	}
	interactions := hist.Recent(n)
	return c.JSON(fiber.Map{
		"session_id":   id,
		"interactions": interactions,
		"count":        len(interactions),
	})
}

// Stats returns aggregate session statistics. Persisted stats are
// preferred; without a sink the in-memory window is summarized instead.
func (h *SessionHandler) Stats(c fiber.Ctx) error {
	id := c.Params("id")
	hist, ok := h.histories.Lookup(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	if h.sink != nil {
		stats, err := h.sink.SessionStats(c.Context(), id)
		if err == nil {
			return c.JSON(stats)
		}
		slog.Warn("persisted stats unavailable, using in-memory window", "session", id, "error", err)
	}

	return c.JSON(memoryStats(id, hist))
}

func memoryStats(id string, hist *history.History) *domain.SessionStats {
	stats := &domain.SessionStats{
		SessionID:   id,
		RouteCounts: make(map[string]int),
	}
	for _, in := range hist.Recent(hist.Len()) {
		stats.Interactions++
		stats.AvgConfidence += in.Confidence
		stats.RouteCounts[string(in.Route)]++
	}
	if stats.Interactions > 0 {
		stats.AvgConfidence /= float64(stats.Interactions)
	}
	return stats
}
