package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
)

// KnowledgeHandler exposes corpus reload, corpus stats, and the
// training-data export.
type KnowledgeHandler struct {
	base *knowledge.Base
	sink port.InteractionSink // nil when persistence is disabled
}

// NewKnowledgeHandler creates a new knowledge handler. sink may be nil.
func NewKnowledgeHandler(base *knowledge.Base, sink port.InteractionSink) *KnowledgeHandler {
	return &KnowledgeHandler{base: base, sink: sink}
}

// Register sets up knowledge routes.
func (h *KnowledgeHandler) Register(router fiber.Router) {
	kb := router.Group("/knowledge")
	kb.Post("/reload", h.Reload)
	kb.Get("/stats", h.Stats)
	kb.Get("/training-data", h.TrainingData)
}

// Reload rebuilds the corpora and the semantic index from disk. The
// previous snapshot keeps serving until the swap.
func (h *KnowledgeHandler) Reload(c fiber.Ctx) error {
	if err := h.base.Reload(c.Context()); err != nil {
		slog.Error("knowledge reload failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Info("knowledge reloaded")
	return c.JSON(fiber.Map{"reloaded": true})
}

// Stats returns per-category item counts of the active snapshot.
func (h *KnowledgeHandler) Stats(c fiber.Ctx) error {
	snap := h.base.Current()
	counts := make(map[string]int, len(domain.Categories))
	total := 0
	for _, cat := range domain.Categories {
		n := snap.Store.Count(cat)
		counts[string(cat)] = n
		total += n
	}
	return c.JSON(fiber.Map{"categories": counts, "total": total})
}

// TrainingData exports high-confidence interactions for offline
// classifier retraining.
func (h *KnowledgeHandler) TrainingData(c fiber.Ctx) error {
	if h.sink == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "persistence disabled"})
	}

	minConfidence := 0.7
	if v, err := strconv.ParseFloat(c.Query("min_confidence", ""), 64); err == nil {
		minConfidence = v
	}
	limit := 1000
	if v, err := strconv.Atoi(c.Query("limit", "")); err == nil && v > 0 {
		limit = v
	}

	data, err := h.sink.TrainingData(c.Context(), minConfidence, limit)
	if err != nil {
		slog.Error("training data export failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "export failed"})
	}
	return c.JSON(fiber.Map{"interactions": data, "count": len(data)})
}
