// Package handler exposes the assistant over HTTP.
package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/wiredbrain/axiom/internal/service"
)

// ConverseHandler handles the conversational endpoints.
type ConverseHandler struct {
	dispatcher *service.DispatchService
}

// NewConverseHandler creates a new converse handler.
func NewConverseHandler(dispatcher *service.DispatchService) *ConverseHandler {
	return &ConverseHandler{dispatcher: dispatcher}
}

// Register sets up the conversational routes.
func (h *ConverseHandler) Register(router fiber.Router) {
	router.Post("/converse", h.Converse)
	router.Post("/converse/stream", h.ConverseStream)
}

type converseRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (r *converseRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

// Converse answers one utterance and returns the full reply.
func (h *ConverseHandler) Converse(c fiber.Ctx) error {
	var body converseRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := body.validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reply, err := h.dispatcher.Converse(c.Context(), body.SessionID, body.Text)
	if err != nil {
		slog.Error("converse failed", "session", body.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(reply)
}

// ConverseStream answers one utterance as Server-Sent Events: a meta
// event with routing metadata, token events, then done.
func (h *ConverseHandler) ConverseStream(c fiber.Ctx) error {
	var body converseRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := body.validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tokens, reply, err := h.dispatcher.ConverseStream(c.Context(), body.SessionID, body.Text)
	if err != nil {
		slog.Error("converse stream failed", "session", body.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		meta, _ := json.Marshal(reply)
		fmt.Fprintf(w, "event: meta\ndata: %s\n\n", meta)
		w.Flush()

		for tok := range tokens {
			data, _ := json.Marshal(fiber.Map{"token": tok})
			fmt.Fprintf(w, "event: token\ndata: %s\n\n", data)
			w.Flush()
		}

		fmt.Fprintf(w, "event: done\ndata: {}\n\n")
		w.Flush()
	})
}
