package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/wiredbrain/axiom/internal/adapter/ai"
	"github.com/wiredbrain/axiom/internal/adapter/classifier"
	"github.com/wiredbrain/axiom/internal/adapter/respond"
	"github.com/wiredbrain/axiom/internal/adapter/store"
	"github.com/wiredbrain/axiom/internal/corrector"
	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/handler"
	"github.com/wiredbrain/axiom/internal/history"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/mcp"
	"github.com/wiredbrain/axiom/internal/middleware"
	"github.com/wiredbrain/axiom/internal/port"
	"github.com/wiredbrain/axiom/internal/service"
	"github.com/wiredbrain/axiom/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting AXIOM assistant",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
		"classifier", cfg.ClassifierURL,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database (optional) ──────────────────────────────────────────────
	var sink port.InteractionSink
	var pgSink *store.PostgresSink
	if cfg.DatabaseURL != "" {
		var err error
		pgSink, err = store.NewPostgresSink(cfg.DatabaseURL)
		if err != nil {
			slog.Warn("database unavailable, persistence disabled", "error", err)
		} else {
			sink = pgSink
			defer pgSink.Close()
		}
	} else {
		slog.Info("no DATABASE_URL set, persistence disabled")
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)
	intentClassifier := classifier.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)

	// ── Knowledge base ───────────────────────────────────────────────────
	corpusPaths := knowledge.CorpusPaths{
		domain.CategoryEquipment: cfg.EquipmentFile,
		domain.CategoryProject:   cfg.ProjectsFile,
		domain.CategoryFact:      cfg.FactsFile,
		domain.CategoryTemplate:  cfg.TemplatesFile,
	}
	base, err := knowledge.NewBase(context.Background(), corpusPaths, ollamaAI)
	if err != nil {
		slog.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}

	if cfg.WatchCorpora {
		watcher, err := knowledge.WatchCorpora(context.Background(), base, corpusPaths)
		if err != nil {
			slog.Warn("corpus watcher unavailable, reload via endpoint only", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	// ── Response Engine (Strategy Pattern) ───────────────────────────────
	ragStrategy := respond.NewRAGStrategy(base, ollamaAI, cfg.TopK, cfg.MinSimilarity)
	engine := port.NewResponseEngine(
		respond.NewTemplateStrategy(base),
		ragStrategy,
		respond.NewGenerateStrategy(ollamaAI),
	)

	// ── Services ─────────────────────────────────────────────────────────
	histories := history.NewManager(cfg.HistorySize)
	pipeline := corrector.NewPipeline(knowledge.VocabularyVariants(base.Current().Store))
	dispatcher := service.NewDispatchService(engine, intentClassifier, base, histories, pipeline, sink, service.DispatchConfig{
		TemplateThreshold: cfg.TemplateThreshold,
		HistoryTurns:      cfg.HistoryContextTurns,
		GenerationTimeout: cfg.GenerationTimeout,
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Session-ID"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	if pgSink != nil {
		app.Use(middleware.AuditMiddleware(pgSink))
	}

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"app":      cfg.AppName,
			"version":  "1.0.0",
			"sessions": histories.Active(),
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	handler.NewConverseHandler(dispatcher).Register(api)
	handler.NewSessionHandler(histories, sink).Register(api)
	handler.NewKnowledgeHandler(base, sink).Register(api)
	if pgSink != nil {
		handler.NewAuditHandler(pgSink).Register(api)
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(dispatcher, ragStrategy, base, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
