package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database (optional; empty disables persistence)
	DatabaseURL string

	// Knowledge corpora
	DataDir       string
	EquipmentFile string
	ProjectsFile  string
	FactsFile     string
	TemplatesFile string
	WatchCorpora  bool

	// Ollama embed endpoint
	OllamaEmbedURL   string
	OllamaEmbedModel string
	OllamaEmbedToken string // Bearer token for Ollama Cloud (empty = local)

	// Ollama chat endpoint
	OllamaChatURL   string
	OllamaChatModel string
	OllamaChatToken string // Bearer token for Ollama Cloud (empty = local)

	EmbeddingDimension int

	// Intent classifier sidecar
	ClassifierURL     string
	ClassifierTimeout time.Duration

	// Routing
	TemplateThreshold float64
	MinSimilarity     float64
	TopK              int
	GenerationTimeout time.Duration

	// Conversation history
	HistorySize         int
	HistoryContextTurns int

	// MCP
	MCPEnabled bool
	MCPPort    string

	// Frontend
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	dataDir := envOrDefault("DATA_DIR", "./data")
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "AXIOM Assistant"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		DataDir:       dataDir,
		EquipmentFile: envOrDefault("EQUIPMENT_FILE", dataDir+"/equipment.json"),
		ProjectsFile:  envOrDefault("PROJECTS_FILE", dataDir+"/projects.json"),
		FactsFile:     envOrDefault("FACTS_FILE", dataDir+"/facts.json"),
		TemplatesFile: envOrDefault("TEMPLATES_FILE", dataDir+"/templates.json"),
		WatchCorpora:  envOrDefaultBool("WATCH_CORPORA", true),

		OllamaEmbedURL:   envOrDefault("OLLAMA_EMBED_URL", envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")),
		OllamaEmbedModel: envOrDefault("OLLAMA_EMBED_MODEL", "bge-m3"),
		OllamaEmbedToken: os.Getenv("OLLAMA_EMBED_TOKEN"),

		OllamaChatURL:   envOrDefault("OLLAMA_CHAT_URL", envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")),
		OllamaChatModel: envOrDefault("OLLAMA_CHAT_MODEL", "qwen3"),
		OllamaChatToken: os.Getenv("OLLAMA_CHAT_TOKEN"),

		EmbeddingDimension: envOrDefaultInt("EMBEDDING_DIMENSION", 1024),

		ClassifierURL:     envOrDefault("CLASSIFIER_URL", "http://localhost:8500"),
		ClassifierTimeout: envOrDefaultDuration("CLASSIFIER_TIMEOUT", 3*time.Second),

		TemplateThreshold: envOrDefaultFloat("TEMPLATE_THRESHOLD", 0.88),
		MinSimilarity:     envOrDefaultFloat("MIN_SIMILARITY", 0.2),
		TopK:              envOrDefaultInt("TOP_K", 3),
		GenerationTimeout: envOrDefaultDuration("GENERATION_TIMEOUT", 30*time.Second),

		HistorySize:         envOrDefaultInt("HISTORY_SIZE", 5),
		HistoryContextTurns: envOrDefaultInt("HISTORY_CONTEXT_TURNS", 4),

		MCPEnabled: envOrDefaultBool("MCP_ENABLED", true),
		MCPPort:    envOrDefault("MCP_PORT", "3002"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
