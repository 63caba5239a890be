package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     int
	DBPath   string
	LogLevel string
	APIKey   string
	// Storage
	VectorBackend    string
	VectorDir        string
	QdrantURL        string
	QdrantCollection string
	FocusDir         string
	RetentionDays    int
	SimilarOverfetch int
	// ReconcileInterval is how often the vector index is checked against
	// SQLite while running.
	ReconcileInterval time.Duration
	// EmbedCacheDays drops cached embeddings unused for this many days.
	EmbedCacheDays int
	// Models
	ModelProvider  string
	OllamaBaseURL  string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	VisionModel    string
	EmbeddingModel string
	EmbeddingDim   int
	// Timing
	CaptureInterval time.Duration
	MinCooldown     time.Duration
	AnalyzerTimeout time.Duration
	// Analyzer
	RAMSize        int
	CaptureCommand string
	// Focus watchdog
	DistractionKeywords  []string
	DistractionThreshold int
	AlertCooldown        time.Duration
	NotifyCommand        string
	// DailyDistractionLimit is the distracted time allowed per day before
	// the budget notifications fire. Zero disables the budget.
	DailyDistractionLimit time.Duration
	// Privacy
	PrivateWindows []string
	// Profile file with keyword categories and private window patterns
	ProfilePath string
	Categories  []Category
}

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

func Load() (*Config, error) {
	dataDir := defaultDataDir()
	cfg := &Config{
		Port:                  envInt("PORT", 8742),
		DBPath:                envStr("HYPRCONTEXT_DB_PATH", filepath.Join(dataDir, "activity.db")),
		LogLevel:              envStr("LOG_LEVEL", "info"),
		APIKey:                envStr("API_KEY", ""),
		VectorBackend:         strings.ToLower(envStr("VECTOR_BACKEND", BackendChromem)),
		VectorDir:             envStr("VECTOR_DIR", filepath.Join(dataDir, "vectors")),
		QdrantURL:             envStr("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:      envStr("QDRANT_COLLECTION", "hypr_logs"),
		FocusDir:              envStr("FOCUS_DIR", filepath.Join(dataDir, "focus")),
		RetentionDays:         envInt("RETENTION_DAYS", 0),
		SimilarOverfetch:      envInt("SIMILAR_OVERFETCH", 32),
		ReconcileInterval:     envSeconds("RECONCILE_INTERVAL", 300),
		EmbedCacheDays:        envInt("EMBED_CACHE_DAYS", 14),
		ModelProvider:         strings.ToLower(envStr("MODEL_PROVIDER", ProviderOllama)),
		OllamaBaseURL:         envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		GeminiAPIKey:          envStr("GEMINI_API_KEY", ""),
		OpenAIAPIKey:          envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         envStr("OPENAI_BASE_URL", ""),
		VisionModel:           envStr("MODEL_VISION", "gemma3"),
		EmbeddingModel:        envStr("MODEL_EMBED", "mxbai-embed-large"),
		EmbeddingDim:          envInt("EMBEDDING_DIM", 1024),
		CaptureInterval:       envSeconds("CAPTURE_INTERVAL", 20),
		MinCooldown:           envSeconds("MIN_COOLDOWN", 5),
		AnalyzerTimeout:       envSeconds("ANALYZER_TIMEOUT", 60),
		RAMSize:               envInt("RAM_SIZE", 5),
		CaptureCommand:        envStr("CAPTURE_COMMAND", "grim"),
		DistractionKeywords:   envList("DISTRACTION_KEYWORDS", DefaultDistractionKeywords),
		DistractionThreshold:  envInt("DISTRACTION_THRESHOLD", 3),
		AlertCooldown:         envSeconds("ALERT_COOLDOWN", 600),
		NotifyCommand:         envStr("NOTIFY_COMMAND", "notify-send"),
		DailyDistractionLimit: envSeconds("DAILY_DISTRACTION_LIMIT", 1800),
		PrivateWindows:        envList("PRIVATE_WINDOWS", nil),
		ProfilePath:           envStr("PROFILE_PATH", filepath.Join(configDir(), "profile.yaml")),
	}

	profile, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	cfg.Categories = mergeCategories(profile.Categories, cfg.DistractionKeywords)
	cfg.PrivateWindows = append(cfg.PrivateWindows, profile.PrivateWindows...)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// DefaultDistractionKeywords mirrors the keyword list the watchdog shipped with.
var DefaultDistractionKeywords = []string{
	"youtube", "instagram", "twitter", "reddit", "oyun", "netflix", "video", "tiktok",
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("HYPRCONTEXT_DB_PATH must not be empty")
	}
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("CAPTURE_INTERVAL must be positive, got %s", c.CaptureInterval)
	}
	if c.MinCooldown < 0 {
		return fmt.Errorf("MIN_COOLDOWN must not be negative, got %s", c.MinCooldown)
	}
	if c.AnalyzerTimeout <= 0 {
		return fmt.Errorf("ANALYZER_TIMEOUT must be positive, got %s", c.AnalyzerTimeout)
	}
	if c.DistractionThreshold < 1 {
		return fmt.Errorf("DISTRACTION_THRESHOLD must be at least 1, got %d", c.DistractionThreshold)
	}
	if c.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN must not be negative, got %s", c.AlertCooldown)
	}
	if c.DailyDistractionLimit < 0 {
		return fmt.Errorf("DAILY_DISTRACTION_LIMIT must not be negative, got %s", c.DailyDistractionLimit)
	}
	if c.EmbeddingDim < 1 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive, got %s", c.ReconcileInterval)
	}
	if c.EmbedCacheDays < 1 {
		return fmt.Errorf("EMBED_CACHE_DAYS must be at least 1, got %d", c.EmbedCacheDays)
	}
	if c.SimilarOverfetch < 0 {
		return fmt.Errorf("SIMILAR_OVERFETCH must not be negative, got %d", c.SimilarOverfetch)
	}
	switch c.ModelProvider {
	case ProviderOllama:
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL must not be empty")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when MODEL_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required when MODEL_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("MODEL_PROVIDER must be one of ollama, gemini, openai, got %q", c.ModelProvider)
	}
	switch c.VectorBackend {
	case BackendChromem, BackendQdrant:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be chromem or qdrant, got %q", c.VectorBackend)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		var items []string
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				items = append(items, p)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return fallback
}

func defaultDataDir() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "hyprcontext")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "hyprcontext")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "hyprcontext")
}
