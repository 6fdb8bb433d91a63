package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "ARTICLE_AUGMENTER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
	aiAPIKeyEnv       = "AI_API_KEY"
	aiAPIURLEnv       = "AI_API_URL"
	aiModelEnv        = "AI_MODEL"
	aiProviderEnv     = "AI_PROVIDER"
	aiTargetLangEnv   = "AI_TARGET_LANGUAGE"
	aiAutoSummaryEnv  = "AI_AUTO_SUMMARY"
	aiTranslateEnv    = "AI_TRANSLATE_ENABLED"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv   = "TELEGRAM_CHAT_ID"
	defaultUILocale   = "en-US"
	defaultAITimeout  = 60 * time.Second
	defaultFetchLimit = 20 * time.Second
)

// Classifier backends accepted in detection.backend.
const (
	BackendLingua = "lingua"
	BackendHTTP   = "http"
)

// Provider names accepted in ai.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderCustom = "custom"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	AI         AIConfig         `yaml:"ai"`
	Detection  DetectionConfig  `yaml:"detection"`
	Extraction ExtractionConfig `yaml:"extraction"`
	UI         UIConfig         `yaml:"ui"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   DatabaseConfig   `yaml:"database"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Feed       FeedConfig       `yaml:"feed"`
	Notify     NotifyConfig     `yaml:"notify"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AIConfig mirrors the reader's AI settings object.
type AIConfig struct {
	Enabled           bool          `yaml:"enabled"`
	AutoSummary       bool          `yaml:"autoSummary"`
	TranslateEnabled  bool          `yaml:"translateEnabled"`
	TargetLanguage    string        `yaml:"targetLanguage"`
	APIKey            string        `yaml:"apiKey"`
	APIURL            string        `yaml:"apiUrl"`
	Model             string        `yaml:"model"`
	Provider          string        `yaml:"provider"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

// DetectionConfig carries the tunable knobs of the mismatch policy.
type DetectionConfig struct {
	MinChunkLength   int      `yaml:"minChunkLength"`
	ConfidenceCutoff float64  `yaml:"confidenceCutoff"`
	RatioThreshold   float64  `yaml:"ratioThreshold"`
	Languages        []string `yaml:"languages"`

	// Backend is "lingua" (in process) or "http" (remote classifier at Endpoint).
	Backend  string        `yaml:"backend"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ExtractionConfig describes which elements are translated and when summaries auto-run.
type ExtractionConfig struct {
	RootSelector     string `yaml:"rootSelector"`
	ItemSelector     string `yaml:"itemSelector"`
	MinTextLength    int    `yaml:"minTextLength"`
	SummaryMinLength int    `yaml:"summaryMinLength"`
}

// UIConfig holds reader locale used for labels and target fallback.
type UIConfig struct {
	Locale string `yaml:"locale"`
}

// CacheConfig tunes the in-memory augmentation cache.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
}

// DatabaseConfig describes the optional Postgres store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// FetchConfig controls the full-content fetcher.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// FeedConfig controls batch augmentation of feed items.
type FeedConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Limit       int           `yaml:"limit"`
	Interval    time.Duration `yaml:"interval"`
}

// NotifyConfig holds Telegram credentials for feed digests.
type NotifyConfig struct {
	TelegramToken  string `yaml:"telegramToken"`
	TelegramChatID string `yaml:"telegramChatId"`
}

// Load reads YAML configuration from the env-provided path (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path uses defaults only.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		fileCfg, switches, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
			switches.apply(&cfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// fileSwitches captures values the file sets explicitly, so that
// `enabled: false` or `ratioThreshold: 0` is distinguishable from an absent key.
type fileSwitches struct {
	AI        aiSwitches        `yaml:"ai"`
	Detection detectionSwitches `yaml:"detection"`
}

func (s fileSwitches) apply(cfg *Config) {
	s.AI.apply(&cfg.AI)
	s.Detection.apply(&cfg.Detection)
}

type aiSwitches struct {
	Enabled          *bool `yaml:"enabled"`
	AutoSummary      *bool `yaml:"autoSummary"`
	TranslateEnabled *bool `yaml:"translateEnabled"`
}

func (s aiSwitches) apply(ai *AIConfig) {
	if s.Enabled != nil {
		ai.Enabled = *s.Enabled
	}
	if s.AutoSummary != nil {
		ai.AutoSummary = *s.AutoSummary
	}
	if s.TranslateEnabled != nil {
		ai.TranslateEnabled = *s.TranslateEnabled
	}
}

// detectionSwitches lets the file set a tunable to zero; negative values are ignored.
type detectionSwitches struct {
	MinChunkLength   *int     `yaml:"minChunkLength"`
	ConfidenceCutoff *float64 `yaml:"confidenceCutoff"`
	RatioThreshold   *float64 `yaml:"ratioThreshold"`
}

func (s detectionSwitches) apply(d *DetectionConfig) {
	if s.MinChunkLength != nil && *s.MinChunkLength >= 0 {
		d.MinChunkLength = *s.MinChunkLength
	}
	if s.ConfidenceCutoff != nil && *s.ConfidenceCutoff >= 0 {
		d.ConfidenceCutoff = *s.ConfidenceCutoff
	}
	if s.RatioThreshold != nil && *s.RatioThreshold >= 0 {
		d.RatioThreshold = *s.RatioThreshold
	}
}

func readFile(path string) (Config, fileSwitches, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fileSwitches{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fileSwitches{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	var switches fileSwitches
	if err := yaml.Unmarshal(raw, &switches); err != nil {
		return Config{}, fileSwitches{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, switches, nil
}

// TargetLanguage resolves the translation target code: user override, then reader locale, then en-US.
func (c Config) TargetLanguage() string {
	if v := strings.TrimSpace(c.AI.TargetLanguage); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.UI.Locale); v != "" {
		return v
	}
	return defaultUILocale
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(aiAPIKeyEnv); v != "" {
		c.AI.APIKey = v
	}

	if v := os.Getenv(aiAPIURLEnv); v != "" {
		c.AI.APIURL = v
	}

	if v := os.Getenv(aiModelEnv); v != "" {
		c.AI.Model = v
	}

	if v := os.Getenv(aiProviderEnv); v != "" {
		c.AI.Provider = strings.ToLower(v)
	}

	if v := os.Getenv(aiTargetLangEnv); v != "" {
		c.AI.TargetLanguage = v
	}

	if v, ok := envBool(aiAutoSummaryEnv); ok {
		c.AI.AutoSummary = v
	}

	if v, ok := envBool(aiTranslateEnv); ok {
		c.AI.TranslateEnabled = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notify.TelegramToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notify.TelegramChatID = v
	}
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s=%q is not a boolean, ignoring", key, raw)
		return false, false
	}
	return v, true
}

// mergeConfig overlays non-zero file values; ai booleans and detection
// tunables go through fileSwitches.
func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.AI.TargetLanguage != "" {
		base.AI.TargetLanguage = override.AI.TargetLanguage
	}
	if override.AI.APIKey != "" {
		base.AI.APIKey = override.AI.APIKey
	}
	if override.AI.APIURL != "" {
		base.AI.APIURL = override.AI.APIURL
	}
	if override.AI.Model != "" {
		base.AI.Model = override.AI.Model
	}
	if override.AI.Provider != "" {
		base.AI.Provider = strings.ToLower(override.AI.Provider)
	}
	if override.AI.Timeout > 0 {
		base.AI.Timeout = override.AI.Timeout
	}
	if override.AI.RequestsPerMinute > 0 {
		base.AI.RequestsPerMinute = override.AI.RequestsPerMinute
	}

	if len(override.Detection.Languages) > 0 {
		base.Detection.Languages = override.Detection.Languages
	}
	if override.Detection.Backend != "" {
		base.Detection.Backend = strings.ToLower(override.Detection.Backend)
	}
	if override.Detection.Endpoint != "" {
		base.Detection.Endpoint = override.Detection.Endpoint
	}
	if override.Detection.APIKey != "" {
		base.Detection.APIKey = override.Detection.APIKey
	}
	if override.Detection.Timeout > 0 {
		base.Detection.Timeout = override.Detection.Timeout
	}

	if override.Extraction.RootSelector != "" {
		base.Extraction.RootSelector = override.Extraction.RootSelector
	}
	if override.Extraction.ItemSelector != "" {
		base.Extraction.ItemSelector = override.Extraction.ItemSelector
	}
	if override.Extraction.MinTextLength > 0 {
		base.Extraction.MinTextLength = override.Extraction.MinTextLength
	}
	if override.Extraction.SummaryMinLength > 0 {
		base.Extraction.SummaryMinLength = override.Extraction.SummaryMinLength
	}

	if override.UI.Locale != "" {
		base.UI.Locale = override.UI.Locale
	}

	if override.Cache.TTL > 0 {
		base.Cache.TTL = override.Cache.TTL
	}
	if override.Cache.CleanupInterval > 0 {
		base.Cache.CleanupInterval = override.Cache.CleanupInterval
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}

	if override.Feed.Concurrency > 0 {
		base.Feed.Concurrency = override.Feed.Concurrency
	}
	if override.Feed.Limit > 0 {
		base.Feed.Limit = override.Feed.Limit
	}
	if override.Feed.Interval > 0 {
		base.Feed.Interval = override.Feed.Interval
	}

	if override.Notify.TelegramToken != "" {
		base.Notify.TelegramToken = override.Notify.TelegramToken
	}
	if override.Notify.TelegramChatID != "" {
		base.Notify.TelegramChatID = override.Notify.TelegramChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		AI: AIConfig{
			Enabled:           true,
			AutoSummary:       false,
			TranslateEnabled:  true,
			Provider:          ProviderOpenAI,
			Timeout:           defaultAITimeout,
			RequestsPerMinute: 30,
		},
		Detection: DetectionConfig{
			MinChunkLength:   20,
			ConfidenceCutoff: 0.1,
			RatioThreshold:   0.2,
			Backend:          BackendLingua,
			Timeout:          5 * time.Second,
		},
		Extraction: ExtractionConfig{
			RootSelector:     "article",
			ItemSelector:     "p, li, h1, h2, h3, h4, h5, h6",
			MinTextLength:    10,
			SummaryMinLength: 500,
		},
		UI:    UIConfig{Locale: defaultUILocale},
		Cache: CacheConfig{TTL: 6 * time.Hour, CleanupInterval: 30 * time.Minute},
		Fetch: FetchConfig{Timeout: defaultFetchLimit, UserAgent: "ArticleAugmenter/1.0"},
		Feed:  FeedConfig{Concurrency: 4, Limit: 20},
	}
}

// Default exposes the built-in configuration, mainly for tests and tools.
func Default() Config {
	return defaultConfig()
}
