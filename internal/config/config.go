package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CategoryConfig represents one weighted keyword category.
type CategoryConfig struct {
	Terms     []string
	Threshold float64
	Weight    float64
}

// ProviderConfig represents configuration for a single content provider.
type ProviderConfig struct {
	Type     string
	URLs     []string
	Priority int
	Query    string
}

// ScoreWeights are the component weights of the composite trend score.
type ScoreWeights struct {
	Frequency     float64
	Velocity      float64
	Engagement    float64
	CrossPlatform float64
	Recency       float64
}

// TrendConfig holds thresholds and windows for trend analysis.
type TrendConfig struct {
	Weights           ScoreWeights
	TrendingThreshold float64
	ViralThreshold    float64
	CrisisAlertLevel  float64
	MinMentions       int
	AnalysisCacheTTL  time.Duration
	HistoryWindow     time.Duration
	HistoryRetention  time.Duration
	TopN              int
}

// DedupConfig holds thresholds for duplicate detection.
type DedupConfig struct {
	TitleSimilarity float64
	FuzzySimilarity float64
	MinURLLength    int
}

// ScorerConfig holds keyword scoring configuration.
type ScorerConfig struct {
	Categories    map[string]CategoryConfig
	SpamCategory  string
	SpamThreshold float64
	CaseSensitive bool
	WholeWord     bool
}

// SecurityConfig represents security configuration for the HTTP surface.
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port            int
	DataDir         string
	LogLevel        string
	CycleInterval   time.Duration
	FetchTimeout    time.Duration
	ErrorBufferSize int
	EnableSwagger   bool
	Providers       map[string]ProviderConfig
	Scorer          ScorerConfig
	Dedup           DedupConfig
	Trend           TrendConfig
	Security        SecurityConfig
}

func Load() *Config {
	// A missing .env file is fine; env vars may come from the environment.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded configuration overrides from .env")
	}

	providers := loadProvidersFromEnv()
	if len(providers) == 0 {
		providers = getDefaultProviders()
	}

	categories := loadCategoriesFromEnv()
	if len(categories) == 0 {
		categories = getDefaultCategories()
	}

	// Retention defaults to seven history windows so widening the window
	// keeps proportionally more history unless retention is set explicitly.
	historyWindow := getEnvAsDuration("TREND_HISTORY_WINDOW", 24*time.Hour)

	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DataDir:         getEnv("DATA_DIR", "./data"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CycleInterval:   getEnvAsDuration("CYCLE_INTERVAL", 15*time.Minute),
		FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		ErrorBufferSize: getEnvAsInt("ERROR_BUFFER_SIZE", 50),
		EnableSwagger:   getEnvAsBool("ENABLE_SWAGGER", true),
		Providers:       providers,
		Scorer: ScorerConfig{
			Categories:    categories,
			SpamCategory:  getEnv("SPAM_CATEGORY", "spam"),
			SpamThreshold: getEnvAsFloat("SPAM_THRESHOLD", 0.5),
			CaseSensitive: getEnvAsBool("SCORER_CASE_SENSITIVE", false),
			WholeWord:     getEnvAsBool("SCORER_WHOLE_WORD", false),
		},
		Dedup: DedupConfig{
			TitleSimilarity: getEnvAsFloat("DEDUP_TITLE_SIMILARITY", 0.8),
			FuzzySimilarity: getEnvAsFloat("DEDUP_FUZZY_SIMILARITY", 0.75),
			MinURLLength:    getEnvAsInt("DEDUP_MIN_URL_LENGTH", 12),
		},
		Trend: TrendConfig{
			Weights: ScoreWeights{
				Frequency:     getEnvAsFloat("TREND_WEIGHT_FREQUENCY", 0.30),
				Velocity:      getEnvAsFloat("TREND_WEIGHT_VELOCITY", 0.25),
				Engagement:    getEnvAsFloat("TREND_WEIGHT_ENGAGEMENT", 0.20),
				CrossPlatform: getEnvAsFloat("TREND_WEIGHT_CROSS_PLATFORM", 0.15),
				Recency:       getEnvAsFloat("TREND_WEIGHT_RECENCY", 0.10),
			},
			TrendingThreshold: getEnvAsFloat("TREND_TRENDING_THRESHOLD", 0.6),
			ViralThreshold:    getEnvAsFloat("TREND_VIRAL_THRESHOLD", 0.8),
			CrisisAlertLevel:  getEnvAsFloat("TREND_CRISIS_ALERT_LEVEL", 0.7),
			MinMentions:       getEnvAsInt("TREND_MIN_MENTIONS", 3),
			AnalysisCacheTTL:  getEnvAsDuration("TREND_CACHE_TTL", 5*time.Minute),
			HistoryWindow:     historyWindow,
			HistoryRetention:  getEnvAsDuration("TREND_HISTORY_RETENTION", 7*historyWindow),
			TopN:              getEnvAsInt("TREND_TOP_N", 10),
		},
		Security: loadSecurityConfig(),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 10<<20), // 10MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func loadProvidersFromEnv() map[string]ProviderConfig {
	providers := make(map[string]ProviderConfig)

	// Look for PROVIDER_* environment variables
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "PROVIDER_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.ToLower(strings.TrimPrefix(parts[0], "PROVIDER_"))
		urls, priority := parseProviderValue(parts[1])
		if len(urls) == 0 {
			continue
		}

		providers[name] = ProviderConfig{
			Type:     name,
			URLs:     urls,
			Priority: priority,
		}
	}

	return providers
}

func parseProviderValue(value string) ([]string, int) {
	// Format: "url1,url2,url3|priority"
	// If no priority specified, just URLs: "url1,url2,url3"
	parts := strings.Split(value, "|")

	var urls []string
	for _, u := range strings.Split(parts[0], ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}

	priority := 1
	if len(parts) > 1 {
		if p, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			priority = p
		}
	}

	return urls, priority
}

func loadCategoriesFromEnv() map[string]CategoryConfig {
	categories := make(map[string]CategoryConfig)

	// Format: KEYWORDS_CRISIS="term1,term2|threshold|weight"
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "KEYWORDS_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.ToLower(strings.TrimPrefix(parts[0], "KEYWORDS_"))
		cat := parseCategoryValue(parts[1])
		if len(cat.Terms) == 0 {
			continue
		}
		categories[name] = cat
	}

	return categories
}

func parseCategoryValue(value string) CategoryConfig {
	parts := strings.Split(value, "|")

	var terms []string
	for _, t := range strings.Split(parts[0], ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
	}

	cat := CategoryConfig{Terms: terms, Threshold: 0.3, Weight: 1.0}
	if len(parts) > 1 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			cat.Threshold = f
		}
	}
	if len(parts) > 2 {
		if f, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err == nil {
			cat.Weight = f
		}
	}

	return cat
}

func getDefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"news": {
			Type: "news",
			URLs: []string{
				"https://feeds.npr.org/1001/rss.xml",
				"http://rss.cnn.com/rss/edition_world.rss",
				"https://feeds.bbci.co.uk/news/world/rss.xml",
			},
			Priority: 3,
		},
		"social": {
			Type: "social",
			URLs: []string{
				"https://www.reddit.com/r/worldnews/.rss",
				"https://www.reddit.com/r/news/.rss",
			},
			Priority: 2,
		},
		"events": {
			Type: "events",
			URLs: []string{
				"https://www.gdacs.org/xml/rss.xml",
			},
			Priority: 1,
		},
	}
}

func getDefaultCategories() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		"crisis": {
			Terms: []string{
				"emergency", "urgent", "breaking", "disaster", "earthquake",
				"flood", "hurricane", "wildfire", "evacuation", "outbreak",
				"explosion", "crisis", "casualties", "rescue", "warning",
			},
			Threshold: 0.2,
			Weight:    1.5,
		},
		"viral": {
			Terms: []string{
				"viral", "trending", "everyone is talking", "blows up",
				"shocking", "unbelievable", "must see", "watch this",
				"goes viral", "internet reacts",
			},
			Threshold: 0.25,
			Weight:    1.0,
		},
		"misinformation": {
			Terms: []string{
				"hoax", "debunked", "false claim", "fact check", "conspiracy",
				"fake news", "misleading", "unverified", "rumor",
			},
			Threshold: 0.25,
			Weight:    0.8,
		},
		"spam": {
			Terms: []string{
				"click here", "buy now", "limited offer", "free money",
				"subscribe now", "giveaway", "promo code", "casino",
				"earn cash", "work from home",
			},
			Threshold: 0.3,
			Weight:    0.0,
		},
	}
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		origins := strings.Split(val, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return origins
	}
	return defaultVal
}
