package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the analysis service
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Fetcher  FetcherConfig
	Log      LogConfig
}

// ServerConfig holds HTTP boundary configuration
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
	MinTextLength  int
	MaxTextLength  int
}

// AnalysisConfig holds the tunables of the text-analysis pipeline
type AnalysisConfig struct {
	Language            string
	SummarySentences    int
	TopicCount          int
	MaxSummarySentences int
	MaxTopicCount       int

	// Topic vectorizer
	MaxFeatures int
	MaxDocFreq  float64
	MinDocFreq  int

	// Topic factorization
	FactorizationSeed  int64
	FactorizationIters int
	FactorizationTol   float64

	// Summarizer
	TermSmoothing    float64
	LatentDimensions int
}

// FetcherConfig holds configuration for summarizing remote pages
type FetcherConfig struct {
	Enabled             bool
	RequestTimeout      time.Duration
	UserAgent           string
	MaxPageBytes        int64
	EnableRobotsCheck   bool
	RobotsCacheDuration time.Duration
	MinHostDelay        time.Duration
	MaxRedirects        int
	MaxTrackedHosts     int
	// AllowPrivateHosts lets the fetcher reach loopback, private and
	// link-local addresses. Leave off outside of tests.
	AllowPrivateHosts bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           GetStringEnv("SERVER_ADDR", ":5001"),
			ReadTimeout:    GetDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   GetDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   int64(GetIntEnv("SERVER_MAX_BODY_BYTES", 10<<20)),
			AllowedOrigins: GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			MinTextLength:  GetIntEnv("TEXT_MIN_LENGTH", 50),
			MaxTextLength:  GetIntEnv("TEXT_MAX_LENGTH", 50000),
		},
		Analysis: AnalysisConfig{
			Language:            GetStringEnv("ANALYSIS_LANGUAGE", "english"),
			SummarySentences:    GetIntEnv("ANALYSIS_SUMMARY_SENTENCES", 3),
			TopicCount:          GetIntEnv("ANALYSIS_TOPIC_COUNT", 5),
			MaxSummarySentences: GetIntEnv("ANALYSIS_MAX_SUMMARY_SENTENCES", 20),
			MaxTopicCount:       GetIntEnv("ANALYSIS_MAX_TOPIC_COUNT", 20),
			MaxFeatures:         GetIntEnv("ANALYSIS_MAX_FEATURES", 100),
			MaxDocFreq:          GetFloatEnv("ANALYSIS_MAX_DOC_FREQ", 0.8),
			MinDocFreq:          GetIntEnv("ANALYSIS_MIN_DOC_FREQ", 1),
			FactorizationSeed:   int64(GetIntEnv("ANALYSIS_NMF_SEED", 42)),
			FactorizationIters:  GetIntEnv("ANALYSIS_NMF_MAX_ITER", 100),
			FactorizationTol:    GetFloatEnv("ANALYSIS_NMF_TOL", 1e-4),
			TermSmoothing:       GetFloatEnv("ANALYSIS_TERM_SMOOTHING", 0.4),
			LatentDimensions:    GetIntEnv("ANALYSIS_LATENT_DIMENSIONS", 0),
		},
		Fetcher: FetcherConfig{
			Enabled:             GetBoolEnv("FETCHER_ENABLED", false),
			RequestTimeout:      GetDurationEnv("FETCHER_REQUEST_TIMEOUT", 30*time.Second),
			UserAgent:           GetStringEnv("FETCHER_USER_AGENT", "AutoNotes-Fetcher/1.0"),
			MaxPageBytes:        int64(GetIntEnv("FETCHER_MAX_PAGE_BYTES", 5<<20)),
			EnableRobotsCheck:   GetBoolEnv("FETCHER_ENABLE_ROBOTS_CHECK", true),
			RobotsCacheDuration: GetDurationEnv("FETCHER_ROBOTS_CACHE_DURATION", 24*time.Hour),
			MinHostDelay:        GetDurationEnv("FETCHER_MIN_HOST_DELAY", 1*time.Second),
			MaxRedirects:        GetIntEnv("FETCHER_MAX_REDIRECTS", 5),
			MaxTrackedHosts:     GetIntEnv("FETCHER_MAX_TRACKED_HOSTS", 1024),
			AllowPrivateHosts:   GetBoolEnv("FETCHER_ALLOW_PRIVATE_HOSTS", false),
		},
		Log: LogConfig{
			Level:  GetStringEnv("LOG_LEVEL", "info"),
			Format: GetStringEnv("LOG_FORMAT", "text"),
		},
	}
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetStringSliceEnv reads a comma-separated list, dropping empty items
func GetStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
