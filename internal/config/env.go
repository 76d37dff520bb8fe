package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// FinderConfig drives the statement locator and the batch walker.
type FinderConfig struct {
	ProbabilitiesFile string
	LonerThreshold    int
	CompaniesDir      string
	ReportDir         string
	LabelsFile        string
	Concurrency       int
	DocumentTimeout   time.Duration
}

// StoreConfig holds result storage for serve mode.
type StoreConfig struct {
	RedisURL  string
	ResultTTL time.Duration
}

// S3Config holds report upload and s3:// download settings.
type S3Config struct {
	Bucket       string
	ReportPrefix string
	Region       string
	// Endpoint and static keys target S3-compatible stores such as MinIO.
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ServerConfig holds HTTP settings for serve mode.
type ServerConfig struct {
	Port      string
	UploadDir string
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Finder  FinderConfig
	Store   StoreConfig
	S3      S3Config
	Server  ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/finfinder.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_finfinder",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cpus := runtime.NumCPU()
	cfg.Finder = FinderConfig{
		ProbabilitiesFile: getEnv("CLASSIFIER_PROBS", "classifier-probs.json"),
		LonerThreshold:    parseInt(getEnv("LONER_THRESHOLD", "6"), 6),
		CompaniesDir:      getEnv("COMPANIES_DIR", "companies"),
		ReportDir:         getEnv("REPORT_DIR", "."),
		LabelsFile:        getEnv("LABELS_FILE", "pages-labeled.json"),
		Concurrency:       parseInt(getEnv("WORKER_CONCURRENCY", strconv.Itoa(cpus)), cpus),
		DocumentTimeout:   parseDuration(getEnv("DOCUMENT_TIMEOUT", "5m"), 5*time.Minute),
	}
	if cfg.Finder.Concurrency <= 0 {
		cfg.Finder.Concurrency = 1
	}
	if cfg.Finder.LonerThreshold <= 0 {
		cfg.Finder.LonerThreshold = 6
	}

	cfg.Store = StoreConfig{
		RedisURL:  getEnv("REDIS_URL", ""),
		ResultTTL: parseDuration(getEnv("RESULT_TTL", "24h"), 24*time.Hour),
	}

	cfg.S3 = S3Config{
		Bucket:       getEnv("AWS_S3_BUCKET", ""),
		ReportPrefix: strings.Trim(getEnv("REPORT_S3_PREFIX", "reports"), "/"),
		Region:       getEnv("AWS_REGION", ""),
		Endpoint:     getEnv("S3_ENDPOINT", ""),
		AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		SecretKey:    getEnv("S3_SECRET_KEY", ""),
	}

	cfg.Server = ServerConfig{
		Port:      getEnv("PORT", "8080"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
