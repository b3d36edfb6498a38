package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string
	// LogFormat selects "json" or "text" log output.
	LogFormat string

	DatabasePath string

	// RemoteStoreURL is the single endpoint of the spreadsheet-backed store
	// (an Apps Script web app URL). All persistence goes through it.
	RemoteStoreURL     string
	RemoteStoreTimeout time.Duration
	// RemoteStoreObserve selects the fully-observable transport contract:
	// responses are read and validated. Disabling it turns writes into
	// fire-and-forget, an explicitly degraded mode.
	RemoteStoreObserve bool

	ReferenceCacheTTL time.Duration
	SessionTTL        time.Duration

	DefaultInstallments int
	MaxInstallments     int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	remoteStoreURL := getEnv("REMOTE_STORE_URL", "")
	if remoteStoreURL == "" {
		log.Println("WARNING: REMOTE_STORE_URL is not set. Remote persistence will fail until it is configured.")
	}

	Cfg = &AppConfig{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DatabasePath: getEnv("DATABASE_PATH", "./debtfolio.db"),

		RemoteStoreURL:     remoteStoreURL,
		RemoteStoreTimeout: getEnvAsDuration("REMOTE_STORE_TIMEOUT", 20*time.Second),
		RemoteStoreObserve: getEnvAsBool("REMOTE_STORE_OBSERVE", true),

		ReferenceCacheTTL: getEnvAsDuration("REFERENCE_CACHE_TTL", 15*time.Minute),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 2*time.Hour),

		DefaultInstallments: getEnvAsInt("DEFAULT_INSTALLMENTS", 12),
		MaxInstallments:     getEnvAsInt("MAX_INSTALLMENTS", 120),
	}

	if Cfg.DefaultInstallments < 1 {
		log.Printf("WARNING: DEFAULT_INSTALLMENTS must be at least 1, got %d. Using 12.", Cfg.DefaultInstallments)
		Cfg.DefaultInstallments = 12
	}
	if Cfg.MaxInstallments < Cfg.DefaultInstallments {
		log.Printf("WARNING: MAX_INSTALLMENTS (%d) below DEFAULT_INSTALLMENTS (%d). Using 120.", Cfg.MaxInstallments, Cfg.DefaultInstallments)
		Cfg.MaxInstallments = 120
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RemoteStoreObserve=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.RemoteStoreObserve)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
