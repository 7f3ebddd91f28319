// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Admission AdmissionConfig
}

type ServerConfig struct {
	Port     string
	LogLevel string
}

type StorageConfig struct {
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	OpTimeout time.Duration
}

type AbuseConfig struct {
	Threshold     int
	Window        time.Duration
	BlockDuration time.Duration
}

type AdmissionConfig struct {
	DefaultPolicy domain.Policy
	Policies      []domain.Policy
	Abuse         AbuseConfig

	PrincipalHeader      string
	TrustedIdentifiers   []string
	TrustedNetworks      []string
	FailClosedCategories []domain.Category

	// AuditRedis liga o sink de auditoria no Redis além do sink de log.
	AuditRedis bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	server := ServerConfig{
		Port:     getEnv("SERVER_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	storageType := getEnv("STORAGE_TYPE", "memory")

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	admission, err := buildAdmissionConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: server,
		Storage: StorageConfig{
			Type:  storageType,
			Redis: redisConfig,
		},
		Admission: admission,
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	opTimeoutMs, err := strconv.Atoi(getEnv("REDIS_OP_TIMEOUT_MS", "500"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_OP_TIMEOUT_MS: %w", err)
	}

	return RedisConfig{
		Host:      host,
		Port:      port,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        db,
		OpTimeout: time.Duration(opTimeoutMs) * time.Millisecond,
	}, nil
}

func buildAdmissionConfig() (AdmissionConfig, error) {
	defaultRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_DEFAULT_REQUESTS", "100"))
	if err != nil {
		return AdmissionConfig{}, fmt.Errorf("invalid RATE_LIMIT_DEFAULT_REQUESTS: %w", err)
	}
	defaultWindowMs, err := strconv.Atoi(getEnv("RATE_LIMIT_DEFAULT_WINDOW_MS", "60000"))
	if err != nil {
		return AdmissionConfig{}, fmt.Errorf("invalid RATE_LIMIT_DEFAULT_WINDOW_MS: %w", err)
	}

	abuse, err := buildAbuseConfig()
	if err != nil {
		return AdmissionConfig{}, err
	}

	defaultPolicy := domain.Policy{
		Window:      time.Duration(defaultWindowMs) * time.Millisecond,
		MaxRequests: defaultRequests,
		Category:    domain.CategoryDefault,
	}

	policies, err := loadPolicies(getEnv("ADMISSION_POLICY_FILE", ""))
	if err != nil {
		return AdmissionConfig{}, err
	}

	failClosed, err := parseCategories(os.Getenv("ADMISSION_FAIL_CLOSED_CATEGORIES"))
	if err != nil {
		return AdmissionConfig{}, err
	}

	return AdmissionConfig{
		DefaultPolicy:        defaultPolicy,
		Policies:             policies,
		Abuse:                abuse,
		PrincipalHeader:      getEnv("ADMISSION_PRINCIPAL_HEADER", "X-Principal-Id"),
		TrustedIdentifiers:   splitList(os.Getenv("ADMISSION_TRUSTED_IDENTIFIERS")),
		TrustedNetworks:      splitList(os.Getenv("ADMISSION_TRUSTED_NETWORKS")),
		FailClosedCategories: failClosed,
		AuditRedis:           getEnv("ADMISSION_AUDIT_REDIS", "false") == "true",
	}, nil
}

func buildAbuseConfig() (AbuseConfig, error) {
	threshold, err := strconv.Atoi(getEnv("ABUSE_THRESHOLD", "1000"))
	if err != nil {
		return AbuseConfig{}, fmt.Errorf("invalid ABUSE_THRESHOLD: %w", err)
	}
	windowMinutes, err := strconv.Atoi(getEnv("ABUSE_WINDOW_MINUTES", "10"))
	if err != nil {
		return AbuseConfig{}, fmt.Errorf("invalid ABUSE_WINDOW_MINUTES: %w", err)
	}
	blockMinutes, err := strconv.Atoi(getEnv("ABUSE_BLOCK_DURATION_MINUTES", "30"))
	if err != nil {
		return AbuseConfig{}, fmt.Errorf("invalid ABUSE_BLOCK_DURATION_MINUTES: %w", err)
	}

	return AbuseConfig{
		Threshold:     threshold,
		Window:        time.Duration(windowMinutes) * time.Minute,
		BlockDuration: time.Duration(blockMinutes) * time.Minute,
	}, nil
}

func parseCategories(raw string) ([]domain.Category, error) {
	var out []domain.Category
	for _, item := range splitList(raw) {
		category := domain.Category(strings.ToLower(item))
		switch category {
		case domain.CategoryDefault, domain.CategoryAuth, domain.CategoryPayment, domain.CategoryBulk, domain.CategoryHealth:
			out = append(out, category)
		default:
			return nil, fmt.Errorf("unknown category in ADMISSION_FAIL_CLOSED_CATEGORIES: %s", item)
		}
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
