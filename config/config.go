package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfiguration marks a missing or unusable startup setting. The process
// must not start when Load returns it.
var ErrConfiguration = errors.New("configuration error")

// Config is built once at startup and passed to every constructor that needs it.
type Config struct {
	MongoURI       string
	MongoDB        string
	JWTSecret      string
	TokenTTL       time.Duration
	DBTimeout      time.Duration
	AdminUser      string
	AdminPass      string
	Port           string
	GinMode        string
	CORSOrigins    []string
	TrustedProxies []string
	LoginRateLimit int

	LogLevel      string
	LogFilePath   string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days

	BucketName   string
	AWSRegion    string
	UploadPrefix string
	UploadMaxMB  int
}

// Load reads .env (if present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, f, err)
		}
	}

	cfg := &Config{
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDB:        getEnv("MONGO_DB", "jojarts"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 7*24)) * time.Hour,
		DBTimeout:      time.Duration(getEnvAsInt("DB_TIMEOUT_SECONDS", 10)) * time.Second,
		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPass:      getEnv("ADMIN_PASS", "123"),
		Port:           getEnv("PORT", "5174"),
		GinMode:        getEnv("GIN_MODE", "release"),
		CORSOrigins:    splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 20),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFilePath:    getEnv("LOG_FILE_PATH", ""),
		LogMaxSize:     getEnvAsInt("LOG_MAX_SIZE", 50),
		LogMaxBackups:  getEnvAsInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:      getEnvAsInt("LOG_MAX_AGE", 30),
		BucketName:     getEnv("BUCKET_NAME", ""),
		AWSRegion:      getEnv("AWS_REGION", "eu-central-1"),
		UploadPrefix:   strings.Trim(getEnv("UPLOAD_PREFIX", "gallery"), "/"),
		UploadMaxMB:    getEnvAsInt("UPLOAD_MAX_MB", 10),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("%w: MONGO_URI is required", ErrConfiguration)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrConfiguration)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: TOKEN_TTL_HOURS must be positive", ErrConfiguration)
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("%w: GIN_MODE must be debug, release or test", ErrConfiguration)
	}
	for _, p := range cfg.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return nil, fmt.Errorf("%w: TRUSTED_PROXIES entry %q is not an IP or CIDR", ErrConfiguration, p)
			}
		}
	}
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		return nil, fmt.Errorf("%w: ADMIN_USER and ADMIN_PASS must not be empty", ErrConfiguration)
	}

	return cfg, nil
}

// UploadsEnabled reports whether the S3 upload proxy is configured.
func (c *Config) UploadsEnabled() bool {
	return c.BucketName != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
