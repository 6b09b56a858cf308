package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SportsnetConfig holds the federation match-results proxy settings. An empty
// APIURL disables the proxy.
type SportsnetConfig struct {
	APIURL        string
	APIKey        string
	TeamID        string
	CompetitionID string
	Season        string
	CacheSeconds  int
}

// R2Config holds the object-store credentials for blog cover uploads. Leaving
// AccountID empty disables uploads.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	PublicURL    string

	FrontendOrigins []string
	CookieName      string
	CookieSecure    bool
	CSRFProtection  bool

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	Sportsnet SportsnetConfig
	R2        R2Config
}

// Load reads configuration from environment variables, optionally seeded from
// a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	cacheSeconds, err := intEnv("SPORTSNET_CACHE_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if cacheSeconds < 1 {
		return nil, fmt.Errorf("SPORTSNET_CACHE_SECONDS must be at least 1, got %d", cacheSeconds)
	}

	cookieName := os.Getenv("SESSION_COOKIE_NAME")
	if cookieName == "" {
		cookieName = "osk_session"
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		PublicURL:    os.Getenv("PUBLIC_URL"),

		FrontendOrigins: splitEnv("FRONTEND_ORIGINS"),
		CookieName:      cookieName,
		CookieSecure:    boolEnv("COOKIE_SECURE", false),
		CSRFProtection:  boolEnv("CSRF_PROTECTION", true),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		Sportsnet: SportsnetConfig{
			APIURL:        os.Getenv("SPORTSNET_API_URL"),
			APIKey:        os.Getenv("SPORTSNET_API_KEY"),
			TeamID:        os.Getenv("SPORTSNET_TEAM_ID"),
			CompetitionID: os.Getenv("SPORTSNET_COMPETITION_ID"),
			Season:        os.Getenv("SPORTSNET_SEASON"),
			CacheSeconds:  cacheSeconds,
		},
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	if len(cfg.FrontendOrigins) == 0 {
		cfg.FrontendOrigins = []string{"http://localhost:5173"}
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func boolEnv(name string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitEnv(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
