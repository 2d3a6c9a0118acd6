package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server    ServerConfig
	Admin     AdminConfig
	Order     OrderConfig
	Catalog   CatalogConfig
	Bridge    BridgeConfig
	KeepAlive KeepAliveConfig
	AuthClean AuthCleanConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr       string
	Production bool
}

// AdminConfig gates the administrative surface.
type AdminConfig struct {
	Password     string
	SendPassword string
}

// OrderConfig feeds the order-link issuer.
type OrderConfig struct {
	JWTSecret   string
	FrontendURL string
}

// CatalogConfig points at the products database.
type CatalogConfig struct {
	DatabaseURL string
}

// BridgeConfig describes the connection to the WhatsApp bridge daemon.
type BridgeConfig struct {
	URL     string
	AuthDir string
}

// KeepAliveConfig drives the self-pinger. Disabled unless running in
// production with a target URL.
type KeepAliveConfig struct {
	URL      string
	Interval time.Duration
}

// AuthCleanConfig bounds the auth-directory housekeeping.
type AuthCleanConfig struct {
	Interval     time.Duration
	MaxPreKeys   int
	MaxDirSizeMB float64
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	keepAliveMinutes, err := intEnv("KEEP_ALIVE_INTERVAL", 5)
	if err != nil {
		return nil, err
	}

	cleanupHours, err := intEnv("AUTH_CLEANUP_INTERVAL_HOURS", 72)
	if err != nil {
		return nil, err
	}
	maxPreKeys, err := intEnv("MAX_PRE_KEYS", 100)
	if err != nil {
		return nil, err
	}
	maxDirSizeMB, err := intEnv("MAX_AUTH_DIR_SIZE_MB", 50)
	if err != nil {
		return nil, err
	}

	authDir := strings.TrimSpace(os.Getenv("AUTH_DIR"))
	if authDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		authDir = filepath.Join(wd, "auth_info")
	}

	keepAliveURL := strings.TrimSpace(os.Getenv("KEEP_ALIVE_URL"))
	if !server.Production {
		keepAliveURL = ""
	}

	return &Config{
		Server: server,
		Admin: AdminConfig{
			Password:     strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
			SendPassword: strings.TrimSpace(os.Getenv("SEND_MESSAGE_PASSWORD")),
		},
		Order: OrderConfig{
			JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
			FrontendURL: strings.TrimSpace(os.Getenv("FRONTEND_URL")),
		},
		Catalog: CatalogConfig{
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		Bridge: BridgeConfig{
			URL:     getEnvOrDefault("BRIDGE_URL", "ws://127.0.0.1:3001/ws"),
			AuthDir: authDir,
		},
		KeepAlive: KeepAliveConfig{
			URL:      keepAliveURL,
			Interval: time.Duration(keepAliveMinutes) * time.Minute,
		},
		AuthClean: AuthCleanConfig{
			Interval:     time.Duration(cleanupHours) * time.Hour,
			MaxPreKeys:   maxPreKeys,
			MaxDirSizeMB: float64(maxDirSizeMB),
		},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	cfg := ServerConfig{
		Production: strings.TrimSpace(os.Getenv("APP_ENV")) == "production",
	}

	if strings.Contains(port, ":") {
		// Allow ":3000" or "127.0.0.1:3000" directly.
		cfg.Addr = port
		return cfg, nil
	}
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
