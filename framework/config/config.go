package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Container ContainerConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

type ContainerConfig struct {
	MaxDepth int    // longest resolution chain before giving up
	Manifest string // optional YAML binding manifest
	Inspect  bool   // mount the /container inspection routes
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	debug := envBool("APP_DEBUG", true)
	appEnv := getenv("APP_ENV", "local")

	format := "console"
	if appEnv == "production" {
		format = "json"
	}

	return &Config{
		App: AppConfig{
			Name:  getenv("APP_NAME", "GoContainer"),
			Env:   appEnv,
			Debug: debug,
			URL:   getenv("APP_URL", "http://localhost"),
			Port:  getenv("APP_PORT", "8000"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", format),
		},
		Container: ContainerConfig{
			MaxDepth: GetInt("CONTAINER_MAX_DEPTH", 64),
			Manifest: getenv("CONTAINER_MANIFEST", ""),
			Inspect:  envBool("CONTAINER_INSPECT", debug),
		},
		Metrics: MetricsConfig{
			Enabled:   envBool("METRICS_ENABLED", false),
			Namespace: getenv("METRICS_NAMESPACE", "container"),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return getenv(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
