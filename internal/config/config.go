package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by AEGIS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("AEGIS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// APIKey is the static bearer token required on authenticated routes.
// Empty disables auth (local development).
func APIKey() string {
	return os.Getenv("API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "lmstudio" if not set.
// Valid values: lmstudio, openai, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "lmstudio"
	}
	return p
}

// LMStudioURL is the chat completions endpoint of the local model server.
func LMStudioURL() string {
	return os.Getenv("LM_STUDIO_URL")
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "openai":
		return OpenAIAPIKey()
	default:
		return ""
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "none": fact recall falls back to recency ordering.
// Valid values: openai, mock, none
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "openai":
		return OpenAIAPIKey()
	default:
		return ""
	}
}

// OwnerName is the subject used when normalizing extracted claims.
func OwnerName() string {
	name := os.Getenv("OWNER_NAME")
	if name == "" {
		return "공장장"
	}
	return name
}

// SafeCommands is the command whitelist, comma-separated and
// case-normalized to uppercase.
func SafeCommands() []string {
	raw := os.Getenv("SAFE_COMMANDS")
	if raw == "" {
		return []string{"YT_SEARCH", "MAP", "WEATHER", "TIME"}
	}
	var cmds []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

// AuditRetention is how many audit entries the retention pass keeps.
// Defaults to 1000 if not set.
func AuditRetention() int {
	n, err := strconv.Atoi(os.Getenv("AUDIT_RETENTION"))
	if err != nil || n <= 0 {
		return 1000
	}
	return n
}

// TruthsFile points at the optional JSON file of administratively added
// truth extensions. Empty means built-in truths only.
func TruthsFile() string {
	return os.Getenv("TRUTHS_FILE")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
