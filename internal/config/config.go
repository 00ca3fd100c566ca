package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/credence-ai/credence/internal/scoring"
	"github.com/credence-ai/credence/internal/service"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by CREDENCE_ENV (or .env by default),
// then the .secret sidecar if it exists. All config is flat env vars read
// via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("CREDENCE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
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

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// LogLevel returns the log level (debug, info, warn, error). Defaults to
// "info".
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS returns requests per second limit. Defaults to 100.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting. Defaults to 20.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

func envFloat(key string, out *float64) {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*out = v
	}
}

func envInt(key string, out *int) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		*out = v
	}
}

// ScoringConfig assembles the kernel calibration: the shipped defaults with
// any env overrides applied. This is the single place thresholds change.
func ScoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()

	envFloat("HALF_LIFE_SECONDS", &cfg.HalfLifeSeconds)
	envFloat("BELIEF_ALPHA", &cfg.Alpha)
	envFloat("ETA_POS", &cfg.EtaPos)
	envFloat("ETA_REINFORCE", &cfg.EtaReinforce)
	envFloat("ETA_NEG", &cfg.EtaNeg)
	envFloat("FALLBACK_TRUST_CAP", &cfg.FallbackTrustCap)
	envFloat("MIN_RELATED_SIMILARITY", &cfg.MinRelatedSimilarity)
	envFloat("THETA_CONTRA", &cfg.ThetaContra)
	envFloat("THETA_DROP", &cfg.ThetaDrop)
	envFloat("THETA_MIN", &cfg.ThetaMin)
	envFloat("THETA_FALLBACK", &cfg.ThetaFallback)
	envFloat("THETA_REFLECT", &cfg.ThetaReflect)
	envFloat("PARAPHRASE_OVERLAP", &cfg.ParaphraseOverlap)
	envFloat("SIGNATURE_EPSILON", &cfg.SignatureEpsilon)
	envInt("SETTLING_CONFIRMATIONS", &cfg.SettlingConfirmations)
	envInt("SETTLED_CONFIRMATIONS", &cfg.SettledConfirmations)

	return cfg
}

// DisclosureConfig assembles the clarification policy with env overrides.
func DisclosureConfig() service.DisclosureConfig {
	cfg := service.DefaultDisclosureConfig()

	envFloat("DISCLOSURE_GREEN", &cfg.GreenThreshold)
	envFloat("DISCLOSURE_RED", &cfg.RedThreshold)
	envInt("DISCLOSURE_MAX_PER_SESSION", &cfg.MaxPerSession)
	envInt("DISCLOSURE_MAX_PER_SLOT", &cfg.MaxPerSlot)
	if secs, err := strconv.Atoi(os.Getenv("DISCLOSURE_COOLDOWN_SECONDS")); err == nil && secs > 0 {
		cfg.Cooldown = time.Duration(secs) * time.Second
	}

	return cfg
}
