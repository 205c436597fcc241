package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and handed to every component; nothing
// reads ambient globals after this point.
type Config struct {
	// Remote API
	APIBase         string
	AuthToken       string
	UploadFileField string
	ValidateTimeout time.Duration
	UploadTimeout   time.Duration
	MaxRetries      int

	// Identity synthesis
	EmailPrefix string
	EmailDomain string

	// Pipeline
	ResumeRoot         string
	MappingPath        string
	OutDir             string
	SkipOnValidateFail bool
	Workers            int
}

// Load reads configuration from the environment, preferring a .env file
// when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		APIBase:         os.Getenv("API_BASE"),
		AuthToken:       os.Getenv("API_AUTH_TOKEN"),
		UploadFileField: envOr("UPLOAD_FILE_FIELD", "file"),
		ValidateTimeout: envSeconds("VALIDATE_TIMEOUT_SECONDS", 60),
		UploadTimeout:   envSeconds("UPLOAD_TIMEOUT_SECONDS", 120),
		MaxRetries:      envInt("MAX_RETRY_ATTEMPTS", 4),

		EmailPrefix: envOr("EMAIL_PREFIX", "fake-for-warden"),
		EmailDomain: envOr("EMAIL_DOMAIN", "fake-domain.com"),

		ResumeRoot:         envOr("RESUME_ROOT", "job_wise_resumes"),
		MappingPath:        envOr("JOB_MAPPING_CSV", "jobs.csv"),
		OutDir:             envOr("OUT_DIR", "logs"),
		SkipOnValidateFail: envBool("SKIP_ON_VALIDATE_FAIL", true),
		Workers:            envInt("WORKERS", 1),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a boolean, using %v", key, v, def)
		return def
	}
	return b
}
