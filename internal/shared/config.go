// Package shared holds process configuration read from the environment.
package shared

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config enumerates every tunable of the training job and the inference
// service. Values come from the environment with sensible defaults; a .env
// file in the working directory is honored when present.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// ModelPath is the local artifact location; ModelURL, when set, makes
	// the api binary fetch the artifact remotely once at startup instead.
	ModelPath string
	ModelURL  string

	// DataDir holds the per-period CSV source files for training.
	DataDir string

	TestFraction float64
	SearchTrials int
	CVFolds      int
	Seed         int64
}

// Load reads the configuration from the environment.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		HTTPAddr:     env("HTTP_ADDR", ":8000"),
		MetricsAddr:  env("METRICS_ADDR", ""),
		ModelPath:    env("MODEL_PATH", "trained_model/model_new_hyper.json"),
		ModelURL:     env("MODEL_URL", ""),
		DataDir:      env("DATA_DIR", "data"),
		TestFraction: envFloat("TEST_FRACTION", 0.2),
		SearchTrials: envInt("SEARCH_TRIALS", 50),
		CVFolds:      envInt("CV_FOLDS", 5),
		Seed:         int64(envInt("RANDOM_SEED", 42)),
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		log.Warn().Float64("value", c.TestFraction).Msg("TEST_FRACTION out of range, using 0.2")
		c.TestFraction = 0.2
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
