package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the HTTP server's runtime settings. Values come from
// the environment, with a .env file as a development convenience.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string
	// DatabasePath is the SQLite file for result history. Empty disables
	// persistence.
	DatabasePath string
	// AssumptionsFile optionally overrides the built-in market assumptions.
	AssumptionsFile string
	// RefreshSchedule is the cron expression for assumption refreshes.
	RefreshSchedule string
	// SimulationBudget is the wall-clock limit per comprehensive run.
	SimulationBudget time.Duration
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string
}

// Environment variable names.
const (
	envListenAddr       = "PLANSERVER_ADDR"
	envDatabasePath     = "PLANSERVER_DB_PATH"
	envAssumptionsFile  = "PLANSERVER_ASSUMPTIONS_FILE"
	envRefreshSchedule  = "PLANSERVER_REFRESH_SCHEDULE"
	envSimulationBudget = "PLANSERVER_SIMULATION_BUDGET_SECONDS"
	envLogLevel         = "PLANSERVER_LOG_LEVEL"
)

// LoadServerConfig reads the server configuration from the environment. A
// .env file in the working directory is merged in first when present; real
// environment variables win over file entries.
func LoadServerConfig() (*ServerConfig, error) {
	// Ignore a missing .env; it only exists in development.
	_ = godotenv.Load()

	cfg := &ServerConfig{
		ListenAddr:       getenv(envListenAddr, ":8080"),
		DatabasePath:     getenv(envDatabasePath, "planning.db"),
		AssumptionsFile:  os.Getenv(envAssumptionsFile),
		RefreshSchedule:  getenv(envRefreshSchedule, "0 2 * * *"),
		SimulationBudget: 30 * time.Second,
		LogLevel:         getenv(envLogLevel, "info"),
	}

	if raw := os.Getenv(envSimulationBudget); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid %s value %q: must be a positive integer", envSimulationBudget, raw)
		}
		cfg.SimulationBudget = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
