package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/swiss/internal/simulate"
	"github.com/okian/swiss/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 16
	defaultRounds      = 4
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players    = flag.Int("players", defaultPlayers, "Number of players to register (even)")
		rounds     = flag.Int("rounds", defaultRounds, "Number of rounds to play")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		token      = flag.String("token", os.Getenv("SWISS_ADMIN_TOKEN"), "Admin bearer token for the reset routes")
		outputFile = flag.String("output", "", "Results file (default: swiss_sim_TIMESTAMP.json)")
		seed       = flag.Int64("seed", 0, "Seed for picking winners (default: time based)")
		jsonLogs   = flag.Bool("json", false, "Log as JSON")
		verbose    = flag.Bool("verbose", false, "Log every reported match")
	)
	flag.Parse()

	if err := logger.Init(logger.WithJSON(*jsonLogs)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:    *baseURL,
		Players:    *players,
		Rounds:     *rounds,
		Workers:    *workers,
		Timeout:    *timeout,
		AdminToken: *token,
		OutputFile: *outputFile,
		Seed:       *seed,
		Verbose:    *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
