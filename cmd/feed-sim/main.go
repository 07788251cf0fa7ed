package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/vetterlabs/vetter/internal/feedsim"
)

// Default configuration constants.
const (
	defaultNumProjects = 20
	defaultNumVoters   = 50
	defaultSnapshots   = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSimTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		projects  = flag.Int("projects", defaultNumProjects, "Number of projects to submit")
		voters    = flag.Int("voters", defaultNumVoters, "Size of the simulated voter pool")
		snapshots = flag.Int("snapshots", defaultSnapshots, "Feed snapshots delivered per project")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for simulation output (default: sim_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feedsim.ShowHelp()
		return
	}

	if err := feedsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSimTimeout)
	defer cancel()

	config := &feedsim.Config{
		BaseURL:             *baseURL,
		NumProjects:         *projects,
		NumVoters:           *voters,
		SnapshotsPerProject: *snapshots,
		Workers:             *workers,
		Timeout:             *timeout,
		LogFile:             *logFile,
		Verbose:             *verbose,
	}

	if err := feedsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
