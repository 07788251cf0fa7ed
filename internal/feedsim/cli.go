package feedsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/vetterlabs/vetter/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the feed simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Vetter Feed Simulation Tool
===========================

Exercises a running vetter instance end to end: submits meme projects,
casts ballots from a simulated voter pool, delivers feed snapshots, and
verifies the resulting approvals and ROI records.

Usage:
  go run cmd/feed-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -projects int
        Number of projects to submit (default 20)
  -voters int
        Size of the simulated voter pool (default 50)
  -snapshots int
        Feed snapshots delivered per project (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for simulation output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/feed-sim/main.go

  # Heavier run against a remote instance
  go run cmd/feed-sim/main.go -projects 200 -voters 500 -url http://vetter:8080
`)
}
