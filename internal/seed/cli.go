package seed

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/hackreg/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging writes log lines to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "seed_log_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stdout, file), "text"); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`hackreg seed
============

Registers synthetic applicants against a running hackreg service through its
HTTP API, optionally records admin decisions, and checks the admin overview.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -applicants int
        Number of applicants to register (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -admin-key string
        Admin API key; enables decisions and verification (default $HACKREG_ADMIN_KEY)
  -accept-every int
        Accept every Nth applicant (default 3)
  -confirmation string
        Confirmation branch assigned to accepted applicants
  -seed uint
        Seed for generated answers (default 1)
  -log string
        Log file (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/seed -applicants 500 -admin-key secret -confirmation Attendee
`)
}
