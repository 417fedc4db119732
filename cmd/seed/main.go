package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/hackreg/internal/seed"
)

// Default configuration constants.
const (
	defaultApplicants  = 200
	defaultAcceptEvery = 3
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		applicants   = flag.Int("applicants", defaultApplicants, "Number of applicants to register")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		adminKey     = flag.String("admin-key", os.Getenv("HACKREG_ADMIN_KEY"), "Admin API key")
		acceptEvery  = flag.Int("accept-every", defaultAcceptEvery, "Accept every Nth applicant")
		confirmation = flag.String("confirmation", "", "Confirmation branch assigned to accepted applicants")
		seedValue    = flag.Uint64("seed", 1, "Seed for generated answers")
		logFile      = flag.String("log", "", "Log file (default: seed_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	closer, err := seed.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:            *baseURL,
		Applicants:         *applicants,
		Workers:            *workers,
		Timeout:            *timeout,
		AdminKey:           *adminKey,
		AcceptEvery:        *acceptEvery,
		ConfirmationBranch: *confirmation,
		Seed:               *seedValue,
		Verbose:            *verbose,
	}
	if _, err := seed.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // deferred close is best effort
	}
}
