package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/joshsymonds/mailreap/internal/checkpoint"
	"github.com/joshsymonds/mailreap/internal/config"
	"github.com/joshsymonds/mailreap/internal/pass"
	"github.com/joshsymonds/mailreap/internal/rate"
	"github.com/joshsymonds/mailreap/internal/runtime"
)

type mainConfig struct {
	configPath     string
	domain         string
	username       string
	password       string
	mailbox        string
	checkpointPath string
	rps            int
	dryRun         bool
	noCheckpoint   bool
	verbose        bool
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailreap failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() mainConfig {
	configPath := flag.StringP("config", "c", "mailreap.yml", "rule configuration file")
	domain := flag.StringP("imap-domain", "d", "", "IMAP server host (env IMAP_DOMAIN)")
	username := flag.StringP("imap-username", "u", "", "IMAP username (env IMAP_USERNAME)")
	password := flag.StringP("imap-password", "p", "", "IMAP password (env IMAP_PASSWORD)")
	mailbox := flag.String("mailbox", "INBOX", "mailbox the filter pass operates on")
	checkpointPath := flag.String("checkpoint", "", "checkpoint file (defaults under the user config dir)")
	rps := flag.Int("rps", 4, "max protocol commands per second, 0 disables pacing")
	dryRun := flag.Bool("dry-run", false, "log intended mutations without issuing them")
	noCheckpoint := flag.Bool("no-checkpoint", false, "process the full mailbox, ignore the checkpoint")
	verbose := flag.BoolP("verbose", "v", false, "enable per-message match tracing")
	flag.Parse()

	return mainConfig{
		configPath:     *configPath,
		domain:         *domain,
		username:       *username,
		password:       *password,
		mailbox:        *mailbox,
		checkpointPath: *checkpointPath,
		rps:            *rps,
		dryRun:         *dryRun,
		noCheckpoint:   *noCheckpoint,
		verbose:        *verbose,
	}
}

func run(cfg mainConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	logger := runtime.DefaultLogger()
	if cfg.verbose {
		logger = runtime.VerboseLogger()
	}

	rules, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	domain := firstNonEmpty(cfg.domain, rules.Domain, os.Getenv("IMAP_DOMAIN"))
	username := firstNonEmpty(cfg.username, rules.Username, os.Getenv("IMAP_USERNAME"))
	password := firstNonEmpty(cfg.password, rules.Password, os.Getenv("IMAP_PASSWORD"))

	client, err := runtime.Connect(ctx, domain, username, password)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if logoutErr := client.Logout(); logoutErr != nil {
			logger.Warn("logout failed", "error", logoutErr)
		}
	}()

	var (
		limiter rate.Limiter
		bucket  *rate.TokenBucket
	)
	if cfg.rps > 0 {
		bucket = rate.NewTokenBucket(cfg.rps)
		limiter = bucket
		defer bucket.Stop()
	}

	svc := pass.NewService(client, limiter, logger)
	svc.Mailbox = cfg.mailbox
	svc.DryRun = cfg.dryRun

	if !cfg.noCheckpoint {
		path := cfg.checkpointPath
		if path == "" {
			if path, err = checkpoint.DefaultPath(); err != nil {
				return fmt.Errorf("resolve checkpoint path: %w", err)
			}
		}
		svc.Checkpoint = &checkpoint.Store{Path: path}
	}

	if runErr := svc.Run(ctx, rules.Filters, rules.States); runErr != nil {
		return fmt.Errorf("run pass: %w", runErr)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
