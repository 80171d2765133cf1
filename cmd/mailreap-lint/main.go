package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/joshsymonds/mailreap/internal/config"
	"github.com/joshsymonds/mailreap/internal/runtime"
)

type lintConfig struct {
	configPath string
	failOn     string
}

func main() {
	cfg := parseLintFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailreap-lint failed", "error", err)
		os.Exit(1)
	}
}

func parseLintFlags() lintConfig {
	configPath := flag.StringP("config", "c", "mailreap.yml", "rule configuration file")
	failOn := flag.String("fail-on", "filter,state,query", "comma separated finding classes that exit non-zero")
	flag.Parse()

	return lintConfig{configPath: *configPath, failOn: *failOn}
}

func run(cfg lintConfig) error {
	rep, err := config.Lint(cfg.configPath)
	if err != nil {
		return fmt.Errorf("lint config: %w", err)
	}

	summary := rep.HumanSummary()
	if _, writeErr := os.Stdout.WriteString(summary); writeErr != nil {
		return fmt.Errorf("write summary: %w", writeErr)
	}

	failTokens := config.ParseFailOn(cfg.failOn)
	if rep.ShouldFail(failTokens) {
		return fmt.Errorf("lint failures matched: %s", cfg.failOn)
	}
	return nil
}
