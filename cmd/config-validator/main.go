package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/orgoj/logbridge/internal/config"
)

func main() {
	monitor := flag.Bool("monitor", false, "Validate a log monitor configuration instead of a logging configuration")
	flag.Parse()

	if len(flag.Args()) < 1 {
		fmt.Println("Error: Config file path is required")
		fmt.Println("Usage: config-validator [-monitor] <config-file>")
		os.Exit(1)
	}
	configPath := flag.Args()[0]

	var cfg *config.Configuration
	if *monitor {
		mcfg, err := config.LoadMonitorConfig(configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("receiver: %v (bind: %t, wait_remote_exit: %t)\n", mcfg.Receiver.URLs, mcfg.Receiver.Bind, mcfg.Receiver.WaitRemoteExit)
		if mcfg.Admin.Enabled {
			fmt.Printf("admin: %s (allowed: %v, rate limit: %d/min)\n", mcfg.Admin.Listen, mcfg.Admin.AllowedIPs, mcfg.Admin.RateLimit)
		}
		cfg = mcfg.Logging
	} else {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := printHandlers(cfg); err != nil {
		fmt.Printf("Validation error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration is valid!")
}

// printHandlers prints every handler with its resolved filters, "auto"
// filters expanded.
func printHandlers(cfg *config.Configuration) error {
	fmt.Printf("program: %s\n", cfg.ProgramName())
	if len(cfg.Handlers) == 0 {
		fmt.Println("warning: no handler defined, every record will be discarded")
	}
	for _, name := range cfg.Handlers {
		filters, err := cfg.SectionFilters(name)
		if err != nil {
			return fmt.Errorf("handler '%s': %w", name, err)
		}
		fmt.Printf("handler %s (%s): %s\n", name, config.NormalizeModule(cfg.Sections[name].Module), filters)
	}
	return nil
}
