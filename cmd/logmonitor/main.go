package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/orgoj/logbridge"
	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/server"
	"github.com/orgoj/logbridge/internal/version"
)

// urlList collects a repeatable -url flag.
type urlList []string

func (u *urlList) String() string { return strings.Join(*u, ",") }

func (u *urlList) Set(value string) error {
	*u = append(*u, value)
	return nil
}

func main() {
	// --- Configuration --- //
	configPath := flag.String("config", "", "Path to the monitor configuration file (YAML)")
	var urls urlList
	flag.Var(&urls, "url", "Receive records on this url, repeatable (overrides receiver.urls)")
	bind := flag.Bool("bind", true, "Bind the receiver urls instead of connecting to them")
	testConfigShort := flag.Bool("t", false, "Test configuration and exit (nginx style)")
	testConfigLong := flag.Bool("test", false, "Test configuration and exit (nginx style)")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	var logFlags logbridge.Flags
	logFlags.Register(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.VersionInfo("logmonitor"))
		os.Exit(0)
	}

	cfg := config.DefaultMonitorConfig()
	if *configPath != "" {
		loaded, err := config.LoadMonitorConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[CRITICAL] Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if len(urls) > 0 {
		cfg.Receiver.URLs = urls
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "bind" {
			cfg.Receiver.Bind = *bind
		}
	})
	if err := config.ValidateMonitorConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[CRITICAL] Configuration validation failed:\n%v\n", err)
		os.Exit(1)
	}
	logging, err := logFlags.Apply(flag.CommandLine, cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CRITICAL] Configuration validation failed:\n%v\n", err)
		os.Exit(1)
	}
	cfg.Logging = logging

	if *testConfigShort || *testConfigLong {
		fmt.Println("Configuration is valid.")
		os.Exit(0)
	}

	// --- Logging --- //

	// Termination signals are handled below so that publishers can be waited for.
	cfg.Logging.SetSigHandler = false
	if err := logbridge.Configure(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "[CRITICAL] %v\n", err)
		os.Exit(1)
	}
	if err := logbridge.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "[CRITICAL] %v\n", err)
		os.Exit(1)
	}
	log := logbridge.GetLogger("logmonitor")
	_ = log.Notice("%s", version.VersionInfo("logmonitor"))

	// --- Receiver --- //

	recv := logbridge.NewReceiver(logbridge.Default(), cfg.Receiver.URLs, cfg.Receiver.Bind)
	if err := recv.Start(); err != nil {
		_ = log.Critical("Failed to start the receiver: %v", err)
		logbridge.Exit(1)
	}
	if cfg.Receiver.Bind {
		for _, url := range recv.BoundURLs() {
			_ = log.Notice("Receiving on %s", url)
		}
	} else {
		_ = log.Notice("Receiving from %s", strings.Join(cfg.Receiver.URLs, ", "))
	}

	// --- Admin API --- //

	var srv *server.Server
	serveErr := make(chan error, 1)
	if cfg.Admin.Enabled {
		var err error
		srv, err = server.NewServer(server.Dependencies{
			Config:   cfg,
			Engine:   logbridge.Default(),
			Receiver: recv,
			Log:      logbridge.GetLogger("logmonitor.admin"),
		})
		if err != nil {
			_ = log.Critical("Failed to create the admin server: %v", err)
			logbridge.Exit(1)
		}
		go func() {
			serveErr <- srv.Start()
		}()
	}

	// --- Graceful Shutdown --- //

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	code := 0
	select {
	case sig := <-quit:
		_ = log.Notice("Received %s, shutting down", sig)
	case err := <-serveErr:
		_ = log.Critical("Admin server error: %v", err)
		code = 1
	}

	go func() {
		<-quit
		_ = log.Warning("Second signal, exiting without waiting for publishers")
		logbridge.Exit(1)
	}()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			_ = log.Error("Admin server forced to shut down: %v", err)
		}
		cancel()
	}

	if cfg.Receiver.WaitRemoteExit {
		_ = log.Info("Waiting for publishers to exit")
	}
	if err := recv.Stop(cfg.Receiver.WaitRemoteExit); err != nil {
		_ = log.Error("Stopping the receiver: %v", err)
		code = 1
	}
	stats := recv.Stats()
	_ = log.Notice("Received %d record(s) from %d publisher(s), %d dropped, %d lost publisher(s)",
		stats.Received, stats.Publishers, stats.Dropped, stats.Lost)

	logbridge.Exit(code)
}
