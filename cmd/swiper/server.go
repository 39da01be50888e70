package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/swiper/internal/backup"
	"github.com/tinytelemetry/swiper/internal/duckdb"
	"github.com/tinytelemetry/swiper/internal/httpserver"
	"github.com/tinytelemetry/swiper/internal/provider"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

// runServer starts the provider proxy with the HTTP API.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	limiter := ratelimit.New()

	opts := []provider.Option{provider.WithPageSize(cfg.PageSize)}
	if cfg.ProviderURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.ProviderURL))
	}
	client, err := provider.New(provider.Credentials{
		APIKey:       cfg.APIKey,
		APISecret:    cfg.APISecret,
		AccessToken:  cfg.AccessToken,
		AccessSecret: cfg.AccessSecret,
	}, limiter, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize provider client: %w", err)
	}

	// The audit store is optional; nil disables /deletions history.
	var audit httpserver.AuditStore
	if cfg.AuditEnabled {
		store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to initialize DuckDB: %w", err)
		}
		defer store.Close()
		audit = store

		retentionCleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
			RetentionDays: cfg.AuditRetention,
		})
		if retentionCleaner != nil {
			defer retentionCleaner.Stop()
		}

		backupManager, err := backup.NewManager(store, backup.Config{
			Enabled:        cfg.BackupEnabled,
			Interval:       cfg.BackupInterval,
			LocalDir:       cfg.BackupLocalDir,
			KeepLast:       cfg.BackupKeepLast,
			BucketURL:      cfg.BackupBucketURL,
			S3Endpoint:     cfg.BackupS3Endpoint,
			S3Region:       cfg.BackupS3Region,
			S3AccessKey:    cfg.BackupS3AccessKey,
			S3SecretKey:    cfg.BackupS3SecretKey,
			S3SessionToken: cfg.BackupS3SessionToken,
			S3UseSSL:       cfg.BackupS3UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize backups: %w", err)
		}
		if backupManager != nil {
			defer backupManager.Stop()
		}
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, client, limiter, audit)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg)
	log.Printf("server: listening on %s", cfg.APIAddr)

	g, gctx := errgroup.WithContext(ctx)

	// Warm the user id cache so the first page request does not pay for it.
	g.Go(func() error {
		p, err := client.Profile(gctx)
		if err != nil {
			log.Printf("server: profile lookup failed: %v", err)
			return nil
		}
		log.Printf("server: authenticated as @%s", p.Username)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	signal.Stop(sigCh)
	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "swiper")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "swiper.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦ ╦╦╔═╗╔═╗╦═╗
    ╚═╗║║║║╠═╝║╣ ╠╦╝
    ╚═╝╚╩╝╩╩  ╚═╝╩╚═`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	providerURL := cfg.ProviderURL
	if providerURL == "" {
		providerURL = "https://api.x.com"
	}
	lines = append(lines, fmt.Sprintf("    %s  Provider       %s", check, dim.Render(providerURL)))
	lines = append(lines, fmt.Sprintf("    %s  Page Size      %s", check, dim.Render(fmt.Sprint(cfg.PageSize))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Audit"))
	lines = append(lines, "")
	if cfg.AuditEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
		if cfg.AuditRetention > 0 {
			lines = append(lines, fmt.Sprintf("    %s  Retention      %s", check, dim.Render(fmt.Sprintf("%d days", cfg.AuditRetention))))
		} else {
			lines = append(lines, fmt.Sprintf("    %s  Retention      %s", dot, dim.Render("disabled")))
		}
		if cfg.BackupEnabled {
			lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", check, dim.Render(shortenPath(cfg.BackupLocalDir))))
		} else {
			lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", dot, dim.Render("disabled")))
		}
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
