package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
	"github.com/tinytelemetry/swiper/internal/remote"
	"github.com/tinytelemetry/swiper/internal/session"
	"github.com/tinytelemetry/swiper/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var serviceAddr string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/swiper/config.yml)")
	flag.StringVar(&serviceAddr, "addr", "", "override address of the swiper service")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Swiper CLI - Swipe Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if serviceAddr != "" {
		cfg.ServiceAddr = serviceAddr
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// offlineSource fails every fetch so the session starts on the sample posts.
type offlineSource struct{}

var errSampleOnly = errors.New("sample mode: service disabled by configuration")

func (offlineSource) FetchPage(context.Context, string) (model.Page, error) {
	return model.Page{}, errSampleOnly
}

func (offlineSource) DeleteItem(context.Context, string) error {
	return errSampleOnly
}

func runTUI(cfg cliConfig) error {
	if closeLog, err := openLogFile(); err == nil {
		defer closeLog()
	}

	limiter := ratelimit.New()

	var source model.ItemSource = offlineSource{}
	var profiles model.ProfileSource
	var lister tui.DeletionLister
	if !cfg.SampleOnly {
		client := remote.New(cfg.ServiceAddr, limiter)
		source, profiles, lister = client, client, client
	}

	ctrl := session.NewController(context.Background(), source, session.Config{
		LowWaterMark: cfg.LowWaterMark,
		Limiter:      limiter,
	})
	defer ctrl.Close()

	swipe := tui.NewSwipeModel(ctrl, profiles, tui.Options{
		Threshold:    cfg.SwipeThreshold,
		ExitDuration: cfg.ExitDuration,
		CellWidth:    cfg.CellWidth,
	})
	app := tui.NewApp(tui.NewSwipePage(swipe), tui.NewHistoryPage(lister))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	c := ctrl.Counters()
	fmt.Printf("Reviewed %d posts: %d deleted, %d kept.\n", c.Total(), c.Deleted, c.Kept)
	return nil
}

// openLogFile sends the standard logger to a file so log lines do not
// corrupt the alt screen.
func openLogFile() (func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(home, ".local", "state", "swiper")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(filepath.Join(logDir, "swiper-tui.log"), "swiper-tui")
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}
