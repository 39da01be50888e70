package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

// GetVersionInfo returns the current version and commit information.
func GetVersionInfo() (string, string) {
	return version, commit
}

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/swiper/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Swiper - Post Triage Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// credentialEnv maps credential keys to the provider's conventional variable names.
var credentialEnv = map[string]string{
	"api-key":       "X_API_KEY",
	"api-secret":    "X_KEY_SECRET",
	"access-token":  "X_AUTH_ACCESS",
	"access-secret": "X_AUTH_ACCESS_TOKEN_SECRET",
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "swiper", "swiper.duckdb")

	v := viper.New()
	v.SetEnvPrefix("SWIPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for key, env := range credentialEnv {
		envPrefixed := "SWIPER_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, envPrefixed, env); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("provider-url", "")
	v.SetDefault("page-size", defaultPageSize)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("audit-enabled", defaultAuditEnabled)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("audit-retention", defaultAuditRetention)
	v.SetDefault("backup-enabled", false)
	v.SetDefault("backup-interval", defaultBackupInterval)
	v.SetDefault("backup-dir", filepath.Join(home, ".local", "share", "swiper", "backups"))
	v.SetDefault("backup-keep", defaultBackupKeepLast)
	v.SetDefault("backup-s3-use-ssl", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "swiper", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.PageSize <= 0 {
		return cfg, fmt.Errorf("invalid page-size: %d", cfg.PageSize)
	}

	// Expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.BackupLocalDir = expandHome(cfg.BackupLocalDir, home)
	if cfg.BackupEnabled && !cfg.AuditEnabled {
		return cfg, fmt.Errorf("backup-enabled requires audit-enabled")
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
