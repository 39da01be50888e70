package main

import (
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 3000
	defaultPageSize       = model.DefaultPageSize
	defaultQueryTimeout   = 30 * time.Second
	defaultAuditEnabled   = true
	defaultAuditRetention = model.DefaultAuditRetentionDays // 0 = disabled
	defaultBackupInterval = 24 * time.Hour
	defaultBackupKeepLast = 14
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIKey         string        `mapstructure:"api-key"`
	APISecret      string        `mapstructure:"api-secret"`
	AccessToken    string        `mapstructure:"access-token"`
	AccessSecret   string        `mapstructure:"access-secret"`
	ProviderURL    string        `mapstructure:"provider-url"`
	PageSize       int           `mapstructure:"page-size"`
	APIPort        int           `mapstructure:"api-port"`
	APIAddr        string        `mapstructure:"api-addr"`
	AuditEnabled   bool          `mapstructure:"audit-enabled"`
	DBPath         string        `mapstructure:"db-path"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	AuditRetention int           `mapstructure:"audit-retention"`

	BackupEnabled        bool          `mapstructure:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
