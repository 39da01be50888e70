package backup

import (
	"context"
	"time"
)

// Config controls periodic snapshots of the audit database.
type Config struct {
	Enabled   bool
	Interval  time.Duration
	LocalDir  string
	KeepLast  int
	BucketURL string

	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3SessionToken string
	S3UseSSL       bool
}

// Snapshotter copies a consistent database file to a path.
type Snapshotter interface {
	DBPath() string
	SnapshotTo(dstPath string) error
}

// Uploader ships one snapshot off the machine.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) error
}
