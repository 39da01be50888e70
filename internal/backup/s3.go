package backup

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"strings"
)

// S3Config holds the bucket and static credentials for snapshot uploads.
type S3Config struct {
	BucketURL    string
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

// S3Uploader copies snapshots to S3 (or a compatible store) with the aws CLI.
type S3Uploader struct {
	bucket string
	prefix string
	cfg    S3Config
}

// NewS3Uploader parses an s3://bucket/prefix URL and checks that the aws
// CLI is available.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	bucket, prefix, err := parseS3BucketURL(cfg.BucketURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3: access key and secret key are required")
	}
	if _, err := exec.LookPath("aws"); err != nil {
		return nil, fmt.Errorf("s3: aws cli not found in PATH")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Uploader{bucket: bucket, prefix: prefix, cfg: cfg}, nil
}

// UploadFile copies localPath to the bucket under the configured prefix.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) error {
	cmd := exec.CommandContext(ctx, "aws", u.args(localPath)...)
	cmd.Env = append(os.Environ(),
		"AWS_ACCESS_KEY_ID="+u.cfg.AccessKey,
		"AWS_SECRET_ACCESS_KEY="+u.cfg.SecretKey,
		"AWS_DEFAULT_REGION="+u.cfg.Region,
	)
	if tok := strings.TrimSpace(u.cfg.SessionToken); tok != "" {
		cmd.Env = append(cmd.Env, "AWS_SESSION_TOKEN="+tok)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("s3: aws s3 cp: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (u *S3Uploader) args(localPath string) []string {
	key := path.Base(localPath)
	if u.prefix != "" {
		key = path.Join(u.prefix, key)
	}
	args := []string{"s3", "cp", localPath, "s3://" + u.bucket + "/" + key, "--region", u.cfg.Region, "--only-show-errors"}
	if ep := endpointURL(u.cfg.Endpoint, u.cfg.UseSSL); ep != "" {
		args = append(args, "--endpoint-url", ep)
	}
	return args
}

func endpointURL(endpoint string, useSSL bool) string {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case endpoint == "":
		return ""
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return endpoint
	case useSSL:
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func parseS3BucketURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("s3: parse bucket-url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3: bucket-url must use s3:// scheme")
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", "", fmt.Errorf("s3: bucket-url missing bucket name")
	}
	return u.Host, strings.Trim(strings.TrimSpace(u.Path), "/"), nil
}
