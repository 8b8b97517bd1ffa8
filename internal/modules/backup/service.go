// Package backup uploads export envelopes to S3 and restores from them.
// The whole module is inert unless a bucket is configured.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/config"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
)

// Exporter produces the JSON envelope that gets backed up.
type Exporter interface {
	Export() (*portfolio.ExportEnvelope, error)
}

// Service pushes export envelopes to an S3 bucket.
type Service struct {
	cfg      config.BackupConfig
	exporter Exporter
	log      zerolog.Logger

	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewService creates a backup service. When no bucket is configured the
// service is returned in a disabled state and all operations no-op.
func NewService(ctx context.Context, cfg config.BackupConfig, exporter Exporter, log zerolog.Logger) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		exporter: exporter,
		log:      log.With().Str("service", "backup").Logger(),
	}

	if !cfg.Enabled() {
		s.log.Info().Msg("Backup disabled, no bucket configured")
		return s, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	s.uploader = manager.NewUploader(client)
	s.downloader = manager.NewDownloader(client)

	return s, nil
}

// Enabled reports whether backups will actually be written.
func (s *Service) Enabled() bool {
	return s.uploader != nil
}

// Run uploads a fresh export envelope. The object key carries the date so a
// rolling history of daily backups accumulates in the bucket.
func (s *Service) Run(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	envelope, err := s.exporter.Export()
	if err != nil {
		return fmt.Errorf("failed to build export for backup: %w", err)
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	key := s.objectKey(time.Now())
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().Str("bucket", s.cfg.Bucket).Str("key", key).Int("bytes", len(data)).Msg("Backup uploaded")
	return nil
}

// Fetch downloads a previously uploaded envelope by object key and parses it.
func (s *Service) Fetch(ctx context.Context, key string) (*portfolio.ExportEnvelope, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("backup is not configured")
	}

	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download backup %s: %w", key, err)
	}

	return portfolio.ParseEnvelope(buf.Bytes())
}

func (s *Service) objectKey(t time.Time) string {
	return fmt.Sprintf("%s/portfoy-%s.json", s.cfg.KeyPrefix, t.Format("2006-01-02"))
}
