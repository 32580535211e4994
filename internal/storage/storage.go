package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("archive object not found")

// Archive хранит сырые тела вебхуков байт в байт, как они были подписаны.
type Archive interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds archive configuration
type Config struct {
	Type      string // none, local, s3
	BasePath  string // For local
	Bucket    string // For S3/R2
	Region    string
	Endpoint  string // For R2 or custom S3
	AccessKey string
	SecretKey string
}

func NewArchive(ctx context.Context, cfg Config) (Archive, error) {
	switch cfg.Type {
	case "", "none":
		return NoopArchive{}, nil
	case "local":
		return NewLocalArchive(cfg.BasePath)
	case "s3", "cloudflare_r2":
		return NewS3Archive(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}

// WebhookKey: webhooks/2026/10/14/<event id>.json; без event id - случайный uuid.
func WebhookKey(eventID string, at time.Time) string {
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return path.Join("webhooks", at.UTC().Format("2006/01/02"), eventID+".json")
}

type NoopArchive struct{}

func (NoopArchive) Save(context.Context, string, []byte, string) error { return nil }
func (NoopArchive) Get(context.Context, string) ([]byte, error)       { return nil, ErrNotFound }
func (NoopArchive) Exists(context.Context, string) (bool, error)      { return false, nil }
