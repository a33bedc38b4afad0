package archive

import (
	"context"
	"fmt"
	"strings"
)

// Storage is a flat key/value blob store for archived reports.
type Storage interface {
	// Write stores data at the given path, replacing any previous object.
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the data at path. A missing object yields
	// core.ErrReportNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a Storage backend.
type Config struct {
	Backend string // "local" or "s3"
	Path    string // local base directory
	S3      S3Config
}

// New opens the configured backend.
func New(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
