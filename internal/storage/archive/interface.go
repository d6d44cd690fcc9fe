// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
)

// Storage is a flat object store. Price datasets are read from it and
// simulation exports are written to it.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all object paths under prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Backend types accepted by Open.
const (
	TypeLocalFS = "localfs"
	TypeS3      = "s3"
)

// Options selects and configures a storage backend.
type Options struct {
	Type string // "localfs" or "s3"
	Path string // base directory for localfs
	S3   S3Config
}

// Open builds the storage backend described by opts.
func Open(opts Options) (Storage, error) {
	switch opts.Type {
	case "", TypeLocalFS:
		return NewLocalFS(opts.Path)
	case TypeS3:
		return NewS3(opts.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", opts.Type)
	}
}
