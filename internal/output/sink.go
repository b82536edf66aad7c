// Package output stores result tables in a local directory or an S3 bucket.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fluxpipe/internal/common/fsutil"
)

// Sink receives finished result files under slash-separated keys.
type Sink interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
}

// ContentTypeTSV is used for every table the pipeline writes.
const ContentTypeTSV = "text/tab-separated-values"

// Config selects a sink. A non-empty S3 bucket wins over Dir.
type Config struct {
	Dir string
	S3  S3Config
}

// Open returns the sink described by cfg.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.S3.Bucket != "" {
		return NewS3Sink(ctx, cfg.S3)
	}
	if cfg.Dir == "" {
		return nil, errors.New("output: results directory or s3 bucket required")
	}
	return NewDirSink(cfg.Dir)
}

// DirSink writes each key as a file below its root.
type DirSink struct {
	root string
}

func NewDirSink(root string) (*DirSink, error) {
	p, err := fsutil.ExpandHome(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &DirSink{root: p}, nil
}

// Root returns the directory files are written to.
func (d *DirSink) Root() string { return d.root }

func (d *DirSink) Put(ctx context.Context, key string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output: invalid key %q", key)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(d.root, clean), b, 0o644)
}
