package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Pinger models the minimal result store capability we need for status checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker is satisfied by storage.S3Client.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for the dependencies used in serve mode.
type Checker struct {
	store     Pinger
	storeName string
	bucket    BucketChecker
	uploadDir string
	tableFile string
}

// Options configures the Checker.
type Options struct {
	Store Pinger
	// StoreName is reported on success, e.g. "redis" or "memory".
	StoreName string
	// Bucket is nil when report upload is not configured.
	Bucket    BucketChecker
	UploadDir string
	TableFile string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Store        Status `json:"store"`
	S3           Status `json:"s3"`
	Uploads      Status `json:"uploads"`
	KeywordTable Status `json:"keyword_table"`
}

// OK reports whether every required subsystem is ready. S3 is optional.
func (s Summary) OK() bool { return s.Store.OK && s.Uploads.OK && s.KeywordTable.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{
		store:     opts.Store,
		storeName: opts.StoreName,
		bucket:    opts.Bucket,
		uploadDir: opts.UploadDir,
		tableFile: opts.TableFile,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Store:        c.checkStore(ctx),
		S3:           c.checkS3(ctx),
		Uploads:      c.checkUploads(),
		KeywordTable: c.checkTable(),
	}
}

func (c *Checker) checkStore(ctx context.Context) Status {
	if c.store == nil {
		return Status{OK: false, Message: "store unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	name := c.storeName
	if name == "" {
		name = "store"
	}
	return Status{OK: true, Message: "Connected (" + name + ")"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.bucket == nil {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.bucket.HeadBucket(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkUploads() Status {
	if c.uploadDir == "" {
		return Status{OK: false, Message: "Upload dir not configured"}
	}
	if err := os.MkdirAll(c.uploadDir, 0o755); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	f, err := os.CreateTemp(c.uploadDir, ".probe-*")
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	f.Close()
	_ = os.Remove(f.Name())
	return Status{OK: true, Message: "Writable"}
}

func (c *Checker) checkTable() Status {
	if c.tableFile == "" {
		return Status{OK: false, Message: "Keyword table not configured"}
	}
	if _, err := os.Stat(c.tableFile); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: filepath.Base(c.tableFile)}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
