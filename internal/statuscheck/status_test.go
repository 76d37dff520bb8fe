package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type bucketFunc func(ctx context.Context) error

func (f bucketFunc) HeadBucket(ctx context.Context) error { return f(ctx) }

func TestSummaryAllReady(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "classifier-probs.json")
	require.NoError(t, os.WriteFile(table, []byte("{}"), 0o644))

	c := New(Options{
		Store:     pingFunc(func(context.Context) error { return nil }),
		StoreName: "redis",
		Bucket:    bucketFunc(func(context.Context) error { return nil }),
		UploadDir: filepath.Join(dir, "uploads"),
		TableFile: table,
	})
	s := c.Summary(context.Background())

	assert.True(t, s.OK())
	assert.Equal(t, Status{OK: true, Message: "Connected (redis)"}, s.Store)
	assert.True(t, s.S3.OK)
	assert.Equal(t, "classifier-probs.json", s.KeywordTable.Message)
	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
}

func TestSummaryFailures(t *testing.T) {
	c := New(Options{
		Store:     pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") }),
		TableFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	s := c.Summary(context.Background())

	assert.False(t, s.OK())
	assert.Equal(t, "dial tcp: connection refused", s.Store.Message)
	assert.Equal(t, Status{OK: false, Message: "Bucket not configured"}, s.S3)
	assert.False(t, s.Uploads.OK)
	assert.False(t, s.KeywordTable.OK)
}

func TestTrimError(t *testing.T) {
	assert.Equal(t, "", trimError(nil))
	assert.Equal(t, "timeout", trimError(context.DeadlineExceeded))
	assert.Len(t, trimError(errors.New(strings.Repeat("x", 300))), 120)
}
