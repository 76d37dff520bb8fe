package pdftext

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestResolveLocalPaths(t *testing.T) {
	r := &Resolver{}

	l, err := r.Resolve(context.Background(), "companies/acme/2019.pdf")
	require.NoError(t, err)
	assert.Equal(t, "companies/acme/2019.pdf", l.Path)

	l, err = r.Resolve(context.Background(), "file:///data/a.pdf#page=3")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.pdf", l.Path)

	// Cleanup never touches caller-owned files.
	f := filepath.Join(t.TempDir(), "keep.pdf")
	require.NoError(t, os.WriteFile(f, []byte("%PDF-1.4"), 0o644))
	l, err = r.Resolve(context.Background(), f)
	require.NoError(t, err)
	l.Cleanup()
	assert.FileExists(t, f)

	_, err = r.Resolve(context.Background(), "")
	assert.Error(t, err)
}

func TestResolveHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/missing.pdf" {
			http.NotFound(w, req)
			return
		}
		_, _ = io.WriteString(w, "%PDF-1.7 body")
	}))
	defer srv.Close()

	r := &Resolver{HTTP: srv.Client(), TempDir: t.TempDir()}
	l, err := r.Resolve(context.Background(), srv.URL+"/report.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(l.Path), httpTempPrefix))
	data, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(data))

	l.Cleanup()
	assert.NoFileExists(t, l.Path)

	_, err = r.Resolve(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
}

func TestResolveS3(t *testing.T) {
	g := &fakeGetter{body: "%PDF-1.5"}
	r := &Resolver{S3: g, TempDir: t.TempDir()}

	l, err := r.Resolve(context.Background(), "s3://filings/acme/2019.pdf")
	require.NoError(t, err)
	defer l.Cleanup()
	assert.Equal(t, "filings", g.bucket)
	assert.Equal(t, "acme/2019.pdf", g.key)
	assert.True(t, strings.HasPrefix(filepath.Base(l.Path), s3TempPrefix))

	g.err = errors.New("access denied")
	_, err = r.Resolve(context.Background(), "s3://filings/acme/2020.pdf")
	assert.ErrorContains(t, err, "access denied")
}

func TestParseS3URL(t *testing.T) {
	b, k, err := ParseS3URL("s3://bucket/a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "bucket", b)
	assert.Equal(t, "a/b.pdf", k)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestCleanupTemps(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)
	write := func(name string, mod time.Time) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(p, mod, mod))
		return p
	}
	stale := write(httpTempPrefix+"1.pdf", old)
	staleS3 := write(s3TempPrefix+"2.pdf", old)
	fresh := write(httpTempPrefix+"3.pdf", time.Now())
	other := write("report.pdf", old)

	n := CleanupTemps(dir, time.Hour)

	assert.Equal(t, 2, n)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, staleS3)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)

	upload := write("upload-abc.pdf", old)
	assert.Equal(t, 1, CleanupTemps(dir, time.Hour, "upload-"))
	assert.NoFileExists(t, upload)
}
