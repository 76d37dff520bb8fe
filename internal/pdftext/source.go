package pdftext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ObjectGetter is the subset of the S3 client used to fetch s3:// refs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Local is a resolved document on the local filesystem.
type Local struct {
	Path string
	temp bool
}

// Cleanup removes the file when it was downloaded to a temp location.
func (l Local) Cleanup() {
	if l.temp && l.Path != "" {
		_ = os.Remove(l.Path)
	}
}

// Resolver turns document references into local paths.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via AWS SDK v2)
type Resolver struct {
	HTTP *http.Client
	// S3 is loaded from the default AWS config chain on first use when nil.
	S3 ObjectGetter
	// TempDir defaults to os.TempDir().
	TempDir string

	mu sync.Mutex
}

// Resolve returns a local file for ref. Callers must call Cleanup on the result.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Local, error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		p, err := r.downloadS3(ctx, ref)
		return Local{Path: p, temp: true}, err
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, err := r.downloadHTTP(ctx, ref)
		return Local{Path: p, temp: true}, err
	case strings.HasPrefix(ref, "file://"):
		return Local{Path: strings.TrimPrefix(ref, "file://")}, nil
	case ref == "":
		return Local{}, fmt.Errorf("empty document reference")
	default:
		return Local{Path: ref}, nil
	}
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

func (r *Resolver) downloadHTTP(ctx context.Context, url string) (string, error) {
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}
	return r.writeTemp(httpTempPrefix, resp.Body)
}

func (r *Resolver) downloadS3(ctx context.Context, s3url string) (string, error) {
	bucket, key, err := ParseS3URL(s3url)
	if err != nil {
		return "", err
	}
	cli, err := r.objectGetter(ctx)
	if err != nil {
		return "", err
	}
	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", fmt.Errorf("get s3 object: %w", err)
	}
	defer out.Body.Close()

	p, err := r.writeTemp(s3TempPrefix, out.Body)
	if err != nil {
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(p)).Msg("downloaded s3 pdf to temp")
	return p, nil
}

func (r *Resolver) objectGetter(ctx context.Context) (ObjectGetter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.S3 == nil {
		// Load AWS config (region from env or default chain)
		cfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		r.S3 = s3.NewFromConfig(cfg)
	}
	return r.S3, nil
}

// writeTemp keeps a .pdf extension for pdfcpu expectations.
func (r *Resolver) writeTemp(prefix string, body io.Reader) (string, error) {
	f, err := os.CreateTemp(r.TempDir, prefix+"*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
