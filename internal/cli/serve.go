package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/finfinder/internal/metrics"
	"github.com/local/finfinder/internal/pdftext"
	"github.com/local/finfinder/internal/server"
	"github.com/local/finfinder/internal/statuscheck"
	"github.com/local/finfinder/internal/storage"
	"github.com/local/finfinder/internal/store"
)

var servePort string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the statement locator over HTTP",
	Long: `Start an HTTP server exposing:

  POST /locate         {"file_path"|"file_url", "company"}
  POST /locate_upload  multipart form with a "file" PDF
  GET  /results/{id}   stored result of a previous request
  GET  /status         store, S3, upload dir and keyword table readiness
  GET  /health, /metrics

Results are kept in Redis when REDIS_URL is set, in memory otherwise.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default: $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	metrics.Init()

	locator, err := newLocator()
	if err != nil {
		return err
	}

	var (
		results   store.Results
		storeName string
	)
	if cfg.Store.RedisURL != "" {
		rs, err := store.NewRedisResults(cfg.Store.RedisURL, cfg.Store.ResultTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		results, storeName = rs, "redis"
	} else {
		results, storeName = store.NewMemoryResults(cfg.Store.ResultTTL), "memory"
	}
	defer results.Close()

	var bucket statuscheck.BucketChecker
	var s3c *storage.S3Client
	if cfg.S3.Bucket != "" {
		s3c, err = storage.NewS3Client(cmd.Context(), s3Options())
		if err != nil {
			return err
		}
		bucket = s3c
		log.Info().Str("bucket", s3c.Bucket()).Str("prefix", cfg.S3.ReportPrefix).Msg("s3 configured")
	}

	resolver := newResolverWith(s3c, cfg.Server.UploadDir)
	if s3c == nil {
		if resolver, err = newResolver(cmd.Context(), cfg.Server.UploadDir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	srvDeps := server.Dependencies{
		Locator:   locator,
		Resolver:  resolver,
		Results:   results,
		UploadDir: cfg.Server.UploadDir,
		Status: statuscheck.New(statuscheck.Options{
			Store:     results,
			StoreName: storeName,
			Bucket:    bucket,
			UploadDir: cfg.Server.UploadDir,
			TableFile: cfg.Finder.ProbabilitiesFile,
		}),
	}
	mux := http.NewServeMux()
	server.New(srvDeps).RegisterRoutes(mux)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("store", storeName).Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("http server error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Fprintln(cmd.ErrOrStderr(), "shutdown complete")
	return nil
}

// newResolver builds a document resolver. A dedicated S3 client is only created for
// S3-compatible endpoints or static keys; AWS itself is reached lazily through the
// default credential chain.
func newResolver(ctx context.Context, tempDir string) (*pdftext.Resolver, error) {
	var s3c *storage.S3Client
	if cfg.S3.Endpoint != "" || cfg.S3.AccessKey != "" {
		c, err := storage.NewS3Client(ctx, s3Options())
		if err != nil {
			return nil, err
		}
		s3c = c
	}
	return newResolverWith(s3c, tempDir), nil
}

func newResolverWith(s3c *storage.S3Client, tempDir string) *pdftext.Resolver {
	r := &pdftext.Resolver{
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
		TempDir: tempDir,
	}
	if s3c != nil {
		r.S3 = s3c.Client()
	}
	return r
}
