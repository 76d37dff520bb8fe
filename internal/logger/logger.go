// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Service tags every event, locally and in Axiom.
const Service = "finfinder"

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string // empty disables the rotated log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console output goes to Stderr when set, so CLI commands can keep
	// stdout for their own results.
	Stderr bool

	// Axiom
	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
}

var (
	global  zerolog.Logger
	shipper *axiomShipper
)

// Init sets up global logger: file rotation, console, optional Axiom forwarding.
func Init(opts Options) error {
	var writers []io.Writer

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}
	writers = append(writers, console(opts))

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		s, err := newAxiomShipper(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
		} else {
			Close()
			shipper = s
			writers = append(writers, &levelFilter{min: zerolog.InfoLevel, next: &eventWriter{sink: s}})
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	global = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(opts.Level)).
		With().Timestamp().Str("service", Service).
		Logger()
	log.Logger = global
	return nil
}

func console(opts Options) io.Writer {
	var out io.Writer = os.Stdout
	if opts.Stderr {
		out = os.Stderr
	}
	if opts.Pretty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Close flushes any buffered external loggers.
func Close() {
	if shipper != nil {
		shipper.Close()
		shipper = nil
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }
