package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bnema/dockcatalog/internal/config"
	"github.com/bnema/dockcatalog/pkg/bytesize"
)

var (
	// MainLogger is the logger every command derives its component loggers from.
	MainLogger zerolog.Logger

	// Console receives human-readable output. Tests swap it for a buffer.
	Console io.Writer = os.Stderr
)

// Setup initializes the logging system based on the configuration
func Setup(cfg *config.Config) error {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
		defer log.Warn().Str("invalid_level", cfg.Logging.Level).Msg("Invalid log level, using info")
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{Out: Console}

	if cfg.Logging.File == "" {
		// Keep console logging only
		MainLogger = zerolog.New(consoleWriter).With().Timestamp().Logger()
		log.Logger = MainLogger
		return nil
	}

	// Create logs directory with secure permissions (0700 - owner only)
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0700); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	// Zero leaves lumberjack's own default
	var maxSizeMB int
	if cfg.Logging.MaxSize != "" {
		size, err := bytesize.Parse(cfg.Logging.MaxSize)
		if err != nil {
			return fmt.Errorf("invalid log file size: %w", err)
		}
		maxSizeMB = bytesize.Megabytes(size)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    maxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	// Set file permissions to be secure (readable only by owner)
	if err := os.Chmod(cfg.Logging.File, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", cfg.Logging.File).Msg("Failed to set secure permissions on log file")
	}

	// Console stays human-readable, the file gets JSON lines
	MainLogger = zerolog.New(io.MultiWriter(consoleWriter, fileWriter)).With().Timestamp().Logger()
	log.Logger = MainLogger

	log.Debug().
		Str("log_file", cfg.Logging.File).
		Str("level", level.String()).
		Msg("File logging initialized")

	return nil
}

// ForRun returns MainLogger tagged with a run identifier and command name.
func ForRun(runID, command string) zerolog.Logger {
	return MainLogger.With().Str("run_id", runID).Str("command", command).Logger()
}
