package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/morozRed/implscope/internal/config"
	"github.com/morozRed/implscope/internal/session"
	"github.com/spf13/cobra"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// ParseLocationQuery splits file:line or file:line:col. Columns default to 1.
func ParseLocationQuery(query string) (file string, line int, column int, ok bool) {
	parts := strings.Split(strings.TrimSpace(query), ":")
	if len(parts) < 2 {
		return "", 0, 0, false
	}

	numbers := make([]int, 0, 2)
	for len(parts) > 1 && len(numbers) < 2 {
		value, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
		if err != nil || value <= 0 {
			break
		}
		numbers = append([]int{value}, numbers...)
		parts = parts[:len(parts)-1]
	}
	file = strings.TrimSpace(strings.Join(parts, ":"))
	if file == "" || len(numbers) == 0 {
		return "", 0, 0, false
	}
	line, column = numbers[0], 1
	if len(numbers) == 2 {
		column = numbers[1]
	}
	return file, line, column, true
}

// parseQuery reads the position argument, honoring --offset when set.
func parseQuery(cmd *cobra.Command, arg string) (session.Query, error) {
	if flagChanged(cmd, "offset") {
		offset, err := OptionalIntFlag(cmd, "offset", 0)
		if err != nil {
			return session.Query{}, err
		}
		file := strings.TrimSpace(arg)
		if file == "" {
			return session.Query{}, fmt.Errorf("file is required")
		}
		return session.Query{File: file, Offset: offset, HasOffset: true}, nil
	}
	file, line, column, ok := ParseLocationQuery(arg)
	if !ok {
		return session.Query{}, fmt.Errorf("invalid location %q (expected file:line[:col] or --offset)", arg)
	}
	return session.Query{File: file, Line: line, Column: column}, nil
}

// loadConfig reads the workspace config and applies flag overrides.
func loadConfig(cmd *cobra.Command, rootPath string) (*config.Config, error) {
	cfg, err := config.Load(rootPath)
	if err != nil {
		return nil, err
	}
	if flagChanged(cmd, "backend") {
		backend, err := OptionalStringFlag(cmd, "backend")
		if err != nil {
			return nil, err
		}
		cfg.Backend = backend
	}
	if flagChanged(cmd, "concurrency") {
		concurrency, err := OptionalIntFlag(cmd, "concurrency", cfg.Concurrency)
		if err != nil {
			return nil, err
		}
		cfg.Concurrency = concurrency
	}
	verbose, err := OptionalBoolFlag(cmd, "verbose", false)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openSession(cmd *cobra.Command) (*session.Session, error) {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd, rootPath)
	if err != nil {
		return nil, err
	}
	return session.Open(commandContext(cmd), rootPath, cfg, newLogger(cfg))
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
