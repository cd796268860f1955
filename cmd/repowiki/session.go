package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"repowiki/internal/config"
	"repowiki/internal/slogutil"
	"repowiki/internal/wiki"
)

// session is the per-invocation state shared by the commands: the resolved
// root, its configuration and the logger built from both.
type session struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newSession(cmd *cobra.Command) (*session, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	logFile := ""
	if cfg.Logging.File != "" {
		logFile = config.Resolve(root, cfg.Logging.File)
	}
	logger, closer, err := slogutil.Setup(cmd.ErrOrStderr(), slogutil.Options{
		Format:     cfg.Logging.Format,
		Level:      cfg.Logging.Level,
		File:       logFile,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		Verbosity:  verboseFlag,
		Quiet:      quietFlag,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return &session{root: root, cfg: cfg, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	_ = s.closer.Close()
}

func (s *session) workspace(opts ...wiki.Option) (*wiki.Workspace, error) {
	return wiki.Open(s.root, s.cfg, s.logger, opts...)
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printResponse formats resp with the --format flag and writes it to stdout.
func printResponse(cmd *cobra.Command, resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
