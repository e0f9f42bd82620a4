package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsync/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the summary",
	Long:  "Executes a single pipeline pass against the configured store and prints the run summary as JSON on stdout (logs go to stderr). Exits non-zero if the run failed.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	// stdout carries only the summary JSON.
	logger := newLogger(os.Stderr, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logConfig(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	locker, closeLocker, err := setupLocker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up run lock", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	n := setupNotifier(cfg, newHTTPClient(), logger)

	p, err := buildPipeline(cfg, st, n, locker, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	summary := p.Run(ctx)

	if err := writeSummary(os.Stdout, summary); err != nil {
		logger.Error("failed to print summary", "error", err)
	}
	if !summary.Success {
		// Deferred cleanups do not run after os.Exit.
		closeLocker()
		st.Close()
		os.Exit(1)
	}
	return nil
}

func writeSummary(w io.Writer, summary model.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
