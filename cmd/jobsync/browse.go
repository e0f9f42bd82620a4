package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsync/internal/browse"
)

var browseLimit int

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs and run logs interactively (TUI)",
	Long:  "Shows the category picker TUI, then launches the split-pane view of stored jobs and recent runs.",
	RunE:  runBrowseCmd,
}

func init() {
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 200, "maximum number of jobs and runs to load")
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Any log output before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := setupStore(context.Background(), cfg, silentLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	data, err := browse.RunLoader("stored jobs", func(ctx context.Context) (browse.Data, error) {
		return browse.Load(ctx, st, browseLimit)
	})
	if err != nil {
		fmt.Printf("Error loading jobs: %v\n", err)
		return nil
	}
	if len(data.Jobs) == 0 && len(data.Runs) == 0 {
		fmt.Println("No stored jobs or runs yet. Run `jobsync run` first.")
		return nil
	}

	categories := browse.CountCategories(data.Jobs)
	for {
		choice, err := browse.RunCategoryPicker(categories)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		category := categories[choice].Category

		jobs := browse.FilterByCategory(data.Jobs, category)
		wantQuit, err := browse.RunBrowseTUI(jobs, data.Runs, category)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
