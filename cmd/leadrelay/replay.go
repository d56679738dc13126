package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"leadrelay/internal/formatter"
	"leadrelay/internal/ledger"
	"leadrelay/internal/payload"
	"leadrelay/internal/pipeline"
)

type replayOptions struct {
	ledgerPath string
	runID      string
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Post the failed records of a ledger once more",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ledgerPath, "ledger", "", "Ledger file to read (default output.ledger_path)")
	cmd.Flags().StringVar(&opts.runID, "run", "", "Only replay failures of this run id")

	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}

	path := opts.ledgerPath
	if path == "" {
		path = a.cfg.Output.LedgerPath
	}

	entries, err := ledger.ReadFailed(path, opts.runID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		a.log.Info("Nothing to replay", "ledger", path)

		return nil
	}

	runID := uuid.NewString()
	log := a.log.With("run_id", runID)

	w, err := ledger.Open(a.cfg.Output.LedgerPath)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			log.Error("Failed to close ledger", "error", closeErr)
		}
	}()

	runner := pipeline.NewRunner(a.cfg, pipeline.Deps{
		Dispatcher: payload.NewDispatcher(payload.NewFormClient(a.cfg.Delivery, log), a.cfg.Delivery.RatePerSec, log),
		Ledger:     w,
		Logger:     log,
		RunID:      runID,
	})

	log.Info(fmt.Sprintf("🔁 Replaying %d failed records from %s", len(entries), path))

	report := runner.Replay(cmd.Context(), entries)
	fmt.Fprint(cmd.OutOrStdout(), formatter.RenderSummary([]pipeline.Report{report}))

	if report.Err != nil || report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d records still failing", errJobsFailed, report.Failed, len(entries))
	}

	return nil
}
