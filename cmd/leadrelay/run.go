package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"leadrelay/internal/formatter"
	"leadrelay/internal/ledger"
	"leadrelay/internal/payload"
	"leadrelay/internal/pipeline"
	"leadrelay/internal/source"
)

const dateLayout = "20060102"

type runOptions struct {
	vendors []string
	brands  []string
	date    string
	dryRun  bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the exports of a date and deliver the leads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, root, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.vendors, "vendor", nil, "Only run these vendors")
	cmd.Flags().StringSliceVar(&opts.brands, "brand", nil, "Only run these brands")
	cmd.Flags().StringVar(&opts.date, "date", "", "Export date as YYYYMMDD (default today)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Record submissions instead of posting them")

	return cmd
}

func runPipeline(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}

	date := opts.date
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("invalid --date %q: %w", date, err)
	}

	runID := uuid.NewString()
	log := a.log.With("run_id", runID)

	var client payload.Client = payload.NewFormClient(a.cfg.Delivery, log)
	if opts.dryRun {
		client = payload.NewRecorder("dry-run")
		log.Info("🧪 Dry run: nothing will be posted")
	}

	deps := pipeline.Deps{
		Loader:     source.NewFetcher(a.cfg.Source, log),
		Resolver:   a.resolver,
		Dispatcher: payload.NewDispatcher(client, a.cfg.Delivery.RatePerSec, log),
		Logger:     log,
		RunID:      runID,
	}

	if !opts.dryRun {
		w, err := ledger.Open(a.cfg.Output.LedgerPath)
		if err != nil {
			return err
		}

		defer func() {
			if closeErr := w.Close(); closeErr != nil {
				log.Error("Failed to close ledger", "error", closeErr)
			}
		}()

		deps.Ledger = w
	}

	log.Info(fmt.Sprintf("🚀 Starting run for %s", date))

	runner := pipeline.NewRunner(a.cfg, deps)
	reports, runErr := runner.RunAll(cmd.Context(), date, pipeline.Selection{Vendors: opts.vendors, Brands: opts.brands})

	if len(reports) > 0 {
		fmt.Fprint(cmd.OutOrStdout(), formatter.RenderSummary(reports))
	}

	if runErr != nil {
		log.Error("Run finished with failures", "error", runErr)

		return fmt.Errorf("%w: %w", errJobsFailed, runErr)
	}

	log.Info("✨ Run complete")

	return nil
}
