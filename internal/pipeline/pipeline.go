// Package pipeline runs vendor jobs: ingestion, normalization, attribution,
// filtering and delivery, one job and one record at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"leadrelay/internal/config"
	"leadrelay/internal/ledger"
	"leadrelay/internal/logger"
	"leadrelay/internal/models"
	"leadrelay/internal/normalizer"
	"leadrelay/internal/payload"
	"leadrelay/internal/shops"
	"leadrelay/internal/source"
	"leadrelay/internal/vendor"
)

// Pipeline errors.
var (
	ErrNoJobs = errors.New("no job matches the selection")
	ErrLedger = errors.New("ledger write failed")
)

// Loader yields the raw rows of one vendor export.
type Loader interface {
	Load(ctx context.Context, spec source.Spec) ([]models.RawRow, error)
}

// Ledger records outcomes.
type Ledger interface {
	Record(c ledger.Context, outcomes ...models.Outcome) error
}

// Job is one (vendor, brand) unit of work for a date.
type Job struct {
	Vendor  config.VendorConfig
	Profile vendor.Profile
	Brand   config.BrandConfig
	Date    string
}

// Selection narrows a run to some vendors and brands. Empty means all.
type Selection struct {
	Vendors []string
	Brands  []string
}

// Report holds the counts of one job.
type Report struct {
	Err         error
	Vendor      string
	Brand       string
	Rows        int
	Filtered    int
	Delivered   int
	Failed      int
	Placeholder int
	Duration    time.Duration
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Loader     Loader
	Resolver   *shops.Resolver
	Dispatcher *payload.Dispatcher
	Ledger     Ledger // optional
	Logger     *logger.Logger
	RunID      string
}

// Runner executes jobs sequentially.
type Runner struct {
	cfg  *config.Config
	deps Deps
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}

	return &Runner{cfg: cfg, deps: deps}
}

// Jobs expands the enabled vendors and their brands, in declaration order.
func (r *Runner) Jobs(date string, sel Selection) ([]Job, error) {
	var jobs []Job

	for _, vc := range r.cfg.GetEnabledVendors() {
		if len(sel.Vendors) > 0 && !slices.Contains(sel.Vendors, vc.Name) {
			continue
		}

		profile, err := vendor.ForConfig(vc)
		if err != nil {
			return nil, err
		}

		for _, b := range vc.Brands {
			if len(sel.Brands) > 0 && !slices.Contains(sel.Brands, b.Name) {
				continue
			}

			jobs = append(jobs, Job{Vendor: vc, Profile: profile, Brand: b, Date: date})
		}
	}

	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	return jobs, nil
}

// RunAll runs every selected job. A job's hard failure never prevents the
// following jobs; the failures are joined into the returned error.
func (r *Runner) RunAll(ctx context.Context, date string, sel Selection) ([]Report, error) {
	jobs, err := r.Jobs(date, sel)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(jobs))

	var errs []error

	for _, job := range jobs {
		report := r.RunJob(ctx, job)
		reports = append(reports, report)

		if report.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", report.Vendor, report.Brand, report.Err))
		}
	}

	return reports, errors.Join(errs...)
}

// RunJob runs one vendor job to completion.
func (r *Runner) RunJob(ctx context.Context, job Job) Report {
	start := time.Now()
	report := Report{Vendor: job.Vendor.Name, Brand: job.Brand.Name}
	log := r.deps.Logger.With("vendor", job.Vendor.Name, "brand", job.Brand.Name)

	// 1. Ingestion
	spec := source.SpecFor(job.Profile, job.Vendor.URL, job.Brand.Name, job.Brand.CredentialsRef, job.Date)

	rows, err := r.deps.Loader.Load(ctx, spec)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(start)
		log.Error("Job aborted", "error", err)

		return report
	}

	report.Rows = len(rows)
	log.Info(fmt.Sprintf("Loaded %d rows", len(rows)))

	// 2. Processing
	processor := normalizer.NewProcessor(job.Profile, r.deps.Resolver)
	results := processor.ProcessAll(rows, job.Brand.Name)

	outcomes := make([]models.Outcome, len(results))
	items := make([]payload.Item, 0, len(results))
	slots := make([]int, 0, len(results))

	for i, res := range results {
		recLog := log.With("source_id", res.SourceID, "line", res.Record.Line)

		if res.Attribution.Tier == shops.TierPlaceholder {
			report.Placeholder++
			recLog.Warn("No shop matched, using placeholder", "shop", res.Record.Shop)
		}

		if !res.Kept() {
			report.Filtered++
			outcomes[i] = models.Outcome{
				Record:   res.Record,
				SourceID: res.SourceID,
				Status:   models.StatusFiltered,
				Reason:   res.Reason,
				Tier:     string(res.Attribution.Tier),
			}
			recLog.Info("Record filtered", "reason", res.Reason)

			continue
		}

		items = append(items, payload.Item{Record: res.Record, SourceID: res.SourceID, Tier: string(res.Attribution.Tier)})
		slots = append(slots, i)
	}

	// 3. Delivery
	delivered := r.deps.Dispatcher.Dispatch(ctx, job.Vendor.Endpoint, items)
	for k, o := range delivered {
		outcomes[slots[k]] = o

		if o.Status == models.StatusDelivered {
			report.Delivered++
		} else {
			report.Failed++
		}
	}

	// 4. Ledger
	if r.deps.Ledger != nil {
		c := ledger.Context{RunID: r.deps.RunID, Vendor: job.Vendor.Name, Brand: job.Brand.Name, Endpoint: job.Vendor.Endpoint}
		if err := r.deps.Ledger.Record(c, outcomes...); err != nil {
			report.Err = fmt.Errorf("%w: %w", ErrLedger, err)
			log.Error("Failed to record outcomes", "error", err)
		}
	}

	report.Duration = time.Since(start)
	log.Info("Job complete",
		"rows", report.Rows,
		"filtered", report.Filtered,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"placeholder", report.Placeholder,
	)

	return report
}
