package pipeline

import (
	"context"
	"fmt"

	"leadrelay/internal/ledger"
	"leadrelay/internal/models"
	"leadrelay/internal/payload"
)

// Replay re-posts the stored payload of each failed ledger entry once. The new
// outcomes are recorded under the runner's run id.
func (r *Runner) Replay(ctx context.Context, entries []ledger.Entry) Report {
	report := Report{Vendor: "replay", Rows: len(entries)}

	var errs []error

	for _, e := range entries {
		rec := models.NewRecord(e.Vendor, e.Brand, e.Line)
		rec.Shop = e.Shop

		item := payload.Item{Record: rec, SourceID: e.SourceID, Tier: e.Tier, Body: e.Payload}
		o := r.deps.Dispatcher.Dispatch(ctx, e.Endpoint, []payload.Item{item})[0]

		if o.Status == models.StatusDelivered {
			report.Delivered++
		} else {
			report.Failed++
		}

		if r.deps.Ledger == nil {
			continue
		}

		c := ledger.Context{RunID: r.deps.RunID, Vendor: e.Vendor, Brand: e.Brand, Endpoint: e.Endpoint}
		if err := r.deps.Ledger.Record(c, o); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		report.Err = fmt.Errorf("%w: %d entries", ErrLedger, len(errs))
	}

	return report
}
