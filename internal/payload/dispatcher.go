package payload

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"leadrelay/internal/logger"
	"leadrelay/internal/models"
)

// Item is one record queued for delivery. Body, when set, is posted as is
// instead of the record's encoding; replays use it to resend a stored payload.
type Item struct {
	Record   *models.Record
	SourceID string
	Tier     string
	Body     string
}

// Dispatcher submits records one at a time, in order.
type Dispatcher struct {
	client  Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewDispatcher creates a dispatcher. ratePerSec > 0 spaces calls out with a
// token bucket of burst 1; 0 disables pacing.
func NewDispatcher(client Client, ratePerSec float64, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{client: client, logger: log}
	if ratePerSec > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}

	return d
}

// Dispatch posts every item to endpoint and returns one outcome per item in
// the same order. A failed item never stops the batch; the next call starts
// only after the previous one resolved.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, items []Item) []models.Outcome {
	outcomes := make([]models.Outcome, 0, len(items))

	for i, item := range items {
		outcome := d.submit(ctx, endpoint, item)
		outcomes = append(outcomes, outcome)

		if (i+1)%10 == 0 || i+1 == len(items) {
			d.logger.Debug(fmt.Sprintf("Delivery progress: %d/%d", i+1, len(items)))
		}
	}

	return outcomes
}

func (d *Dispatcher) submit(ctx context.Context, endpoint string, item Item) models.Outcome {
	base := models.Outcome{
		Record:   item.Record,
		SourceID: item.SourceID,
		Tier:     item.Tier,
	}

	body := item.Body
	if body == "" && item.Record != nil {
		body = item.Record.Encode()
	}

	return d.post(ctx, endpoint, body, base)
}

func (d *Dispatcher) post(ctx context.Context, endpoint, body string, outcome models.Outcome) models.Outcome {
	log := d.logger.With("source_id", outcome.SourceID)
	if outcome.Record != nil {
		log = log.With("line", outcome.Record.Line)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return d.fail(log, outcome, body, fmt.Errorf("pacing: %w", err))
		}
	}

	outcome.Payload = body

	resp, err := d.client.Submit(ctx, endpoint, body)
	outcome.Response = resp

	if err != nil {
		return d.fail(log, outcome, body, err)
	}

	outcome.Status = models.StatusDelivered
	log.Info("Record delivered", "response", resp)

	return outcome
}

func (d *Dispatcher) fail(log *logger.Logger, outcome models.Outcome, body string, err error) models.Outcome {
	outcome.Payload = body
	outcome.Status = models.StatusFailed
	outcome.Err = err

	log.Error("Record delivery failed", "error", err, "payload", body)

	return outcome
}
