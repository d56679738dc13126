// Package source locates vendor exports and turns them into raw rows.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leadrelay/internal/config"
	"leadrelay/internal/logger"
	"leadrelay/internal/models"
	"leadrelay/internal/vendor"
)

// Source errors.
var (
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrMalformedSource      = errors.New("malformed source")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// Spec identifies one vendor export for one brand and date.
type Spec struct {
	Vendor         string
	Brand          string
	Date           string // YYYYMMDD
	Pattern        string
	URL            string
	CredentialsRef string
	Encoding       string
	Format         string
}

// SpecFor builds the export spec of a vendor job.
func SpecFor(p vendor.Profile, url, brand, credentialsRef, date string) Spec {
	return Spec{
		Vendor:         p.Name,
		Brand:          brand,
		Date:           date,
		Pattern:        p.FilePattern,
		URL:            url,
		CredentialsRef: credentialsRef,
		Encoding:       p.Encoding,
		Format:         p.Format,
	}
}

// FileName expands {vendor}, {brand} and {date} in pattern.
func FileName(pattern, vendorName, brand, date string) string {
	return strings.NewReplacer(
		"{vendor}", vendorName,
		"{brand}", brand,
		"{date}", date,
	).Replace(pattern)
}

// Fetcher reads exports from the download directory or over HTTP with
// config-driven retry logic.
type Fetcher struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	logger       *logger.Logger
	downloadDir  string
	bufferSizeKb int
}

// NewFetcher creates a fetcher from the source configuration.
func NewFetcher(cfg config.SourceConfig, log *logger.Logger) *Fetcher {
	retry := cfg.Retry

	return &Fetcher{
		client: &http.Client{
			Timeout: retry.GetTimeout(),
		},
		retryPolicy:  &retry,
		logger:       log,
		downloadDir:  cfg.DownloadDir,
		bufferSizeKb: cfg.BufferSizeKb,
	}
}

// Fetch returns the raw bytes of the export described by spec. A URL source
// takes precedence over the download directory.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec) ([]byte, error) {
	if spec.URL != "" {
		return f.fetchURL(ctx, FileName(spec.URL, spec.Vendor, spec.Brand, spec.Date), spec.CredentialsRef)
	}

	return f.readLocal(filepath.Join(f.downloadDir, FileName(spec.Pattern, spec.Vendor, spec.Brand, spec.Date)))
}

// Load fetches, decodes and parses the export described by spec.
func (f *Fetcher) Load(ctx context.Context, spec Spec) ([]models.RawRow, error) {
	data, err := f.Fetch(ctx, spec)
	if err != nil {
		return nil, err
	}

	if spec.Format == vendor.FormatXLSX {
		return ParseXLSX(data)
	}

	text, err := Decode(data, spec.Encoding)
	if err != nil {
		return nil, err
	}

	comma := ','
	if spec.Format == vendor.FormatTSV {
		comma = '\t'
	}

	return ParseDelimited(text, comma)
}

func (f *Fetcher) readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}

	f.logger.Debug("Read local export", "path", path, "bytes", len(data))

	return data, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url, credentialsRef string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if err := f.wait(ctx, attempt); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, url, err)
		}

		body, retry, err := f.get(ctx, url, credentialsRef)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)
		f.logger.Warn("Export download failed", "url", url, "attempt", attempt, "error", err)

		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, url, lastErr)
}

// get performs one download. retry reports whether another attempt may help.
func (f *Fetcher) get(ctx context.Context, url, credentialsRef string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	if id, pass, ok := config.Credentials(credentialsRef); ok {
		req.SetBasicAuth(id, pass)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(f.bufferSizeKb) * 1024
	if limit <= 0 {
		limit = int64(config.DefaultBufferSizeKb) * 1024
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	// a cut export would parse as a valid file with a broken last row
	if int64(len(body)) > limit {
		return nil, false, fmt.Errorf("%w: export exceeds %d bytes", ErrMalformedSource, limit)
	}

	return body, false, nil
}

// wait sleeps the backoff delay before the given attempt.
func (f *Fetcher) wait(ctx context.Context, attempt int) error {
	delay := f.retryPolicy.GetRetryDelay(attempt)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}

	return statusCode >= http.StatusInternalServerError
}
