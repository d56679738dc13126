// Package config provides configuration management for the lead relay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"leadrelay/internal/models"
)

// Configuration validation errors.
var (
	ErrNoVendors                = errors.New("at least one vendor is required")
	ErrVendorMissingName        = errors.New("vendor name is required")
	ErrVendorMissingEndpoint    = errors.New("vendor endpoint is required")
	ErrDuplicateVendor          = errors.New("vendor name must be unique")
	ErrNoBrands                 = errors.New("vendor needs at least one brand")
	ErrBrandMissingName         = errors.New("brand name is required")
	ErrNoEnabledVendors         = errors.New("at least one vendor must be enabled")
	ErrInvalidFormat            = errors.New("vendor format must be one of: csv, tsv, xlsx")
	ErrInvalidEncoding          = errors.New("vendor encoding must be one of: utf-8, shift_jis, euc-jp")
	ErrExcludeRuleIncomplete    = errors.New("exclude rule needs a field")
	ErrShopEntryIncomplete      = errors.New("shop entry needs brand, area and shop")
	ErrInvalidMaxAttempts       = errors.New("source.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("source.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("source.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("timeout_sec must be at least 1")
	ErrInvalidRate              = errors.New("delivery.rate_per_sec must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Defaults applied to fields left empty in the YAML file.
const (
	DefaultDownloadDir      = "./download"
	DefaultLedgerPath       = "./logs/outcomes.csv"
	DefaultUserAgent        = "leadrelay/1.0"
	DefaultUnassignedSuffix = "店舗未設定"
	DefaultTimeoutSec       = 30
	DefaultBufferSizeKb     = 16 * 1024
)

// Config represents the complete relay configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
	Shops    ShopsConfig    `yaml:"shops"`
	Source   SourceConfig   `yaml:"source"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Vendors  []VendorConfig `yaml:"vendors"`
}

// VendorConfig describes one lead portal. It is immutable for the run.
type VendorConfig struct {
	Columns     map[string]string `yaml:"columns"`
	Name        string            `yaml:"name"`
	Endpoint    string            `yaml:"endpoint"`
	Format      string            `yaml:"format"`
	Encoding    string            `yaml:"encoding"`
	FilePattern string            `yaml:"file_pattern"`
	URL         string            `yaml:"url"`
	Brands      []BrandConfig     `yaml:"brands"`
	Exclude     []ExcludeRule     `yaml:"exclude"`
	Require     []string          `yaml:"require"`
	Enabled     bool              `yaml:"enabled"`
}

// BrandConfig is one brand account on a vendor portal.
type BrandConfig struct {
	Name           string `yaml:"name"`
	CredentialsRef string `yaml:"credentials_ref"`
}

// ExcludeRule drops records whose field equals a marker value.
type ExcludeRule struct {
	Field  string `yaml:"field"`
	Equals string `yaml:"equals"`
	Reason string `yaml:"reason"`
}

// SourceConfig defines where vendor exports are picked up.
type SourceConfig struct {
	DownloadDir  string      `yaml:"download_dir"`
	Retry        RetryPolicy `yaml:"retry"`
	BufferSizeKb int         `yaml:"buffer_size_kb"`
}

// RetryPolicy defines retry behavior for URL sources.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// DeliveryConfig defines how records are posted to the collector.
type DeliveryConfig struct {
	UserAgent  string  `yaml:"user_agent"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// OutputConfig defines where outcomes are recorded.
type OutputConfig struct {
	LedgerPath string `yaml:"ledger_path"`
}

// ShopsConfig defines the shop directory and the placeholder label.
type ShopsConfig struct {
	Aliases          map[string]string  `yaml:"aliases"`
	File             string             `yaml:"file"`
	UnassignedSuffix string             `yaml:"unassigned_suffix"`
	Entries          []models.ShopEntry `yaml:"entries"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills empty settings with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Source.DownloadDir == "" {
		c.Source.DownloadDir = DefaultDownloadDir
	}

	if c.Source.BufferSizeKb == 0 {
		c.Source.BufferSizeKb = DefaultBufferSizeKb
	}

	if c.Source.Retry == (RetryPolicy{}) {
		c.Source.Retry = RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        DefaultTimeoutSec,
		}
	}

	if c.Delivery.TimeoutSec == 0 {
		c.Delivery.TimeoutSec = DefaultTimeoutSec
	}

	if c.Delivery.UserAgent == "" {
		c.Delivery.UserAgent = DefaultUserAgent
	}

	if c.Output.LedgerPath == "" {
		c.Output.LedgerPath = DefaultLedgerPath
	}

	if c.Shops.UnassignedSuffix == "" {
		c.Shops.UnassignedSuffix = DefaultUnassignedSuffix
	}

	if c.Shops.Aliases == nil {
		c.Shops.Aliases = map[string]string{"Nagomi": "なごみ"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Vendors) == 0 {
		return ErrNoVendors
	}

	seen := make(map[string]bool, len(c.Vendors))
	enabledCount := 0

	for i, v := range c.Vendors {
		if err := v.validate(); err != nil {
			return fmt.Errorf("%w: vendors[%d]", err, i)
		}

		if seen[v.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateVendor, v.Name)
		}

		seen[v.Name] = true

		if v.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledVendors
	}

	for i, e := range c.Shops.Entries {
		if e.Brand == "" || e.Area == "" || e.Shop == "" {
			return fmt.Errorf("%w: shops.entries[%d]", ErrShopEntryIncomplete, i)
		}
	}

	// Validate retry policy
	if c.Source.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Source.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Source.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Source.Retry.TimeoutSec < 1 || c.Delivery.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Delivery.RatePerSec < 0 {
		return ErrInvalidRate
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

func (v *VendorConfig) validate() error {
	if v.Name == "" {
		return ErrVendorMissingName
	}

	if v.Endpoint == "" {
		return ErrVendorMissingEndpoint
	}

	if len(v.Brands) == 0 {
		return ErrNoBrands
	}

	for _, b := range v.Brands {
		if b.Name == "" {
			return ErrBrandMissingName
		}
	}

	switch v.Format {
	case "", "csv", "tsv", "xlsx":
	default:
		return ErrInvalidFormat
	}

	switch NormalizeEncoding(v.Encoding) {
	case "", "utf-8", "shift_jis", "euc-jp":
	default:
		return ErrInvalidEncoding
	}

	for _, r := range v.Exclude {
		if r.Field == "" {
			return ErrExcludeRuleIncomplete
		}
	}

	return nil
}

// NormalizeEncoding folds common spellings of the supported encodings.
func NormalizeEncoding(enc string) string {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "_")) {
	case "":
		return ""
	case "utf8", "utf_8":
		return "utf-8"
	case "sjis", "shift_jis", "shiftjis", "cp932", "windows_31j":
		return "shift_jis"
	case "euc_jp", "eucjp":
		return "euc-jp"
	default:
		return enc
	}
}

// GetEnabledVendors returns only enabled vendors, in declaration order.
func (c *Config) GetEnabledVendors() []VendorConfig {
	var enabled []VendorConfig

	for _, v := range c.Vendors {
		if v.Enabled {
			enabled = append(enabled, v)
		}
	}

	return enabled
}

// GetVendor returns the vendor with the given name.
func (c *Config) GetVendor(name string) (VendorConfig, bool) {
	for _, v := range c.Vendors {
		if v.Name == name {
			return v, true
		}
	}

	return VendorConfig{}, false
}

// Credentials reads the portal login for a credentials reference from the
// environment as <REF>_ID and <REF>_PASS.
func Credentials(ref string) (id, pass string, ok bool) {
	if ref == "" {
		return "", "", false
	}

	id = os.Getenv(ref + "_ID")
	pass = os.Getenv(ref + "_PASS")

	return id, pass, id != "" || pass != ""
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetTimeout returns the per-request delivery timeout.
func (d *DeliveryConfig) GetTimeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Vendors: %d, Enabled: %d, Shops: %d, Ledger: %s}",
		len(c.Vendors),
		len(c.GetEnabledVendors()),
		len(c.Shops.Entries),
		c.Output.LedgerPath,
	)
}
