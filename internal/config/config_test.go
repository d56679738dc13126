package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"leadrelay/internal/models"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "leadrelay.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
logging:
  level: "debug"
source:
  download_dir: "./download"
  retry:
    max_attempts: 2
    initial_delay_ms: 100
    max_delay_ms: 1000
    backoff_multiplier: 2.0
    timeout_sec: 10
delivery:
  timeout_sec: 5
  rate_per_sec: 2
shops:
  entries:
    - brand: "DJH"
      area: "渋谷"
      shop: "渋谷店"
vendors:
  - name: "townlife"
    endpoint: "https://collector.example.com/api/townlife.php"
    enabled: true
    encoding: "sjis"
    brands:
      - name: "KH"
        credentials_ref: "TOWNLIFE_KH"
      - name: "DJH"
    exclude:
      - field: "name_townlife"
        equals: "取消処理されました"
        reason: "cancelled"
  - name: "homes"
    endpoint: "https://collector.example.com/api/homes.php"
    enabled: false
    brands:
      - name: "KH"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Vendors) != 2 {
		t.Fatalf("Expected 2 vendors, got %d", len(cfg.Vendors))
	}

	tl := cfg.Vendors[0]
	if tl.Name != "townlife" {
		t.Errorf("Expected vendor 'townlife', got '%s'", tl.Name)
	}

	if len(tl.Brands) != 2 || tl.Brands[0].CredentialsRef != "TOWNLIFE_KH" {
		t.Errorf("Unexpected brands: %+v", tl.Brands)
	}

	if len(tl.Exclude) != 1 || tl.Exclude[0].Equals != "取消処理されました" {
		t.Errorf("Unexpected exclude rules: %+v", tl.Exclude)
	}

	if cfg.Delivery.RatePerSec != 2 {
		t.Errorf("Expected rate 2, got %v", cfg.Delivery.RatePerSec)
	}

	if len(cfg.Shops.Entries) != 1 || cfg.Shops.Entries[0].Shop != "渋谷店" {
		t.Errorf("Unexpected shop entries: %+v", cfg.Shops.Entries)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got '%s'", cfg.Logging.Format)
	}

	if cfg.Output.LedgerPath != DefaultLedgerPath {
		t.Errorf("Expected default ledger path, got '%s'", cfg.Output.LedgerPath)
	}

	if cfg.Shops.UnassignedSuffix != "店舗未設定" {
		t.Errorf("Expected default suffix, got '%s'", cfg.Shops.UnassignedSuffix)
	}

	if cfg.Shops.Aliases["Nagomi"] != "なごみ" {
		t.Errorf("Expected default Nagomi alias, got %v", cfg.Shops.Aliases)
	}

	if cfg.Delivery.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got '%s'", cfg.Delivery.UserAgent)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/leadrelay.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func validConfig() *Config {
	cfg := &Config{
		Vendors: []VendorConfig{
			{
				Name:     "townlife",
				Endpoint: "http://example.com",
				Enabled:  true,
				Brands:   []BrandConfig{{Name: "KH"}},
			},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid", func(_ *Config) {}, nil},
		{"no vendors", func(c *Config) { c.Vendors = nil }, ErrNoVendors},
		{"missing name", func(c *Config) { c.Vendors[0].Name = "" }, ErrVendorMissingName},
		{"missing endpoint", func(c *Config) { c.Vendors[0].Endpoint = "" }, ErrVendorMissingEndpoint},
		{"no brands", func(c *Config) { c.Vendors[0].Brands = nil }, ErrNoBrands},
		{"empty brand", func(c *Config) { c.Vendors[0].Brands[0].Name = "" }, ErrBrandMissingName},
		{"none enabled", func(c *Config) { c.Vendors[0].Enabled = false }, ErrNoEnabledVendors},
		{"bad format", func(c *Config) { c.Vendors[0].Format = "json" }, ErrInvalidFormat},
		{"bad encoding", func(c *Config) { c.Vendors[0].Encoding = "latin1" }, ErrInvalidEncoding},
		{"duplicate vendor", func(c *Config) { c.Vendors = append(c.Vendors, c.Vendors[0]) }, ErrDuplicateVendor},
		{"incomplete exclude", func(c *Config) { c.Vendors[0].Exclude = []ExcludeRule{{Equals: "x"}} }, ErrExcludeRuleIncomplete},
		{"max attempts", func(c *Config) { c.Source.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"backoff", func(c *Config) { c.Source.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"delivery timeout", func(c *Config) { c.Delivery.TimeoutSec = -1 }, ErrInvalidTimeout},
		{"negative rate", func(c *Config) { c.Delivery.RatePerSec = -1 }, ErrInvalidRate},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Validate_IncompleteShopEntry(t *testing.T) {
	cfg := validConfig()
	cfg.Shops.Entries = []models.ShopEntry{
		{Brand: "KH", Area: "宇都宮", Shop: "宇都宮店"},
		{Brand: "KH", Shop: "本店"},
	}

	if err := cfg.Validate(); !errors.Is(err, ErrShopEntryIncomplete) {
		t.Fatalf("Expected ErrShopEntryIncomplete, got %v", err)
	}
}

func TestNormalizeEncoding(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"UTF-8":     "utf-8",
		"utf8":      "utf-8",
		"SJIS":      "shift_jis",
		"Shift_JIS": "shift_jis",
		"cp932":     "shift_jis",
		"EUC-JP":    "euc-jp",
		"latin1":    "latin1",
	}

	for in, want := range tests {
		if got := NormalizeEncoding(in); got != want {
			t.Errorf("NormalizeEncoding(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_GetEnabledVendors(t *testing.T) {
	cfg := validConfig()
	cfg.Vendors = append(cfg.Vendors, VendorConfig{Name: "homes", Endpoint: "http://x", Brands: []BrandConfig{{Name: "KH"}}})

	enabled := cfg.GetEnabledVendors()
	if len(enabled) != 1 || enabled[0].Name != "townlife" {
		t.Errorf("Expected only townlife enabled, got %+v", enabled)
	}

	if _, ok := cfg.GetVendor("homes"); !ok {
		t.Error("Expected to find disabled vendor by name")
	}

	if _, ok := cfg.GetVendor("suumo"); ok {
		t.Error("Expected suumo to be missing")
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("HOMES_DJH_ID", "user")
	t.Setenv("HOMES_DJH_PASS", "secret")

	id, pass, ok := Credentials("HOMES_DJH")
	if !ok || id != "user" || pass != "secret" {
		t.Errorf("Credentials = (%q, %q, %v), want (user, secret, true)", id, pass, ok)
	}

	if _, _, ok := Credentials("MISSING_REF"); ok {
		t.Error("Expected no credentials for unknown ref")
	}

	if _, _, ok := Credentials(""); ok {
		t.Error("Expected no credentials for empty ref")
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{InitialDelayMs: 100, MaxDelayMs: 350, BackoffMultiplier: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 200 * time.Millisecond},
		{3, 350 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := rp.GetRetryDelay(tt.attempt); got != tt.want {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
