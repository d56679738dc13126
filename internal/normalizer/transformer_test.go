package normalizer

import (
	"testing"

	"leadrelay/internal/models"
	"leadrelay/internal/vendor"
)

func TestNewTransformer(t *testing.T) {
	tr := NewTransformer()
	if tr == nil {
		t.Fatal("NewTransformer returned nil")
	}
}

func TestTransformer_NormalizeDate(t *testing.T) {
	tr := NewTransformer()

	tests := []struct {
		input    string
		expected string
	}{
		{"2024年05月01日 10:30", "2024/05/01"},
		{"2024-05-01 10:30:00", "2024/05/01"},
		{"2024.05.01", "2024/05/01"},
		{"2024/05/01", "2024/05/01"},
		{"2024/05/01 09:00", "2024/05/01"},
		{"2024年5月1日", "2024/5/1"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := tr.NormalizeDate(tt.input); got != tt.expected {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTransformer_NormalizeDate_Idempotent(t *testing.T) {
	tr := NewTransformer()

	for _, in := range []string{"2024年05月01日 10:30", "2024-05-01 10:30:00", "2024.05.01", "2024/05/01"} {
		once := tr.NormalizeDate(in)
		if twice := tr.NormalizeDate(once); twice != once {
			t.Errorf("NormalizeDate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTransformer_CleanText(t *testing.T) {
	tr := NewTransformer()

	tests := []struct {
		input    string
		expected string
	}{
		{`="東京都渋谷区1-2-3"`, "東京都渋谷区1-2-3"},
		{`"quoted"`, "quoted"},
		{"a=b=c", "ab=c"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := tr.CleanText(tt.input); got != tt.expected {
			t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTransformer_Apply(t *testing.T) {
	tr := NewTransformer()
	p := vendor.Profile{
		DateFields: []string{"date", "missing_date", "empty_date"},
		TextFields: []string{"address", "missing_address"},
	}

	rec := models.NewRecord("townlife", "KH", 1)
	rec.Set("date", "2024-05-01 10:30:00")
	rec.Set("empty_date", "")
	rec.Set("address", `="栃木県宇都宮市"`)
	rec.Set("other", "2024-05-01 10:30:00")

	tr.Apply(rec, p)

	if rec.Value("date") != "2024/05/01" {
		t.Errorf("date = %q", rec.Value("date"))
	}

	if rec.Value("address") != "栃木県宇都宮市" {
		t.Errorf("address = %q", rec.Value("address"))
	}

	if rec.Value("other") != "2024-05-01 10:30:00" {
		t.Errorf("non-profile field was modified: %q", rec.Value("other"))
	}

	if rec.Has("missing_date") || rec.Has("missing_address") {
		t.Error("Apply fabricated a missing field")
	}

	if v, ok := rec.Get("empty_date"); !ok || v != "" {
		t.Errorf("empty field changed: %q, %v", v, ok)
	}
}
