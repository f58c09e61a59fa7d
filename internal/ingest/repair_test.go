package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"sentiments/internal/config"
)

func TestRepairLine(t *testing.T) {
	r := NewRepairer(config.Default().Ingest)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"header typo", "daet,ticker,positive,tweets\n", "date,ticker,positive,tweets\n"},
		{"plain row untouched", "2020-01-02,AAPL,0.8,12\n", "2020-01-02,AAPL,0.8,12\n"},
		{"quoted thousands", `2020-01-02,AAPL,0.8,"1,234"` + "\n", `2020-01-02,AAPL,0.8,"1234"` + "\n"},
		{"quoted millions", `"1,234,567",AAPL`, `"1234567",AAPL`},
		{"two quoted fields", `"1,000","2,500,000"`, `"1000","2500000"`},
		{"quoted text keeps comma", `"hello, world",7`, `"hello, world",7`},
		{"no digits around separator", `"a,1",2`, `"a,1",2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RepairLine(tt.in); got != tt.want {
				t.Errorf("RepairLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepairLineCustomSeparator(t *testing.T) {
	cfg := config.Default().Ingest
	cfg.ThousandsSep = "'"
	cfg.HeaderFixes = map[string]string{"tikcer": "ticker"}
	r := NewRepairer(cfg)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted", `tikcer,"1'234'567"`, `ticker,"1234567"`},
		// The separator is not the delimiter, so unquoted fields are ungrouped too.
		{"unquoted", "2020-01-02,AAPL,0.8,1'234'567", "2020-01-02,AAPL,0.8,1234567"},
		{"delimiter untouched", "2020-01-02,AAPL,0.8,12", "2020-01-02,AAPL,0.8,12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RepairLine(tt.in); got != tt.want {
				t.Errorf("RepairLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepairLineSemicolonDelimiter(t *testing.T) {
	cfg := config.Default().Ingest
	cfg.MessageDelimiter = ";"
	r := NewRepairer(cfg)

	got := r.RepairLine("2020-01-02;AAPL;0.8;1,024")
	want := "2020-01-02;AAPL;0.8;1024"
	if got != want {
		t.Errorf("RepairLine = %q, want %q", got, want)
	}
}

func TestRepairFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AAPL.csv")
	orig := "daet,ticker,positive,tweets\n2020-01-02,AAPL,0.8,\"1,200\"\n2020-01-03,AAPL,0.5,7\n"
	if err := os.WriteFile(path, []byte(orig), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRepairer(config.Default().Ingest)
	changed, err := r.RepairFile(path)
	if err != nil {
		t.Fatalf("RepairFile: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "date,ticker,positive,tweets\n2020-01-02,AAPL,0.8,\"1200\"\n2020-01-03,AAPL,0.5,7\n"
	if string(got) != want {
		t.Errorf("repaired content:\n  got  %q\n  want %q", got, want)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(backup) != orig {
		t.Errorf("backup content = %q, want original %q", backup, orig)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// A second pass is a no-op.
	changed, err = r.RepairFile(path)
	if err != nil {
		t.Fatalf("second RepairFile: %v", err)
	}
	if changed != 0 {
		t.Errorf("second pass changed = %d, want 0", changed)
	}
}

func TestRepairFileMissing(t *testing.T) {
	r := NewRepairer(config.Default().Ingest)
	if _, err := r.RepairFile(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("RepairFile should fail for a missing file")
	}
}
