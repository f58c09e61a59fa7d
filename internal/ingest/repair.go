package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"sentiments/internal/config"
)

// Repairer applies textual fixes to raw message files before they are parsed.
type Repairer struct {
	fixes        [][2]string // (wrong, right), applied in order
	backupSuffix string
	grouped      *regexp.Regexp
	quotedOnly   bool // separator doubles as the field delimiter
}

// NewRepairer builds a Repairer from the ingest configuration. Header fixes
// are applied in lexical order of the misspelled token.
func NewRepairer(cfg config.Ingest) *Repairer {
	wrong := make([]string, 0, len(cfg.HeaderFixes))
	for k := range cfg.HeaderFixes {
		if k != "" {
			wrong = append(wrong, k)
		}
	}
	sort.Strings(wrong)

	fixes := make([][2]string, 0, len(wrong))
	for _, k := range wrong {
		fixes = append(fixes, [2]string{k, cfg.HeaderFixes[k]})
	}

	return &Repairer{
		fixes:        fixes,
		backupSuffix: cfg.BackupSuffix,
		grouped:      regexp.MustCompile(`(\d)` + regexp.QuoteMeta(cfg.ThousandsSep) + `(\d)`),
		quotedOnly:   cfg.ThousandsSep == cfg.MessageDelimiter,
	}
}

// RepairLine returns line with header typos corrected and digit-grouping
// separators removed. When the separator is also the field delimiter only
// quoted fields are ungrouped; elsewhere it splits fields and is left alone.
func (r *Repairer) RepairLine(line string) string {
	for _, f := range r.fixes {
		line = strings.ReplaceAll(line, f[0], f[1])
	}
	if !r.quotedOnly {
		return r.ungroup(line)
	}
	if !strings.Contains(line, `"`) {
		return line
	}

	parts := strings.Split(line, `"`)
	for i := 1; i < len(parts); i += 2 {
		parts[i] = r.ungroup(parts[i])
	}
	return strings.Join(parts, `"`)
}

// ungroup strips separators between digits until none remain. A single pass
// cannot catch "1,234,567" because matches may not overlap.
func (r *Repairer) ungroup(s string) string {
	for {
		next := r.grouped.ReplaceAllString(s, "${1}${2}")
		if next == s {
			return s
		}
		s = next
	}
}

// RepairFile rewrites path in place, keeping the prior content at
// path+BackupSuffix. It returns the number of lines that changed. The new
// content is written to a temporary file and renamed over the original.
func (r *Repairer) RepairFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := os.WriteFile(path+r.backupSuffix, data, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("writing backup of %s: %w", path, err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	changed := 0
	for i, line := range lines {
		fixed := r.RepairLine(line)
		if fixed != line {
			lines[i] = fixed
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strings.Join(lines, "")); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replacing %s: %w", path, err)
	}
	return changed, nil
}
