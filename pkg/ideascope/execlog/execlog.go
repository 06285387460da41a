// Package execlog reads the accuracy lines that generated experiments print
// at the end of their logs and tallies which proposed methods beat the baseline.
package execlog

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Missing marks a score that was absent or unparsable.
const Missing = -1.0

// tailLines is how many trailing non-empty lines are searched for scores.
const tailLines = 3

// Scores holds the three accuracies reported by one experiment.
type Scores struct {
	Name     string  `json:"name,omitempty"`
	Baseline float64 `json:"baseline"`
	Proposed float64 `json:"proposed"`
	Style    float64 `json:"style"`
}

// Complete reports whether every score was found.
func (s Scores) Complete() bool {
	return s.Baseline != Missing && s.Proposed != Missing && s.Style != Missing
}

// Passed reports whether the proposed method beat the baseline.
func (s Scores) Passed() bool {
	return s.Complete() && s.Proposed > s.Baseline
}

// Parse scans r and extracts scores from its last three non-empty lines. A line
// contributes when its key contains "baseline", "proposed" or "style"
// (case-insensitive) and its value after the first colon parses as a float.
func Parse(r io.Reader) (Scores, error) {
	var tail []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return Scores{}, fmt.Errorf("scan log: %w", err)
	}

	s := Scores{Baseline: Missing, Proposed: Missing, Style: Missing}
	for _, line := range tail {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		key = strings.ToLower(key)
		switch {
		case strings.Contains(key, "baseline"):
			s.Baseline = v
		case strings.Contains(key, "proposed"):
			s.Proposed = v
		case strings.Contains(key, "style"):
			s.Style = v
		}
	}
	return s, nil
}

// ParseFile parses one log file; the file's base name becomes Scores.Name.
func ParseFile(path string) (Scores, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scores{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return Scores{}, fmt.Errorf("%s: %w", path, err)
	}
	s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return s, nil
}

// ParseDir parses every *.log file in dir in name order. Unreadable files are
// logged and skipped.
func ParseDir(dir string) ([]Scores, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return nil, fmt.Errorf("glob logs: %w", err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	sort.Strings(paths)

	out := make([]Scores, 0, len(paths))
	for _, p := range paths {
		s, err := ParseFile(p)
		if err != nil {
			log.Printf("[EXECLOG] skipping %s: %v", p, err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Tally counts outcomes over a set of parsed logs.
type Tally struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Excluded int `json:"excluded"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
}

// Count tallies scores. Records with any missing score are excluded.
func Count(scores []Scores) Tally {
	t := Tally{Total: len(scores)}
	for _, s := range scores {
		if !s.Complete() {
			t.Excluded++
			continue
		}
		t.Valid++
		if s.Passed() {
			t.Passed++
		} else {
			t.Failed++
		}
	}
	return t
}

// PassRate is Passed/Valid, or 0 when nothing was valid.
func (t Tally) PassRate() float64 {
	if t.Valid == 0 {
		return 0
	}
	return float64(t.Passed) / float64(t.Valid)
}

func (t Tally) String() string {
	return fmt.Sprintf("total: %d, valid: %d, excluded: %d, passed: %d, failed: %d, pass rate: %.2f%%",
		t.Total, t.Valid, t.Excluded, t.Passed, t.Failed, 100*t.PassRate())
}
