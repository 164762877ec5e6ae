package engine

import (
	"sort"

	"github.com/open-policy-agent/opa/cover"
)

// FileCoverage holds the covered and not-covered line sets for one
// policy file, both sorted ascending.
type FileCoverage struct {
	Covered    []int `json:"covered"`
	NotCovered []int `json:"not_covered"`
}

// CoverageReport maps policy name to its line coverage.
type CoverageReport map[string]FileCoverage

// EnableCoverage turns coverage tracking on or off for subsequent
// evaluations. Enabling does not reset previously collected data; use
// ClearCoverage for that.
func (e *Engine) EnableCoverage(enable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.coverEnabled = enable
}

// ClearCoverage discards all collected coverage data.
func (e *Engine) ClearCoverage() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.coverTracer = cover.New()
}

// Coverage returns the per-policy line coverage collected since the
// last ClearCoverage.
func (e *Engine) Coverage() CoverageReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := e.coverTracer.Report(e.modules)

	out := make(CoverageReport, len(report.Files))
	for path, file := range report.Files {
		out[path] = FileCoverage{
			Covered:    expandRanges(file.Covered),
			NotCovered: expandRanges(file.NotCovered),
		}
	}
	return out
}

// expandRanges flattens row ranges into a sorted, deduplicated line list.
func expandRanges(ranges []cover.Range) []int {
	seen := make(map[int]bool)
	for _, r := range ranges {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			seen[row] = true
		}
	}

	lines := make([]int, 0, len(seen))
	for row := range seen {
		lines = append(lines, row)
	}
	sort.Ints(lines)
	return lines
}
