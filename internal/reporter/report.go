package reporter

import (
	"Corsgo/internal/scanner"
	"time"

	"github.com/google/uuid"
)

// Report is the JSON document written at the end of a scan.
type Report struct {
	ScanSummary     ScanSummary                   `json:"scan_summary"`
	Vulnerabilities []scanner.VulnerabilityResult `json:"vulnerabilities"`
}

// ScanSummary contains metadata and a summary of the scan.
type ScanSummary struct {
	ScanID          string         `json:"scan_id"`
	Targets         []string       `json:"targets"`
	ScanStartTime   string         `json:"scan_start_time"`
	ScanEndTime     string         `json:"scan_end_time"`
	TotalDuration   string         `json:"total_duration"`
	ScannersRun     []string       `json:"scanners_run"`
	TotalTargets    int            `json:"total_targets"`
	TotalVulnsFound int            `json:"total_vulnerabilities_found"`
	BySeverity      map[string]int `json:"by_severity"`
	Cancelled       bool           `json:"cancelled,omitempty"`
}

// NewReport creates a new report with a fresh scan id.
func NewReport(targets []string, startTime time.Time) *Report {
	return &Report{
		ScanSummary: ScanSummary{
			ScanID:        uuid.NewString(),
			Targets:       targets,
			TotalTargets:  len(targets),
			ScanStartTime: startTime.Format(time.RFC3339),
			BySeverity:    make(map[string]int),
		},
		// Initialize to keep the field from being null in JSON if empty.
		Vulnerabilities: make([]scanner.VulnerabilityResult, 0),
	}
}

// Finalize completes the report with the scan results.
func (r *Report) Finalize(endTime, startTime time.Time, vulns []scanner.VulnerabilityResult, scanners []string, cancelled bool) {
	r.ScanSummary.ScanEndTime = endTime.Format(time.RFC3339)
	r.ScanSummary.TotalDuration = endTime.Sub(startTime).Round(time.Second).String()
	r.ScanSummary.ScannersRun = scanners
	r.ScanSummary.Cancelled = cancelled
	if vulns != nil {
		r.Vulnerabilities = vulns
	}
	r.ScanSummary.TotalVulnsFound = len(r.Vulnerabilities)
	r.ScanSummary.BySeverity = make(map[string]int)
	for _, v := range r.Vulnerabilities {
		r.ScanSummary.BySeverity[v.Severity]++
	}
}
