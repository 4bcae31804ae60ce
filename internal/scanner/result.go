package scanner

// VulnerabilityResult is a single finding reported by a scanner.
type VulnerabilityResult struct {
	VulnerabilityType string            `json:"vulnerability_type"`
	URL               string            `json:"url"`
	Method            string            `json:"method,omitempty"`
	Parameter         string            `json:"parameter,omitempty"`
	Location          string            `json:"location,omitempty"`
	Payload           string            `json:"payload,omitempty"`
	Details           string            `json:"details"`
	Severity          string            `json:"severity"`
	Evidence          string            `json:"evidence,omitempty"`
	Remediation       string            `json:"remediation,omitempty"`
	ScannerName       string            `json:"scanner_name"`
	CWE               string            `json:"cwe,omitempty"`
	Classification    string            `json:"classification,omitempty"`
	ObservedHeaders   map[string]string `json:"observed_headers,omitempty"`
	AIAnalysis        string            `json:"ai_analysis,omitempty"`
}
