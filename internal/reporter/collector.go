package reporter

import (
	"Corsgo/internal/logger"
	"Corsgo/internal/scanner"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var numericSegment = regexp.MustCompile(`\d+`)

// Collector receives findings from the scanners, drops duplicates and logs
// each new one. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	log      *logger.Logger
	seen     map[string]int // dedup key -> index in findings
	findings []scanner.VulnerabilityResult
}

var severityRank = map[string]int{
	"none":     0,
	"info":     1,
	"low":      2,
	"medium":   3,
	"high":     4,
	"critical": 5,
}

func rank(severity string) int {
	return severityRank[strings.ToLower(strings.TrimSpace(severity))]
}

// NewCollector creates a Collector. log may be nil.
func NewCollector(log *logger.Logger) *Collector {
	return &Collector{log: log, seen: make(map[string]int)}
}

// Raise records a finding unless an equivalent one was already recorded. When the
// equivalent one has a lower severity it is replaced in place, so the result does not
// depend on the order the workers finish in.
func (c *Collector) Raise(vuln scanner.VulnerabilityResult) {
	key := dedupKey(vuln)

	c.mu.Lock()
	if i, exists := c.seen[key]; exists {
		if rank(vuln.Severity) <= rank(c.findings[i].Severity) {
			c.mu.Unlock()
			return
		}
		previous := c.findings[i].Severity
		c.findings[i] = vuln
		c.mu.Unlock()
		if c.log != nil {
			c.log.Debug("Upgraded %s on %s from %s to %s", vuln.VulnerabilityType, vuln.URL, previous, vuln.Severity)
		}
	} else {
		c.seen[key] = len(c.findings)
		c.findings = append(c.findings, vuln)
		c.mu.Unlock()
	}

	if c.log == nil {
		return
	}
	c.log.Success("--------------------------------------------------")
	c.log.Success("Vulnerability Found: %s", vuln.VulnerabilityType)
	c.log.Success("  URL: %s", vuln.URL)
	if vuln.Payload != "" {
		c.log.Success("  Payload/Info: %s", vuln.Payload)
	}
	if vuln.Classification != "" {
		c.log.Success("  Classification: %s", vuln.Classification)
	}
	if vuln.Severity != "" {
		c.log.Success("  Severity: %s", vuln.Severity)
	}
	if vuln.Evidence != "" {
		c.log.Success("  Evidence: %s", vuln.Evidence)
	}
	c.log.Success("  Details: %s", vuln.Details)
}

// Findings returns the recorded findings in arrival order. An upgraded finding keeps
// the position of the one it replaced.
func (c *Collector) Findings() []scanner.VulnerabilityResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]scanner.VulnerabilityResult, len(c.findings))
	copy(out, c.findings)
	return out
}

// dedupKey groups findings on rewritten URLs such as /product/1 and /product/2.
func dedupKey(vuln scanner.VulnerabilityResult) string {
	if u, err := url.Parse(vuln.URL); err == nil {
		return fmt.Sprintf("%s|%s://%s|%s|%s|%s", vuln.VulnerabilityType, strings.ToLower(u.Scheme), u.Host, normalizePathForDeduplication(u.Path), vuln.Method, vuln.Parameter)
	}
	return fmt.Sprintf("%s|%s|%s|%s", vuln.VulnerabilityType, vuln.URL, vuln.Method, vuln.Parameter)
}

// normalizePathForDeduplication replaces numeric parts of a URL path with a placeholder.
func normalizePathForDeduplication(path string) string {
	return numericSegment.ReplaceAllString(path, "{ID}")
}
