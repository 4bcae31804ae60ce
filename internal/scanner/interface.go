package scanner

import (
	"Corsgo/internal/logger"
	"context"
	"net/http"
)

// Target is one endpoint handed to the scanners.
type Target struct {
	URL    string
	Method string
}

// Doer sends a single HTTP request. *httpclient.Client satisfies it; tests plug in
// simulated servers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scanner is implemented by every vulnerability rule.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, target Target, client Doer, log *logger.Logger, opts ScannerOptions) ([]VulnerabilityResult, error)
}

// Emitter receives findings as soon as a scanner produces them. Implementations
// must be safe for concurrent use.
type Emitter interface {
	Raise(finding VulnerabilityResult)
}

// ScannerOptions carries the run-wide settings shared by all scanners.
type ScannerOptions struct {
	Concurrency int  // Number of concurrent scan workers.
	Progress    bool // Show a spinner on stdout while scanning.
}
