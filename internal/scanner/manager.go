package scanner

import (
	"Corsgo/internal/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Manager orchestrates the execution of multiple scanners.
// It manages a collection of registered scanners and runs them against a set of targets.
type Manager struct {
	scanners   []Scanner
	httpClient Doer
	logger     *logger.Logger
	options    ScannerOptions
}

// NewManager creates a new scanner manager.
func NewManager(client Doer, log *logger.Logger, opts ScannerOptions) *Manager {
	return &Manager{
		httpClient: client,
		logger:     log,
		options:    opts,
		scanners:   make([]Scanner, 0),
	}
}

// RegisterScanner adds a scanner to the manager.
func (m *Manager) RegisterScanner(s Scanner) {
	m.scanners = append(m.scanners, s)
	m.logger.Debug("ScannerManager: Registered scanner: %s", s.Name())
}

// GetRegisteredScanners returns a slice of registered scanners.
func (m *Manager) GetRegisteredScanners() []Scanner {
	return m.scanners
}

// RunScans executes all registered scanners against every unique target.
// A scanner failing on one target never affects the others. Once ctx is cancelled no
// new target is started and results of scans interrupted by the cancellation are
// dropped. Findings are raised on emitter (when non-nil) and also returned.
func (m *Manager) RunScans(ctx context.Context, targets []Target, emitter Emitter) []VulnerabilityResult {
	targets = uniqueTargets(targets)
	if len(m.scanners) == 0 || len(targets) == 0 {
		return nil
	}

	m.logger.Info("ScannerManager: Starting vulnerability scanning on %d targets...", len(targets))
	var allFindings []VulnerabilityResult
	var findingsMu sync.Mutex

	numWorkers := m.options.Concurrency
	if numWorkers > len(targets) {
		numWorkers = len(targets)
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	m.logger.Debug("ScannerManager: Initializing %d worker(s).", numWorkers)

	stopSpinner := func() {}
	if m.options.Progress {
		stopSpinner = startSpinner()
	}

	var g errgroup.Group
	g.SetLimit(numWorkers)

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		target := target
		g.Go(func() error {
			for _, s := range m.scanners {
				if ctx.Err() != nil {
					return nil
				}
				findings, err := s.Scan(ctx, target, m.httpClient, m.logger, m.options)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						m.logger.Debug("Scanner %s abandoned %s: %v", s.Name(), target.URL, err)
						return nil
					}
					m.logger.Error("Scanner %s failed for %s: %v", s.Name(), target.URL, err)
					continue
				}
				if ctx.Err() != nil {
					return nil
				}
				if len(findings) == 0 {
					continue
				}
				findingsMu.Lock()
				allFindings = append(allFindings, findings...)
				findingsMu.Unlock()
				if emitter != nil {
					for _, f := range findings {
						emitter.Raise(f)
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	stopSpinner()

	if ctx.Err() != nil {
		m.logger.Warn("ScannerManager: Scan cancelled: %v", ctx.Err())
	}
	m.logger.Info("ScannerManager: All scanning workers finished. Found %d total potential vulnerabilities.", len(allFindings))
	return allFindings
}

// uniqueTargets drops duplicate method+URL pairs, keeping the first occurrence.
func uniqueTargets(targets []Target) []Target {
	seen := make(map[string]struct{}, len(targets))
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		t.URL = strings.TrimSpace(t.URL)
		t.Method = strings.ToUpper(strings.TrimSpace(t.Method))
		if t.Method == "" {
			t.Method = http.MethodGet
		}
		key := t.Method + " " + t.URL
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func startSpinner() func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		spinner := []string{"/", "-", "\\", "|"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Print("\r")
				return
			case <-ticker.C:
				fmt.Printf("\rScanning... %s ", spinner[i])
				i = (i + 1) % len(spinner)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
