package scanner

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Corsgo/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	name  string
	calls int32
	scan  func(ctx context.Context, target Target) ([]VulnerabilityResult, error)
}

func (f *fakeScanner) Name() string { return f.name }

func (f *fakeScanner) Scan(ctx context.Context, target Target, _ Doer, _ *logger.Logger, _ ScannerOptions) ([]VulnerabilityResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.scan(ctx, target)
}

type recordingEmitter struct {
	mu       sync.Mutex
	findings []VulnerabilityResult
}

func (r *recordingEmitter) Raise(f VulnerabilityResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, f)
}

type nopDoer struct{}

func (nopDoer) Do(*http.Request) (*http.Response, error) { return nil, errors.New("not used") }

func TestManager_RunScans(t *testing.T) {
	s := &fakeScanner{
		name: "fake",
		scan: func(_ context.Context, target Target) ([]VulnerabilityResult, error) {
			return []VulnerabilityResult{{VulnerabilityType: "Fake", URL: target.URL, Method: target.Method}}, nil
		},
	}
	m := NewManager(nopDoer{}, logger.Discard(), ScannerOptions{Concurrency: 4})
	m.RegisterScanner(s)
	require.Len(t, m.GetRegisteredScanners(), 1)

	emitter := &recordingEmitter{}
	findings := m.RunScans(context.Background(), []Target{
		{URL: "https://a.example.com"},
		{URL: "https://b.example.com", Method: "get"},
		{URL: "https://a.example.com", Method: "GET"},
		{URL: "https://a.example.com", Method: "OPTIONS"},
	}, emitter)

	assert.Len(t, findings, 3)
	assert.Len(t, emitter.findings, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&s.calls))
	for _, f := range findings {
		assert.NotEmpty(t, f.Method)
	}
}

func TestManager_RunScans_IsolatesFailures(t *testing.T) {
	failing := &fakeScanner{
		name: "failing",
		scan: func(_ context.Context, target Target) ([]VulnerabilityResult, error) {
			if target.URL == "https://broken.example.com" {
				return nil, errors.New("connection reset")
			}
			return []VulnerabilityResult{{URL: target.URL}}, nil
		},
	}
	m := NewManager(nopDoer{}, logger.Discard(), ScannerOptions{Concurrency: 2})
	m.RegisterScanner(failing)

	findings := m.RunScans(context.Background(), []Target{
		{URL: "https://broken.example.com"},
		{URL: "https://ok.example.com"},
	}, nil)

	require.Len(t, findings, 1)
	assert.Equal(t, "https://ok.example.com", findings[0].URL)
}

func TestManager_RunScans_NothingToDo(t *testing.T) {
	m := NewManager(nopDoer{}, logger.Discard(), ScannerOptions{Concurrency: 1})
	assert.Nil(t, m.RunScans(context.Background(), []Target{{URL: "https://a.example.com"}}, nil))

	m.RegisterScanner(&fakeScanner{name: "fake", scan: func(context.Context, Target) ([]VulnerabilityResult, error) {
		return nil, nil
	}})
	assert.Nil(t, m.RunScans(context.Background(), nil, nil))
}

func TestManager_RunScans_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 10)

	s := &fakeScanner{
		name: "slow",
		scan: func(ctx context.Context, target Target) ([]VulnerabilityResult, error) {
			started <- struct{}{}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return []VulnerabilityResult{{URL: target.URL}}, nil
			}
		},
	}
	m := NewManager(nopDoer{}, logger.Discard(), ScannerOptions{Concurrency: 1})
	m.RegisterScanner(s)

	go func() {
		<-started
		cancel()
	}()

	emitter := &recordingEmitter{}
	findings := m.RunScans(ctx, []Target{
		{URL: "https://a.example.com"},
		{URL: "https://b.example.com"},
		{URL: "https://c.example.com"},
	}, emitter)

	assert.Empty(t, findings)
	assert.Empty(t, emitter.findings)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.calls))
}

func TestUniqueTargets(t *testing.T) {
	got := uniqueTargets([]Target{
		{URL: " https://a.example.com "},
		{URL: "https://a.example.com", Method: "get"},
		{URL: "https://a.example.com", Method: "POST"},
	})
	assert.Equal(t, []Target{
		{URL: "https://a.example.com", Method: "GET"},
		{URL: "https://a.example.com", Method: "POST"},
	}, got)
}
