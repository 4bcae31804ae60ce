package cors

import (
	"Corsgo/internal/logger"
	"Corsgo/internal/scanner"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrEmptyTarget is returned when Evaluate is called without a target.
	ErrEmptyTarget = errors.New("cors: empty target")
	// ErrInvalidTarget is returned for targets that are not absolute http(s) URLs.
	ErrInvalidTarget = errors.New("cors: invalid target")
)

const (
	defaultAttackerDomain = "evil-corsgo.com"
	cwe                   = "CWE-942"
	remediation           = "Do not reflect arbitrary Origin headers or allow the 'null' origin. Validate Origin against an explicit allowlist of trusted origins, send 'Vary: Origin', and never combine 'Access-Control-Allow-Credentials: true' with dynamically computed origins."
	remediationInfo       = "Review the Access-Control-Allow-Origin value and confirm the allowed origin is trusted."
)

// Options configures the probes sent by the rule.
type Options struct {
	AttackerDomain string // domain used to build attacker origins
	Baseline       bool   // send a probe without an Origin header first
	Method         string // HTTP method for probes, GET when empty
}

func (o Options) withDefaults() Options {
	if o.AttackerDomain == "" {
		o.AttackerDomain = defaultAttackerDomain
	}
	if o.Method == "" {
		o.Method = http.MethodGet
	}
	o.Method = strings.ToUpper(o.Method)
	return o
}

// Rule decides whether a target's CORS configuration is exploitable.
// It holds only immutable settings and is safe for concurrent use.
type Rule struct {
	opts Options
}

// NewRule creates a Rule.
func NewRule(opts Options) *Rule {
	return &Rule{opts: opts.withDefaults()}
}

// Evaluate probes target through client and returns the highest-risk verdict
// among the probes. Ties keep the earliest probe. A transport error or a
// cancelled ctx aborts the evaluation and no verdict is returned.
func (r *Rule) Evaluate(ctx context.Context, client scanner.Doer, target string) (Verdict, error) {
	return r.evaluate(ctx, client, scanner.Target{URL: target})
}

func (r *Rule) evaluate(ctx context.Context, client scanner.Doer, target scanner.Target) (Verdict, error) {
	u, err := parseTarget(target.URL)
	if err != nil {
		return Verdict{}, err
	}

	var best Verdict
	for i, p := range BuildProbes(u, target.Method, r.opts) {
		h, err := send(ctx, client, p)
		if err != nil {
			return Verdict{}, fmt.Errorf("probe %s against %s: %w", p.Name, p.URL, err)
		}
		v := Decide(p, h)
		if i == 0 || v.Risk > best.Risk {
			best = v
		}
		if best.Risk == RiskHigh {
			break
		}
	}
	return best, nil
}

func parseTarget(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrEmptyTarget
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidTarget, target)
	}
	return u, nil
}

func send(ctx context.Context, client scanner.Doer, p Probe) (Headers, error) {
	if err := ctx.Err(); err != nil {
		return Headers{}, err
	}
	req, err := p.Request(ctx)
	if err != nil {
		return Headers{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return Headers{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if err := ctx.Err(); err != nil {
		return Headers{}, err
	}
	return HeadersFrom(resp.Header), nil
}

// CORSScanner adapts Rule to the scanner framework.
type CORSScanner struct {
	rule *Rule
}

// NewCORSScanner creates a CORS scanner.
func NewCORSScanner(opts Options) *CORSScanner {
	return &CORSScanner{rule: NewRule(opts)}
}

func (s *CORSScanner) Name() string {
	return "CORS Misconfiguration Scanner"
}

// Scan evaluates target and reports at most one finding. Transport failures are
// logged and yield no finding; cancellation is returned to the caller.
func (s *CORSScanner) Scan(ctx context.Context, target scanner.Target, client scanner.Doer, log *logger.Logger, _ scanner.ScannerOptions) ([]scanner.VulnerabilityResult, error) {
	log.Debug("Running CORS check on: %s", target.URL)

	v, err := s.rule.evaluate(ctx, client, target)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrEmptyTarget) || errors.Is(err, ErrInvalidTarget) {
			return nil, err
		}
		log.Warn("CORS check on %s aborted: %v", target.URL, err)
		return nil, nil
	}

	log.Debug("CORS verdict for %s: %s (%s, credentials=%t)", target.URL, v.Risk, v.Evidence.Classification, v.Evidence.Credentialed)
	if !v.AlertWorthy() {
		return nil, nil
	}
	return []scanner.VulnerabilityResult{s.finding(v)}, nil
}

func (s *CORSScanner) finding(v Verdict) scanner.VulnerabilityResult {
	e := v.Evidence

	observed := map[string]string{}
	if e.HasAllowOrigin {
		observed[headerAllowOrigin] = e.AllowOrigin
	}
	if e.HasAllowCredentials {
		observed[headerAllowCredentials] = e.AllowCredentials
	}

	payload := "(no Origin header)"
	if e.OriginSent {
		payload = "Origin: " + e.SentOrigin
	}

	evidence := fmt.Sprintf("%s: %s", headerAllowOrigin, e.AllowOrigin)
	if e.HasAllowCredentials {
		evidence += fmt.Sprintf(", %s: %s", headerAllowCredentials, e.AllowCredentials)
	}

	result := scanner.VulnerabilityResult{
		VulnerabilityType: "CORS Misconfiguration",
		URL:               e.URL,
		Method:            e.Method,
		Location:          "header",
		Payload:           payload,
		Details:           details(v),
		Severity:          v.Risk.String(),
		Evidence:          evidence,
		Remediation:       remediation,
		ScannerName:       s.Name(),
		CWE:               cwe,
		Classification:    e.Classification.String(),
		ObservedHeaders:   observed,
	}
	if v.Risk == RiskInfo {
		result.VulnerabilityType = "CORS Header"
		result.Remediation = remediationInfo
	}
	return result
}

func details(v Verdict) string {
	e := v.Evidence
	var d string
	switch e.Classification.Kind {
	case StaticValue:
		d = fmt.Sprintf("Server allows the fixed origin %q. It did not accept the attacker-controlled origins.", e.Classification.Value)
	case Wildcard:
		d = "Server allows all origins ('Access-Control-Allow-Origin: *'). Any site can read unauthenticated responses."
		if e.Credentialed {
			d += " Credentials are also allowed, but browsers ignore 'Access-Control-Allow-Credentials: true' with a wildcard origin."
		}
	case Reflected:
		d = fmt.Sprintf("Server reflects the arbitrary Origin %q in 'Access-Control-Allow-Origin'.", e.SentOrigin)
	case NullOrigin:
		d = "Server allows the 'null' origin, which any page can obtain through a sandboxed iframe."
	}
	if e.Credentialed && (e.Classification.Kind == Reflected || e.Classification.Kind == NullOrigin) {
		d += " 'Access-Control-Allow-Credentials: true' lets an attacker read authenticated responses."
	}
	return fmt.Sprintf("%s Severity: %s.", d, v.Risk)
}
