package cors

import (
	"Corsgo/internal/payloads"
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Probe is one request sent to detect how the target answers cross-origin reads.
type Probe struct {
	URL       string
	Method    string
	Name      string
	Origin    string
	HasOrigin bool // false for the baseline probe
}

// Request builds the HTTP request for the probe, bound to ctx.
func (p Probe) Request(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, nil)
	if err != nil {
		return nil, err
	}
	if p.HasOrigin {
		req.Header.Set("Origin", p.Origin)
	}
	return req, nil
}

// BuildProbes returns the probes for target in the order they are sent: the
// optional baseline without an Origin header, then one probe per attacker origin.
func BuildProbes(target *url.URL, method string, opts Options) []Probe {
	opts = opts.withDefaults()
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = opts.Method
	}

	var probes []Probe
	if opts.Baseline {
		probes = append(probes, Probe{URL: target.String(), Method: method, Name: "baseline"})
	}
	for _, tc := range payloads.CORSTests(target, opts.AttackerDomain) {
		probes = append(probes, Probe{
			URL:       target.String(),
			Method:    method,
			Name:      tc.Name,
			Origin:    tc.OriginHeader,
			HasOrigin: true,
		})
	}
	return probes
}
