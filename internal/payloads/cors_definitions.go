package payloads

import (
	"net/url"
	"strings"
)

// CORSTestCase represents a single Origin value sent to detect a CORS misconfiguration.
type CORSTestCase struct {
	// Name is a short identifier used in logs and findings.
	Name string
	// OriginHeader is the value of the Origin header to be sent in the request.
	OriginHeader string
	// Description provides a brief explanation of what is being tested.
	Description string
}

// CORSTests builds the Origin values probed against target, in the order they are sent.
// Cases whose origin equals the target's own origin are left out.
func CORSTests(target *url.URL, attackerDomain string) []CORSTestCase {
	host := strings.ToLower(target.Hostname())
	attackerDomain = strings.ToLower(strings.Trim(attackerDomain, ". "))
	originHost := host
	if strings.Contains(host, ":") {
		originHost = "[" + host + "]"
	}

	cases := []CORSTestCase{
		{
			Name:         "null-origin",
			OriginHeader: "null",
			Description:  "Tests if the server allows the 'null' origin, sent by sandboxed iframes, local files and some redirects.",
		},
		{
			Name:         "arbitrary-origin",
			OriginHeader: "https://" + attackerDomain,
			Description:  "Tests if the server reflects an arbitrary and unrecognized Origin header.",
		},
		{
			Name:         "suffixed-host",
			OriginHeader: "https://" + host + "." + attackerDomain,
			Description:  "Tests for weak checks that only verify the Origin 'starts with' the target host.",
		},
		{
			Name:         "plaintext-host",
			OriginHeader: "http://" + originHost,
			Description:  "Tests if a non-HTTPS origin of the target host is trusted.",
		},
	}

	self := Origin(target)
	out := cases[:0]
	for _, tc := range cases {
		if tc.OriginHeader == self {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// Origin serializes the origin of u the way a browser sends it in the Origin header:
// lower-cased scheme and host, port only when it is not the scheme default.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	port := u.Port()
	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return scheme + "://" + host
	}
	return scheme + "://" + host + ":" + port
}
