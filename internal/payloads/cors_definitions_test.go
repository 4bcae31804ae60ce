package payloads

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func origins(cases []CORSTestCase) []string {
	out := make([]string, 0, len(cases))
	for _, tc := range cases {
		out = append(out, tc.OriginHeader)
	}
	return out
}

func TestCORSTests(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		attacker string
		want     []string
	}{
		{
			name:     "HTTPS target",
			target:   "https://App.Example.com/api/me",
			attacker: "evil.test",
			want: []string{
				"null",
				"https://evil.test",
				"https://app.example.com.evil.test",
				"http://app.example.com",
			},
		},
		{
			name:     "Plain HTTP target drops its own origin",
			target:   "http://app.example.com/",
			attacker: ".evil.test.",
			want: []string{
				"null",
				"https://evil.test",
				"https://app.example.com.evil.test",
			},
		},
		{
			name:     "Plain HTTP target on a custom port keeps the downgrade probe",
			target:   "http://127.0.0.1:8080/",
			attacker: "evil.test",
			want: []string{
				"null",
				"https://evil.test",
				"https://127.0.0.1.evil.test",
				"http://127.0.0.1",
			},
		},
		{
			name:     "IPv6 target keeps brackets in the downgrade probe",
			target:   "https://[::1]/",
			attacker: "evil.test",
			want: []string{
				"null",
				"https://evil.test",
				"https://::1.evil.test",
				"http://[::1]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, origins(CORSTests(u, tt.attacker)))
		})
	}
}

func TestCORSTests_NamesAndDescriptions(t *testing.T) {
	u, err := url.Parse("https://app.example.com")
	require.NoError(t, err)

	for _, tc := range CORSTests(u, "evil.test") {
		assert.NotEmpty(t, tc.Name)
		assert.NotEmpty(t, tc.Description)
	}
}

func TestOrigin(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a?b=c":     "https://example.com",
		"HTTPS://Example.COM:443/":      "https://example.com",
		"http://example.com:80":         "http://example.com",
		"http://example.com:8080/x":     "http://example.com:8080",
		"https://[::1]:8443/":           "https://[::1]:8443",
		"https://user:pw@example.com/p": "https://example.com",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			u, err := url.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, want, Origin(u))
		})
	}
}
