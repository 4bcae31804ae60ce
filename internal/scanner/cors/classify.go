package cors

import (
	"net/http"
	"strings"
)

const (
	headerAllowOrigin      = "Access-Control-Allow-Origin"
	headerAllowCredentials = "Access-Control-Allow-Credentials"
)

// Headers are the CORS response headers of one probe. Presence is tracked apart
// from the value because an empty header is still a header.
type Headers struct {
	AllowOrigin         string
	HasAllowOrigin      bool
	AllowCredentials    string
	HasAllowCredentials bool
}

// HeadersFrom extracts the CORS headers from h. When a header is repeated the
// first value is used.
func HeadersFrom(h http.Header) Headers {
	var out Headers
	if v, ok := h[headerAllowOrigin]; ok && len(v) > 0 {
		out.AllowOrigin, out.HasAllowOrigin = v[0], true
	}
	if v, ok := h[headerAllowCredentials]; ok && len(v) > 0 {
		out.AllowCredentials, out.HasAllowCredentials = v[0], true
	}
	return out
}

// Kind is the CORS posture derived from Access-Control-Allow-Origin.
type Kind int

const (
	NoCors Kind = iota
	StaticValue
	Reflected
	Wildcard
	NullOrigin
)

func (k Kind) String() string {
	switch k {
	case NoCors:
		return "NoCors"
	case StaticValue:
		return "StaticValue"
	case Reflected:
		return "Reflected"
	case Wildcard:
		return "Wildcard"
	case NullOrigin:
		return "NullOrigin"
	default:
		return "Unknown"
	}
}

// Classification is the result of Classify. Value holds the allow-origin value
// for StaticValue and is empty otherwise.
type Classification struct {
	Kind  Kind
	Value string
}

func (c Classification) String() string {
	if c.Kind == StaticValue {
		return "StaticValue(" + c.Value + ")"
	}
	return c.Kind.String()
}

// Classify derives the CORS posture from the origin the probe sent and the
// allow-origin header the server returned. It is total over all inputs.
func Classify(p Probe, h Headers) Classification {
	switch {
	case !h.HasAllowOrigin:
		return Classification{Kind: NoCors}
	case h.AllowOrigin == "*":
		return Classification{Kind: Wildcard}
	case h.AllowOrigin == "null":
		return Classification{Kind: NullOrigin}
	case p.HasOrigin && h.AllowOrigin == p.Origin:
		return Classification{Kind: Reflected}
	default:
		return Classification{Kind: StaticValue, Value: h.AllowOrigin}
	}
}

// Credentialed reports whether the response allows credentialed reads.
func Credentialed(h Headers) bool {
	return h.HasAllowCredentials && strings.ToLower(strings.TrimSpace(h.AllowCredentials)) == "true"
}
