package cors

// Evidence is what the alert emitter needs to describe a verdict.
type Evidence struct {
	URL                 string
	Method              string
	Probe               string
	SentOrigin          string
	OriginSent          bool
	AllowOrigin         string
	HasAllowOrigin      bool
	AllowCredentials    string
	HasAllowCredentials bool
	Classification      Classification
	Credentialed        bool
}

// Verdict is the outcome of the rule for one target.
type Verdict struct {
	Risk     Risk
	Evidence Evidence
}

// AlertWorthy reports whether the verdict should be raised.
func (v Verdict) AlertWorthy() bool {
	return v.Risk > RiskNone
}

// Decide classifies one probe response and evaluates its risk.
func Decide(p Probe, h Headers) Verdict {
	c := Classify(p, h)
	credentialed := Credentialed(h)
	return Verdict{
		Risk: Evaluate(c, credentialed),
		Evidence: Evidence{
			URL:                 p.URL,
			Method:              p.Method,
			Probe:               p.Name,
			SentOrigin:          p.Origin,
			OriginSent:          p.HasOrigin,
			AllowOrigin:         h.AllowOrigin,
			HasAllowOrigin:      h.HasAllowOrigin,
			AllowCredentials:    h.AllowCredentials,
			HasAllowCredentials: h.HasAllowCredentials,
			Classification:      c,
			Credentialed:        credentialed,
		},
	}
}
