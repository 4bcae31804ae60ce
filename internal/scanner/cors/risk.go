package cors

// Risk is the alert level of a verdict. Levels are ordered.
type Risk int

const (
	RiskNone Risk = iota
	RiskInfo
	RiskMedium
	RiskHigh
)

func (r Risk) String() string {
	switch r {
	case RiskNone:
		return "None"
	case RiskInfo:
		return "Info"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Evaluate maps a classification and the credential flag to a risk.
//
// A wildcard stays Medium with credentials: browsers refuse to expose a
// credentialed response whose allow-origin is "*", so the pair cannot be
// exploited through a compliant browser. Reflected and null origins honour
// credentials and let any page read authenticated responses.
func Evaluate(c Classification, credentialed bool) Risk {
	switch c.Kind {
	case NoCors:
		return RiskNone
	case StaticValue:
		return RiskInfo
	case Wildcard:
		return RiskMedium
	case Reflected, NullOrigin:
		if credentialed {
			return RiskHigh
		}
		return RiskMedium
	default:
		return RiskNone
	}
}
