package model

// RiskLevel summarizes overall exposure for user-facing output.
type RiskLevel int

const (
	// RiskLow indicates no significant exposure was detected.
	RiskLow RiskLevel = iota

	// RiskMedium indicates some exposure; action is recommended.
	RiskMedium

	// RiskHigh indicates significant exposure; immediate action is required.
	RiskHigh

	// RiskCritical indicates severe exposure; urgent action is required.
	RiskCritical
)

// String returns a human-readable representation of the risk level.
func (l RiskLevel) String() string {
	switch l {
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "LOW"
	}
}

// Description returns a one-line explanation suitable for reports.
func (l RiskLevel) Description() string {
	switch l {
	case RiskMedium:
		return "Some exposure detected, action recommended"
	case RiskHigh:
		return "Significant exposure detected, immediate action required"
	case RiskCritical:
		return "Severe exposure detected, urgent action required"
	default:
		return "No significant exposure detected"
	}
}

// RiskLevelForScore maps a 0-100 risk score onto a level.
// The bands match the score weights in the correlation engine: a single old
// breach (5) is LOW, a couple of corroborated breaches reach MEDIUM, recent
// or sensitive exposure pushes into HIGH and CRITICAL.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 40:
		return RiskHigh
	case score >= 15:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CalculateRiskLevel combines an email breach check and a password exposure
// check into one overall level. Used by the scan command, which runs both.
func CalculateRiskLevel(emailBreached, passwordExposed bool, breachCount, exposureCount int) RiskLevel {
	switch {
	case passwordExposed && emailBreached:
		if exposureCount > 100 || breachCount >= 5 {
			return RiskCritical
		}
		return RiskHigh
	case passwordExposed:
		return RiskHigh
	case emailBreached:
		if breachCount >= 5 {
			return RiskHigh
		}
		return RiskMedium
	default:
		return RiskLow
	}
}
