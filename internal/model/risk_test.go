package model

import "testing"

func TestRiskLevelForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		score float64
		want  RiskLevel
	}{
		{name: "zero is low", score: 0, want: RiskLow},
		{name: "just below medium band", score: 14.9, want: RiskLow},
		{name: "medium band edge", score: 15, want: RiskMedium},
		{name: "just below high band", score: 39.9, want: RiskMedium},
		{name: "high band edge", score: 40, want: RiskHigh},
		{name: "just below critical band", score: 69.9, want: RiskHigh},
		{name: "critical band edge", score: 70, want: RiskCritical},
		{name: "max score", score: 100, want: RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RiskLevelForScore(tt.score); got != tt.want {
				t.Errorf("RiskLevelForScore(%v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}

func TestCalculateRiskLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		emailBreached   bool
		passwordExposed bool
		breachCount     int
		exposureCount   int
		want            RiskLevel
	}{
		{name: "nothing found", want: RiskLow},
		{name: "email only few breaches", emailBreached: true, breachCount: 2, want: RiskMedium},
		{name: "email only many breaches", emailBreached: true, breachCount: 5, want: RiskHigh},
		{name: "password only", passwordExposed: true, exposureCount: 3, want: RiskHigh},
		{name: "both with low counts", emailBreached: true, passwordExposed: true, breachCount: 2, exposureCount: 10, want: RiskHigh},
		{name: "both with heavy password exposure", emailBreached: true, passwordExposed: true, breachCount: 2, exposureCount: 101, want: RiskCritical},
		{name: "both with many breaches", emailBreached: true, passwordExposed: true, breachCount: 5, exposureCount: 1, want: RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CalculateRiskLevel(tt.emailBreached, tt.passwordExposed, tt.breachCount, tt.exposureCount)
			if got != tt.want {
				t.Errorf("CalculateRiskLevel(%v, %v, %d, %d) = %v, want %v",
					tt.emailBreached, tt.passwordExposed, tt.breachCount, tt.exposureCount, got, tt.want)
			}
		})
	}
}

func TestRiskLevelStrings(t *testing.T) {
	t.Parallel()

	if got := RiskCritical.String(); got != "CRITICAL" {
		t.Errorf("expected CRITICAL, got %q", got)
	}
	if got := RiskLow.Description(); got != "No significant exposure detected" {
		t.Errorf("unexpected description: %q", got)
	}
}
