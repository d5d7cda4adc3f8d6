// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the trust score projection
package projection

import "testing"

func TestTrustWeightsScore(t *testing.T) {
	w := TrustWeights{Authority: 2, Reviews: 3, Depth: 1, Orders: 4, Age: 0.5}
	in := TrustInputs{
		ValidAuthorityCerts:    2,
		IndependentPeerReviews: 0.8,
		EffectiveChainDepth:    5,
		VerifiedOrderCount:     1,
		AccountAgeDays:         10,
	}
	want := 2*2.0 + 3*0.8 + 1*5.0 + 4*1.0 + 0.5*10.0
	if got := w.Score(in); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDefaultTrustWeights(t *testing.T) {
	if DefaultTrustWeights.Authority != 3.0 || DefaultTrustWeights.Reviews != 1.0 ||
		DefaultTrustWeights.Depth != 2.0 || DefaultTrustWeights.Orders != 1.5 ||
		DefaultTrustWeights.Age != 0.5 {
		t.Errorf("unexpected default weights: %+v", DefaultTrustWeights)
	}
}

func TestParseTimeValid(t *testing.T) {
	got, ok := parseTime("2024-01-15T12:00:00Z")
	if !ok {
		t.Fatal("expected parseTime to succeed on an RFC3339 string")
	}
	if got.Year() != 2024 || got.Month() != 1 || got.Day() != 15 {
		t.Errorf("unexpected parsed time: %v", got)
	}
}

func TestParseTimeRejectsNonString(t *testing.T) {
	if _, ok := parseTime(42.0); ok {
		t.Error("expected parseTime to reject a non-string value")
	}
}

func TestParseTimeRejectsMalformed(t *testing.T) {
	if _, ok := parseTime("not-a-timestamp"); ok {
		t.Error("expected parseTime to reject a malformed timestamp")
	}
}
