// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the registry projection
package projection

import (
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/store"
)

func TestWeightsFromPolicyNilFallsBackToDefaults(t *testing.T) {
	got := WeightsFromPolicy(nil)
	if got != DefaultTrustWeights {
		t.Errorf("got %+v, want defaults %+v", got, DefaultTrustWeights)
	}
}

func TestWeightsFromPolicyOverridesPresentFields(t *testing.T) {
	policy := &store.Record{State: map[string]any{
		"authority_weight": 9.0,
		"age_weight":       0.1,
	}}
	got := WeightsFromPolicy(policy)
	if got.Authority != 9.0 {
		t.Errorf("Authority: got %v, want 9.0", got.Authority)
	}
	if got.Age != 0.1 {
		t.Errorf("Age: got %v, want 0.1", got.Age)
	}
	if got.Reviews != DefaultTrustWeights.Reviews || got.Depth != DefaultTrustWeights.Depth || got.Orders != DefaultTrustWeights.Orders {
		t.Errorf("unset fields should keep defaults, got %+v", got)
	}
}

func TestWeightsFromPolicyIgnoresWrongType(t *testing.T) {
	policy := &store.Record{State: map[string]any{"authority_weight": "not-a-number"}}
	got := WeightsFromPolicy(policy)
	if got.Authority != DefaultTrustWeights.Authority {
		t.Errorf("expected default to survive a non-numeric override, got %v", got.Authority)
	}
}
