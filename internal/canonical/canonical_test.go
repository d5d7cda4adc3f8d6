// Copyright 2026 FoodBlock Protocol
//
// Unit tests for canonical encoding
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
)

// TestEncodeKeyOrdering checks that object keys are sorted at every nesting
// depth regardless of insertion order, per §4.1 rule 1.
func TestEncodeKeyOrdering(t *testing.T) {
	state := map[string]any{"b": 1.0, "a": map[string]any{"z": 1.0, "y": 2.0}}
	got, err := Encode("substance.product", state, map[string]any{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"refs":{},"state":{"a":{"y":2,"z":1},"b":1},"type":"substance.product"}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// TestEncodeNullOmission covers §4.1 rule 5.
func TestEncodeNullOmission(t *testing.T) {
	state := map[string]any{"a": nil, "b": 1.0, "c": []any{1.0, nil, 2.0}}
	got, err := Encode("t", state, map[string]any{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"refs":{},"state":{"b":1,"c":[1,2]},"type":"t"}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// TestEncodeRefsArraySorting covers §4.1 rule 6: refs arrays are sorted
// (set semantics); state arrays preserve declared order.
func TestEncodeRefsArraySorting(t *testing.T) {
	refs := map[string]any{"tags": []any{"zzz", "aaa", "mmm"}}
	state := map[string]any{"tags": []any{"zzz", "aaa", "mmm"}}
	got, err := Encode("t", state, refs)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"refs":{"tags":["aaa","mmm","zzz"]},"state":{"tags":["zzz","aaa","mmm"]},"type":"t"}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// TestEncodeNumbers covers §4.1 rule 3 and §8.3's numeric boundary cases.
func TestEncodeNumbers(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{200.0, "200"},
		{-0.0, "0"},
		{0.0, "0"},
		{1e3, "1000"},
		{0.001, "0.001"},
		{4.5, "4.5"},
		{-4.5, "-4.5"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123e25, "1.23e+27"},
	}
	for _, c := range cases {
		got, err := formatECMANumber(c.in)
		if err != nil {
			t.Fatalf("formatECMANumber(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("formatECMANumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEncodeNonFiniteRejected(t *testing.T) {
	_, err := Encode("t", map[string]any{"x": nan()}, map[string]any{})
	if err == nil {
		t.Fatal("expected error encoding NaN")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// TestEncodeNFC covers §4.1 rule 4 / §8.3: precomposed and decomposed forms
// of the same character hash identically.
func TestEncodeNFC(t *testing.T) {
	precomposed := "café"  // U+00E9 precomposed
	decomposed := "café" // e + U+0301 combining acute accent
	a, err := Encode("t", map[string]any{"name": precomposed}, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode("t", map[string]any{"name": decomposed}, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("NFC forms diverged: %s vs %s", a, b)
	}
}

// TestEncodeIdempotent re-derives the property from §8.1: canonicalizing
// already-canonical bytes (reparsed into the same Go value shape) yields the
// same bytes again.
func TestEncodeIdempotent(t *testing.T) {
	state := map[string]any{"name": "Sourdough", "price": 4.5}
	refs := map[string]any{"seller": "abc123"}
	first, err := Encode("substance.product", state, refs)
	if err != nil {
		t.Fatal(err)
	}
	var reparsed struct {
		Type  string         `json:"type"`
		State map[string]any `json:"state"`
		Refs  map[string]any `json:"refs"`
	}
	if err := json.Unmarshal(first, &reparsed); err != nil {
		t.Fatal(err)
	}
	second, err := Encode(reparsed.Type, reparsed.State, reparsed.Refs)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("not idempotent: %s vs %s", first, second)
	}
}

// TestHashDeterminism is a minimal stand-in for the shared cross-language
// vector fixture referenced in §4.1/§8.1: the same logical block always
// hashes to the same 64-hex digest.
func TestHashDeterminism(t *testing.T) {
	state := map[string]any{"name": "Sourdough", "price": 4.5}
	encoded, err := Encode("substance.product", state, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(encoded)
	got := hex.EncodeToString(sum[:])
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
	// Re-encoding the logically identical value (different key order,
	// same content) must hash identically.
	state2 := map[string]any{"price": 4.5, "name": "Sourdough"}
	encoded2, err := Encode("substance.product", state2, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	sum2 := sha256.Sum256(encoded2)
	if hex.EncodeToString(sum2[:]) != got {
		t.Fatal("hash not invariant under key-order permutation")
	}
}
