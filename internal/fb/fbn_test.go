// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the FBN/fb:// URI format
package fb

import (
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

func TestFormatParseFBNRoundTrip(t *testing.T) {
	b, err := block.Create("substance.product", map[string]any{"name": "Sourdough", "price": 4.5}, map[string]any{})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	text, err := Format(b)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	parsed, err := ParseFBN(text)
	if err != nil {
		t.Fatalf("ParseFBN: %v", err)
	}
	if parsed.Hash != b.Hash {
		t.Errorf("round-tripped hash = %s, want %s", parsed.Hash, b.Hash)
	}
	if parsed.Type != b.Type {
		t.Errorf("round-tripped type = %s, want %s", parsed.Type, b.Type)
	}
}

func TestToURIFromURIRoundTrip(t *testing.T) {
	hash := "deadbeef"
	uri := ToURI(hash)
	if uri != "fb://deadbeef" {
		t.Errorf("ToURI = %q, want fb://deadbeef", uri)
	}
	got, err := FromURI(uri)
	if err != nil {
		t.Fatalf("FromURI: %v", err)
	}
	if got != hash {
		t.Errorf("FromURI = %q, want %q", got, hash)
	}
}

func TestFromURIRejectsWrongScheme(t *testing.T) {
	if _, err := FromURI("http://example.com/deadbeef"); err == nil {
		t.Error("expected an error for a non-fb:// URI")
	}
}

func TestFromURIRejectsEmptyHash(t *testing.T) {
	if _, err := FromURI("fb://"); err == nil {
		t.Error("expected an error for an empty hash")
	}
}
