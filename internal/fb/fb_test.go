// Copyright 2026 FoodBlock Protocol
//
// Unit tests for natural-language block authoring
package fb

import "testing"

func TestTokenizeKeepsCurrencyAttachedToNumber(t *testing.T) {
	tokens := Tokenize("Joe's Bakery sells Sourdough for £4.50 organic")
	want := []string{"Joe's", "Bakery", "sells", "Sourdough", "for", "£4.50", "organic"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i, w := range want {
		if tokens[i] != w {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], w)
		}
	}
}

func TestExtractPrice(t *testing.T) {
	tokens := Tokenize("a loaf for £4.50 today")
	amount, currency, ok := extractPrice(tokens)
	if !ok {
		t.Fatal("expected price to be found")
	}
	if amount != 4.5 || currency != "GBP" {
		t.Errorf("got %v %v, want 4.5 GBP", amount, currency)
	}
}

func TestExtractQuantity(t *testing.T) {
	tokens := Tokenize("25 kg of potatoes")
	value, unit, ok := extractQuantity(tokens)
	if !ok || value != 25 || unit != "kg" {
		t.Errorf("got %v %v %v, want 25 kg true", value, unit, ok)
	}
}

func TestScoreIntentsPrefersProductOnSellingLanguage(t *testing.T) {
	tokens := Tokenize("Joe's Bakery sells Sourdough for £4.50 organic")
	scored := ScoreIntents(tokens)
	if len(scored) == 0 {
		t.Fatal("expected at least one scored intent")
	}
	if scored[0].intent != IntentProduct {
		t.Errorf("top intent = %v, want %v", scored[0].intent, IntentProduct)
	}
}

func TestConfidenceClampsAtOne(t *testing.T) {
	if c := Confidence(0); c != 0.4 {
		t.Errorf("Confidence(0) = %v, want 0.4", c)
	}
	if c := Confidence(10); c != 1.0 {
		t.Errorf("Confidence(10) = %v, want 1.0", c)
	}
}

// TestParseVenueSellsProduct exercises the scenario named in §8.4: a
// sentence naming a distinct seller and product should split into a
// seller block referenced by the product block, with the product as
// the primary block.
func TestParseVenueSellsProduct(t *testing.T) {
	result, err := Parse("Joe's Bakery sells Sourdough for £4.50 organic")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if result.Confidence < 0.6 {
		t.Errorf("confidence = %v, want >= 0.6", result.Confidence)
	}
	if result.Type != "substance.product" {
		t.Errorf("primary type = %v, want substance.product", result.Type)
	}
	if result.Primary.Type != "substance.product" {
		t.Errorf("Primary.Type = %v, want substance.product", result.Primary.Type)
	}

	if len(result.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (venue, product)", len(result.Blocks))
	}
	venue := result.Blocks[0]
	if venue.Type != "actor.venue" {
		t.Errorf("first block type = %v, want actor.venue", venue.Type)
	}
	if name, _ := venue.State["name"].(string); name != "Joe's Bakery" {
		t.Errorf("venue name = %v, want Joe's Bakery", venue.State["name"])
	}

	if name, _ := result.State["name"].(string); name != "Sourdough" {
		t.Errorf("product name = %v, want Sourdough", result.State["name"])
	}
	if price, _ := result.State["price"].(float64); price != 4.5 {
		t.Errorf("product price = %v, want 4.5", result.State["price"])
	}
	if currency, _ := result.State["currency"].(string); currency != "GBP" {
		t.Errorf("product currency = %v, want GBP", result.State["currency"])
	}
	if organic, _ := result.State["organic"].(bool); !organic {
		t.Errorf("product organic = %v, want true", result.State["organic"])
	}

	seller, ok := result.Refs["seller"].(string)
	if !ok || seller != venue.Hash {
		t.Errorf("refs.seller = %v, want venue hash %v", result.Refs["seller"], venue.Hash)
	}
}

func TestParseSimpleVenueStatement(t *testing.T) {
	result, err := Parse("Riverside Market is a farmers market")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Type != "actor.venue" {
		t.Errorf("type = %v, want actor.venue", result.Type)
	}
	if name, _ := result.State["name"].(string); name != "Riverside Market" {
		t.Errorf("name = %v, want Riverside Market", result.State["name"])
	}
}
