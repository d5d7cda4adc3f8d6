// Copyright 2026 FoodBlock Protocol
//
// Intent classification for natural-language input
package fb

import "strings"

// Intent is one of the closed set §4.10 names.
type Intent string

const (
	IntentProduct       Intent = "product"
	IntentVenue         Intent = "venue"
	IntentProducer      Intent = "producer"
	IntentReview        Intent = "review"
	IntentOrder         Intent = "order"
	IntentSurplus       Intent = "surplus"
	IntentCertification Intent = "certification"
	IntentReading       Intent = "sensor_reading"
	IntentTransform     Intent = "transform"
	IntentAgent         Intent = "agent"
)

// intentType maps an Intent to the block type it produces.
var intentType = map[Intent]string{
	IntentProduct:       "substance.product",
	IntentVenue:         "actor.venue",
	IntentProducer:      "actor.producer",
	IntentReview:        "observe.review",
	IntentOrder:         "transfer.order",
	IntentSurplus:       "transfer.surplus",
	IntentCertification: "observe.certification",
	IntentReading:       "observe.reading",
	IntentTransform:     "transform.batch",
	IntentAgent:         "actor.agent",
}

// signals lists the keyword/marker set that raises confidence for each
// intent (§4.10 step 2). Currency and numeric-pattern signals are
// detected structurally, not by keyword, in score().
var signals = map[Intent][]string{
	IntentProduct:       {"sells", "selling", "product", "loaf", "bread", "organic"},
	IntentVenue:         {"bakery", "restaurant", "shop", "store", "market", "venue"},
	IntentProducer:      {"farm", "grower", "producer", "orchard"},
	IntentReview:        {"review", "rated", "stars", "recommend"},
	IntentOrder:         {"order", "bought", "purchase", "buy"},
	IntentSurplus:       {"surplus", "leftover", "excess", "discount"},
	IntentCertification: {"certified", "certification", "accredited"},
	IntentReading:       {"temperature", "humidity", "sensor", "reading"},
	IntentTransform:     {"baked", "processed", "transformed", "batch"},
	IntentAgent:         {"agent", "bot", "automated"},
}

var currencyMarkers = []string{"£", "$", "€"}

// scoreResult is one intent's tally of matched signals.
type scoreResult struct {
	intent  Intent
	matched int
}

// intentOrder is the fixed order intents are scored in; intents with equal
// match counts keep this order in ScoreIntents' result.
var intentOrder = []Intent{
	IntentProduct, IntentVenue, IntentProducer, IntentReview, IntentOrder,
	IntentSurplus, IntentCertification, IntentReading, IntentTransform, IntentAgent,
}

// ScoreIntents scans tokens for each intent's signal set plus the
// structural currency marker, returning every intent with at least one
// match, most-matched first (ties in intentOrder).
func ScoreIntents(tokens []string) []scoreResult {
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}
	joined := strings.Join(lower, " ")

	var results []scoreResult
	for _, intent := range intentOrder {
		words := signals[intent]
		matched := 0
		for _, w := range words {
			if strings.Contains(joined, w) {
				matched++
			}
		}
		if intent == IntentProduct {
			for _, marker := range currencyMarkers {
				if strings.Contains(joined, marker) {
					matched++
				}
			}
		}
		if matched > 0 {
			results = append(results, scoreResult{intent: intent, matched: matched})
		}
	}

	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].matched > results[j-1].matched; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}

// Confidence implements §4.10 step 2's formula.
func Confidence(matchedSignals int) float64 {
	c := 0.4 + 0.2*float64(matchedSignals)
	if c > 1.0 {
		c = 1.0
	}
	return c
}
