// Copyright 2026 FoodBlock Protocol
//
// Natural-language entry point for block authoring
// Package fb implements the natural-language entry point (§4.10): a pure
// function from free text to a dependency-ordered list of blocks, kept
// free of I/O so it is trivially testable (§9 "coroutine-style natural-
// language flow... keep it pure"). Grounded on internal/block's Create,
// reused here exactly as any other block producer would use it.
package fb

import (
	"strings"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

// Result is the §4.10 fb() return value.
type Result struct {
	Blocks     []*block.Block
	Primary    *block.Block
	Type       string
	State      map[string]any
	Refs       map[string]any
	Text       string
	Confidence float64
}

// sellingVerbs mark the split point between a seller phrase and the
// thing being sold ("Joe's Bakery sells Sourdough..." -> venue | product).
var sellingVerbs = map[string]bool{"sells": true, "selling": true, "sold": true, "offers": true}

// Parse runs the full §4.10 pipeline: tokenize, score intents, extract
// values and relations, and emit a dependency-ordered block list.
func Parse(text string) (*Result, error) {
	tokens := Tokenize(text)
	scored := ScoreIntents(tokens)

	intent := IntentProduct
	confidence := 0.4
	if len(scored) > 0 {
		intent = scored[0].intent
		confidence = Confidence(scored[0].matched)
	}

	vocabs := BuiltinVocabularies()
	state := map[string]any{}
	for k, v := range extractBooleans(tokens) {
		state[k] = v
	}
	if amount, currency, ok := extractPrice(tokens); ok {
		state["price"] = amount
		state["currency"] = currency
	}
	if value, unit, ok := extractQuantity(tokens); ok {
		state["quantity"] = map[string]any{"value": value, "unit": unit}
	}
	for _, t := range tokens {
		field, ok := resolveField(vocabs, strings.ToLower(t))
		if !ok || field == "name" {
			continue // name comes from the proper-noun/verb-split extraction below
		}
		if _, exists := state[field]; !exists {
			state[field] = true
		}
	}

	verbAt := -1
	for i, t := range tokens {
		if sellingVerbs[strings.ToLower(t)] {
			verbAt = i
			break
		}
	}

	var venueName, name string
	if verbAt >= 0 {
		venueName, _ = extractProperNounPhrase(tokens, 0)
		name = firstContentPhrase(tokens[verbAt+1:])
	} else {
		name = primaryNoun(tokens, intentType[intent])
	}
	if name != "" {
		state["name"] = name
	}

	var blocks []*block.Block
	refs := map[string]any{}

	if intent == IntentProduct && venueName != "" && venueName != name {
		venueState := map[string]any{"name": venueName}
		vb, err := block.Create("actor.venue", venueState, map[string]any{})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, vb)
		refs["seller"] = vb.Hash
	}

	primaryType := intentType[intent]
	primary, err := block.Create(primaryType, state, refs)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, primary)

	return &Result{
		Blocks:     blocks,
		Primary:    primary,
		Type:       primaryType,
		State:      state,
		Refs:       refs,
		Text:       text,
		Confidence: confidence,
	}, nil
}

// firstContentPhrase returns the first proper-noun phrase in tokens, or
// else the first token that isn't a number, stopword, currency marker,
// unit, or boolean adjective.
func firstContentPhrase(tokens []string) string {
	if phrase, n := extractProperNounPhrase(tokens, 0); n > 0 {
		return phrase
	}
	for _, t := range tokens {
		if numberRe.MatchString(t) || stopwords[strings.ToLower(t)] {
			continue
		}
		if r := []rune(t); len(r) > 0 {
			if _, isCurrency := currencyCode[r[0]]; isCurrency {
				continue
			}
		}
		if _, isUnit := unitWords[strings.ToLower(t)]; isUnit {
			continue
		}
		if booleanAdjectives[strings.ToLower(t)] != "" {
			continue
		}
		return t
	}
	return ""
}

// extractProperNouns collects every distinct proper-noun phrase found in
// tokens, in order of first appearance (§4.10 step 4).
func extractProperNouns(tokens []string) []string {
	var out []string
	seen := map[string]bool{}
	for i := 0; i < len(tokens); {
		phrase, n := extractProperNounPhrase(tokens, i)
		if n == 0 {
			i++
			continue
		}
		if !seen[phrase] {
			seen[phrase] = true
			out = append(out, phrase)
		}
		i += n
	}
	return out
}

// primaryNoun picks the entity name the primary block should carry: for
// actor-shaped intents (venue/producer/agent) it's the first proper noun;
// for product-shaped intents it's the first common noun the vocabulary
// doesn't otherwise claim, approximated here as the first non-proper,
// non-numeric, non-stopword token.
func primaryNoun(tokens []string, blockType string) string {
	if strings.HasPrefix(blockType, "actor.") {
		nouns := extractProperNouns(tokens)
		if len(nouns) > 0 {
			return nouns[0]
		}
		return ""
	}
	for _, t := range tokens {
		if isProperNounShape(t) || numberRe.MatchString(t) || stopwords[strings.ToLower(t)] {
			continue
		}
		if _, isCurrency := currencyCode[[]rune(t)[0]]; isCurrency {
			continue
		}
		if _, isUnit := unitWords[strings.ToLower(t)]; isUnit {
			continue
		}
		if booleanAdjectives[strings.ToLower(t)] != "" {
			continue
		}
		if t == "sells" || t == "for" || t == "selling" {
			continue
		}
		return t
	}
	return ""
}
