// Copyright 2026 FoodBlock Protocol
//
// Tokenizer for natural-language block authoring
package fb

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Tokenize splits text into Unicode-aware words, collapsing whitespace
// and stripping most punctuation while keeping currency symbols attached
// to the number that follows them (§4.10 step 1).
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			flush()
		case isCurrencySymbol(r):
			flush()
			cur.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '\'':
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isCurrencySymbol(r rune) bool {
	return r == '£' || r == '$' || r == '€'
}

var numberRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// currencyCode maps a currency symbol to its ISO code (§4.10 step 3).
var currencyCode = map[rune]string{'£': "GBP", '$': "USD", '€': "EUR"}

// extractPrice scans tokens for a currency-marked number and returns the
// amount plus its currency code.
func extractPrice(tokens []string) (amount float64, currency string, ok bool) {
	for i, t := range tokens {
		r := []rune(t)
		if len(r) == 0 {
			continue
		}
		if code, isCurrency := currencyCode[r[0]]; isCurrency {
			numStr := string(r[1:])
			if numStr == "" && i+1 < len(tokens) {
				numStr = tokens[i+1]
			}
			if numberRe.MatchString(numStr) {
				v, err := strconv.ParseFloat(numStr, 64)
				if err == nil {
					return v, code, true
				}
			}
		}
	}
	return 0, "", false
}

// unitWords recognizes unit-bearing numbers into {value, unit} (§4.10
// step 3).
var unitWords = map[string]string{
	"kg": "kg", "kilograms": "kg", "kilogram": "kg",
	"g": "g", "grams": "g", "gram": "g",
	"lbs": "lb", "lb": "lb", "pounds": "lb",
}

// extractQuantity scans for a number immediately followed by a
// recognized unit word.
func extractQuantity(tokens []string) (value float64, unit string, ok bool) {
	for i := 0; i < len(tokens)-1; i++ {
		if !numberRe.MatchString(tokens[i]) {
			continue
		}
		if u, known := unitWords[strings.ToLower(tokens[i+1])]; known {
			v, err := strconv.ParseFloat(tokens[i], 64)
			if err == nil {
				return v, u, true
			}
		}
	}
	return 0, "", false
}

// booleanAdjectives map descriptive words to boolean state fields (§4.10
// step 3).
var booleanAdjectives = map[string]string{
	"organic": "organic", "vegan": "vegan", "halal": "halal", "kosher": "kosher",
	"fresh": "fresh", "frozen": "frozen", "local": "local",
}

func extractBooleans(tokens []string) map[string]any {
	out := map[string]any{}
	for _, t := range tokens {
		if field, ok := booleanAdjectives[strings.ToLower(t)]; ok {
			out[field] = true
		}
	}
	return out
}

// isProperNounShape is a structural heuristic for "Joe's Bakery"-style
// names: capitalized first letter, not a stopword.
func isProperNounShape(tok string) bool {
	r := []rune(tok)
	if len(r) == 0 {
		return false
	}
	if !unicode.IsUpper(r[0]) {
		return false
	}
	return !stopwords[strings.ToLower(tok)]
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "for": true, "and": true, "or": true,
}

// extractProperNounPhrase greedily collects a run of proper-noun-shaped
// tokens (and the possessive/joining tokens between them) starting at i,
// returning the phrase and how many tokens it consumed.
func extractProperNounPhrase(tokens []string, i int) (string, int) {
	if i >= len(tokens) || !isProperNounShape(tokens[i]) {
		return "", 0
	}
	j := i + 1
	for j < len(tokens) {
		t := tokens[j]
		if isProperNounShape(t) || strings.HasSuffix(tokens[j-1], "'s") {
			j++
			continue
		}
		break
	}
	return strings.Join(tokens[i:j], " "), j - i
}
