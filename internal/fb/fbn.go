// Copyright 2026 FoodBlock Protocol
//
// FBN/fb:// URI format encode and decode
package fb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

// fbnDoc is the wire shape Format/ParseFBN exchange: a block's triple
// without its derived hash, since the hash is recomputed on parse rather
// than trusted from text.
type fbnDoc struct {
	Type  string         `json:"type"`
	State map[string]any `json:"state"`
	Refs  map[string]any `json:"refs"`
}

// Format renders b as FBN, a human-editable notation: indented JSON over
// exactly (type, state, refs) — no hash, since FBN is meant to be typed
// or read by a person, not to restate a derived value (§6.4,
// parseFBN(format(b)) ≡ b).
func Format(b *block.Block) (string, error) {
	doc := fbnDoc{Type: b.Type, State: b.State, Refs: b.Refs}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("fb: format: %w", err)
	}
	return string(raw), nil
}

// ParseFBN parses FBN text back into a Block, recomputing its hash
// (§8.2 round-trip property).
func ParseFBN(text string) (*block.Block, error) {
	var doc fbnDoc
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return nil, fmt.Errorf("fb: parse FBN: %w", err)
	}
	return block.Create(doc.Type, doc.State, doc.Refs)
}

// uriScheme is the fb:// URI prefix (§6.4).
const uriScheme = "fb://"

// ToURI renders a block's content address as an fb:// URI.
func ToURI(hash string) string {
	return uriScheme + hash
}

// FromURI extracts the hash from an fb:// URI (§8.2:
// fromURI(toURI(b)) ≡ {hash: b.hash} — URIs name a hash, nothing more).
func FromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", fmt.Errorf("fb: not an fb:// URI: %q", uri)
	}
	hash := strings.TrimPrefix(uri, uriScheme)
	if hash == "" {
		return "", fmt.Errorf("fb: fb:// URI missing hash")
	}
	return hash, nil
}
