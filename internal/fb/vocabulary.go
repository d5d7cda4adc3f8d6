// Copyright 2026 FoodBlock Protocol
//
// Vocabulary tables for natural-language parsing
package fb

// Vocabulary maps human phrases to canonical field names for one domain
// (§4.10). Vocabularies are themselves blocks (observe.vocabulary); the
// 14 built-ins here ship as the SDK default set. The server does not
// insert them into the graph as blocks.
type Vocabulary struct {
	Name    string
	Aliases map[string]string // phrase -> canonical field name
}

// builtinVocabularies are the fourteen domains §4.10 names.
var builtinVocabularies = []Vocabulary{
	{Name: "bakery", Aliases: map[string]string{"loaf": "name", "sourdough": "name", "bread": "name"}},
	{Name: "restaurant", Aliases: map[string]string{"dish": "name", "menu item": "name", "entree": "name"}},
	{Name: "farm", Aliases: map[string]string{"harvest": "name", "crop": "name", "yield": "quantity"}},
	{Name: "retail", Aliases: map[string]string{"sku": "sku", "item": "name", "shelf price": "price"}},
	{Name: "distributor", Aliases: map[string]string{"shipment": "name", "pallet": "quantity"}},
	{Name: "processor", Aliases: map[string]string{"batch": "name", "lot number": "lot"}},
	{Name: "market", Aliases: map[string]string{"stall": "venue", "vendor": "seller"}},
	{Name: "catering", Aliases: map[string]string{"event": "name", "headcount": "quantity"}},
	{Name: "fishery", Aliases: map[string]string{"catch": "name", "species": "name"}},
	{Name: "dairy", Aliases: map[string]string{"milk": "name", "churn": "name"}},
	{Name: "butcher", Aliases: map[string]string{"cut": "name", "carcass weight": "weight"}},
	{Name: "lot", Aliases: map[string]string{"lot": "lot", "batch number": "lot"}},
	{Name: "units", Aliases: map[string]string{"kg": "unit", "kilograms": "unit", "lbs": "unit", "g": "unit"}},
	{Name: "workflow", Aliases: map[string]string{"step": "name", "stage": "name"}},
}

// BuiltinVocabularies returns the bundled vocabulary set.
func BuiltinVocabularies() []Vocabulary {
	out := make([]Vocabulary, len(builtinVocabularies))
	copy(out, builtinVocabularies)
	return out
}

// AsBlockState renders v as the state of an observe.vocabulary block.
func (v Vocabulary) AsBlockState() map[string]any {
	aliases := make(map[string]any, len(v.Aliases))
	for phrase, field := range v.Aliases {
		aliases[phrase] = field
	}
	return map[string]any{
		"name":    v.Name,
		"aliases": aliases,
	}
}

func resolveField(vocabs []Vocabulary, phrase string) (string, bool) {
	for _, v := range vocabs {
		if field, ok := v.Aliases[phrase]; ok {
			return field, true
		}
	}
	return "", false
}
