package rules

import "strings"

// KnowledgeEntry is static reference data for one merchant.
type KnowledgeEntry struct {
	SurfaceForms              []string `yaml:"surface_forms"`
	NormalizedEntity          string   `yaml:"normalized_entity"`
	TransactionClassification string   `yaml:"transaction_classification"`
	Explanation               string   `yaml:"explanation"`
}

// KnowledgeBase is an ordered list of merchant entries.
type KnowledgeBase []KnowledgeEntry

// Find returns the first entry with a surface form contained in text, along
// with the surface form that matched. Entries are tried in order, then surface
// forms in order.
func (kb KnowledgeBase) Find(text string) (KnowledgeEntry, string, bool) {
	lower := strings.ToLower(text)
	for _, e := range kb {
		for _, sf := range e.SurfaceForms {
			if sf == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(sf)) {
				return e, sf, true
			}
		}
	}
	return KnowledgeEntry{}, "", false
}
