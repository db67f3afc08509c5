package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a rules YAML file. Sections left out of the file keep their
// built-in values.
func LoadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes rules YAML on top of the built-in tables and validates the result.
func Parse(data []byte) (Tables, error) {
	t := DefaultTables()
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("parsing rules: %w", err)
	}
	if override.TaxKeywords != nil {
		t.TaxKeywords = override.TaxKeywords
	}
	if override.Merchants != nil {
		t.Merchants = override.Merchants
	}
	if override.PaymentRailKeywords != nil {
		t.PaymentRailKeywords = override.PaymentRailKeywords
	}
	if override.EcommerceTerms != nil {
		t.EcommerceTerms = override.EcommerceTerms
	}
	if override.CreditCardTerms != nil {
		t.CreditCardTerms = override.CreditCardTerms
	}
	if override.KnowledgeBase != nil {
		t.KnowledgeBase = override.KnowledgeBase
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// SaveFile writes tables as rules YAML.
func SaveFile(path string, t Tables) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}

// Validate rejects blank keywords, duplicate merchant keys and knowledge base
// entries that can never match.
func (t Tables) Validate() error {
	lists := []struct {
		name  string
		terms []string
	}{
		{"tax_keywords", t.TaxKeywords},
		{"payment_rail_keywords", t.PaymentRailKeywords},
		{"ecommerce_terms", t.EcommerceTerms},
		{"credit_card_terms", t.CreditCardTerms},
	}
	for _, l := range lists {
		for i, term := range l.terms {
			if strings.TrimSpace(term) == "" {
				return fmt.Errorf("%s[%d]: empty keyword", l.name, i)
			}
		}
	}

	seen := make(map[string]int, len(t.Merchants))
	for i, m := range t.Merchants {
		key := strings.ToLower(strings.TrimSpace(m.Keyword))
		if key == "" {
			return fmt.Errorf("merchants[%d]: empty keyword", i)
		}
		if m.Name == "" {
			return fmt.Errorf("merchants[%d]: empty name for %q", i, m.Keyword)
		}
		if j, dup := seen[key]; dup {
			return fmt.Errorf("merchants[%d]: keyword %q duplicates merchants[%d]", i, m.Keyword, j)
		}
		seen[key] = i
	}

	for i, e := range t.KnowledgeBase {
		if e.NormalizedEntity == "" {
			return fmt.Errorf("knowledge_base[%d]: empty normalized_entity", i)
		}
		if e.TransactionClassification == "" {
			return fmt.Errorf("knowledge_base[%d]: empty transaction_classification", i)
		}
		usable := false
		for _, sf := range e.SurfaceForms {
			if strings.TrimSpace(sf) != "" {
				usable = true
			}
		}
		if !usable {
			return fmt.Errorf("knowledge_base[%d]: no surface forms for %s", i, e.NormalizedEntity)
		}
	}
	return nil
}
