package rules

// Tables holds the keyword and lookup data the built-in rules match against.
// It is loaded once and never mutated.
type Tables struct {
	TaxKeywords         []string      `yaml:"tax_keywords"`
	Merchants           LookupTable   `yaml:"merchants"`
	PaymentRailKeywords []string      `yaml:"payment_rail_keywords"`
	EcommerceTerms      []string      `yaml:"ecommerce_terms"`
	CreditCardTerms     []string      `yaml:"credit_card_terms"`
	KnowledgeBase       KnowledgeBase `yaml:"knowledge_base"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		TaxKeywords: []string{"tax", "irs", "hmrc", "revenue service"},
		Merchants: LookupTable{
			{Keyword: "capital one", Name: "Capital One"},
			{Keyword: "shopify capital", Name: "Shopify Capital"},
			{Keyword: "amazon", Name: "Amazon"},
			{Keyword: "starbucks", Name: "Starbucks"},
			{Keyword: "netflix", Name: "Netflix"},
		},
		PaymentRailKeywords: []string{"visa", "zelle", "paypal", "afterpay", "mastercard", "amex", "square", "stripe"},
		EcommerceTerms:      []string{"marketplace", "ecommerce"},
		CreditCardTerms:     []string{"loan", "payment", "credit card"},
		KnowledgeBase: KnowledgeBase{
			{
				SurfaceForms:              []string{"uber eats", "doordash", "grubhub"},
				NormalizedEntity:          "Food Delivery",
				TransactionClassification: "Dining",
				Explanation:               "food delivery platform",
			},
			{
				SurfaceForms:              []string{"uber", "lyft"},
				NormalizedEntity:          "Rideshare",
				TransactionClassification: "Travel",
				Explanation:               "rideshare service",
			},
			{
				SurfaceForms:              []string{"spotify", "hulu", "disney plus"},
				NormalizedEntity:          "Streaming Service",
				TransactionClassification: "Subscription",
				Explanation:               "recurring media subscription",
			},
			{
				SurfaceForms:              []string{"walmart", "costco", "target store"},
				NormalizedEntity:          "Retail Store",
				TransactionClassification: "Retail Purchase",
				Explanation:               "general merchandise retailer",
			},
			{
				SurfaceForms:              []string{"comcast", "verizon", "at&t"},
				NormalizedEntity:          "Telecom Provider",
				TransactionClassification: "Utilities",
				Explanation:               "telecom or internet bill",
			},
		},
	}
}
