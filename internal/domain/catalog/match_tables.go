package catalog

// Default matching tables for the category normalizer. Both are treated
// as immutable configuration data: the normalizer copies them at
// construction time and never mutates them.

// defaultFillerPrefixes are filler phrases language models tend to put in
// front of the actual category name. Checked in listed order against the
// cleaned (punctuation-free) text, so longer phrases must come before
// their own prefixes ("category name" before "category").
var defaultFillerPrefixes = []string{
	"the category is",
	"i would categorize this as",
	"this belongs to",
	"this falls under",
	"matching category",
	"category name",
	"best match",
	"category",
	"answer",
	"result",
}

// defaultSynonyms maps common alternate terms to canonical category
// names. A hit only counts when the mapped value exists in the caller's
// category map.
var defaultSynonyms = map[string]string{
	"groceries":   "food",
	"grocery":     "food",
	"dining":      "food",
	"restaurant":  "food",
	"eating":      "food",
	"meal":        "food",
	"gas":         "fuel",
	"gasoline":    "fuel",
	"petrol":      "fuel",
	"shopping":    "retail",
	"clothes":     "clothing",
	"apparel":     "clothing",
	"car":         "transportation",
	"vehicle":     "transportation",
	"taxi":        "transportation",
	"uber":        "transportation",
	"lyft":        "transportation",
	"medical":     "healthcare",
	"doctor":      "healthcare",
	"hospital":    "healthcare",
	"pharmacy":    "healthcare",
	"medicine":    "healthcare",
	"utility":     "utilities",
	"electric":    "utilities",
	"electricity": "utilities",
	"water":       "utilities",
	"internet":    "utilities",
	"phone":       "utilities",
}
