package catalog

import (
	"strings"
)

// defaultFuzzyThreshold is the minimum similarity score the best fuzzy
// candidate must exceed (strictly) to count as a match.
const defaultFuzzyThreshold = 0.6

// Normalizer maps free-form text (typically a language-model completion)
// onto exactly one known category name, or reports no match. It is a
// pure function over its inputs and the tables fixed at construction;
// safe for concurrent use.
type Normalizer struct {
	prefixes  []string
	synonyms  map[string]string
	threshold float64
}

// NormalizerOption customizes a Normalizer
type NormalizerOption func(*Normalizer)

// WithFillerPrefixes replaces the filler prefix list
func WithFillerPrefixes(prefixes []string) NormalizerOption {
	return func(n *Normalizer) {
		n.prefixes = append([]string(nil), prefixes...)
	}
}

// WithSynonyms replaces the synonym table
func WithSynonyms(synonyms map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		m := make(map[string]string, len(synonyms))
		for k, v := range synonyms {
			m[k] = v
		}
		n.synonyms = m
	}
}

// WithFuzzyThreshold replaces the fuzzy match threshold
func WithFuzzyThreshold(threshold float64) NormalizerOption {
	return func(n *Normalizer) {
		n.threshold = threshold
	}
}

// NewNormalizer creates a Normalizer with the default tables and
// threshold unless overridden by options.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		prefixes:  defaultFillerPrefixes,
		synonyms:  defaultSynonyms,
		threshold: defaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize runs the matching pipeline over raw text and the given
// category map. It returns the matched canonical category name (always a
// key of categories) and true, or "" and false when no stage matches.
//
// Stages, in order: cleanup, filler prefix stripping, candidate
// extraction, exact match, pluralization, substring scan, synonym
// lookup, best-fuzzy-score fallback.
func (n *Normalizer) Normalize(raw string, categories CategoryMap) (string, bool) {
	if len(categories) == 0 {
		return "", false
	}

	cleaned := cleanup(raw)
	cleaned = n.stripFillerPrefix(cleaned)
	candidate := extractCandidate(cleaned)
	if candidate == "" {
		return "", false
	}

	// Exact match
	if _, ok := categories[candidate]; ok {
		return candidate, true
	}

	// Pluralization: drop a trailing "s", then try adding one
	if strings.HasSuffix(candidate, "s") {
		singular := strings.TrimSuffix(candidate, "s")
		if _, ok := categories[singular]; ok {
			return singular, true
		}
	}
	if _, ok := categories[candidate+"s"]; ok {
		return candidate + "s", true
	}

	// Substring scan over keys in sorted order; first match wins.
	// Short candidates can hit an unintended longer key first; the
	// sorted order at least makes the outcome deterministic.
	for _, key := range categories.Names() {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			return key, true
		}
	}

	// Synonym table, honored only when the target is a known category
	if mapped, ok := n.synonyms[candidate]; ok {
		if _, present := categories[mapped]; present {
			return mapped, true
		}
	}

	// Best fuzzy score; ties resolve to the first key in sorted order
	bestKey := ""
	bestScore := 0.0
	for _, key := range categories.Names() {
		if score := Similarity(candidate, key); score > bestScore {
			bestScore = score
			bestKey = key
		}
	}
	if bestScore > n.threshold {
		return bestKey, true
	}

	return "", false
}

// cleanup trims, lowercases, strips sentence punctuation, peels one
// layer of surrounding quotes, and collapses space runs. Commas,
// semicolons, newlines, and tabs survive: they are segment delimiters
// and candidate extraction cuts on them.
func cleanup(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '!', '?', ':':
			return -1
		}
		return r
	}, s)
	s = stripSurroundingQuotes(strings.TrimSpace(s))
	return collapseSpaces(s)
}

// collapseSpaces reduces runs of spaces to a single space without
// touching other whitespace.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if r == ' ' {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
	}
	return b.String()
}

func stripSurroundingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stripFillerPrefix removes the first matching filler prefix. The match
// must end at a word boundary so "categories" survives the "category"
// entry intact.
func (n *Normalizer) stripFillerPrefix(s string) string {
	for _, prefix := range n.prefixes {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := s[len(prefix):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\n' && rest[0] != '\t' {
			continue
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// extractCandidate splits on the delimiter set and takes the first
// segment, so a run-on completion contributes only its leading answer.
func extractCandidate(s string) string {
	candidate := s
	if idx := strings.IndexAny(s, ",|/;\n\t"); idx >= 0 {
		candidate = s[:idx]
	}
	return strings.TrimSpace(candidate)
}
