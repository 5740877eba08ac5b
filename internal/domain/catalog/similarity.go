package catalog

// Similarity computes the Jaccard index over the character sets of two
// strings: |intersection| / |union| of their unique runes. The result is
// in [0,1] and symmetric in its arguments.
//
// Convention for the degenerate case: two empty strings are considered
// identical and score 1; if exactly one input is empty the union is
// non-empty and the score is 0.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}

	setA := runeSet(a)
	setB := runeSet(b)

	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1
	}

	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
