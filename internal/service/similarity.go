package service

import "strings"

// JaccardSimilarity computes word-set overlap between two strings: the size of
// the intersection of their lowercase whitespace-split token sets divided by
// the size of the union. Either side empty yields 0.
func JaccardSimilarity(a, b string) float32 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float32(intersection) / float32(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}
