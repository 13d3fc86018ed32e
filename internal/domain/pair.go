package domain

// PairKey returns the canonical key of the unordered pair {a, b}: the two ids
// in lexical order joined by ':'. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
