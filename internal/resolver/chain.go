package resolver

// radiusLookup is one stage of the corner-radius fallback chain.
type radiusLookup func() (float64, bool)

// firstRadius runs lookups in order and returns the first hit. The last
// stage is expected to always succeed (a constant default).
func firstRadius(lookups ...radiusLookup) (float64, bool) {
	for _, l := range lookups {
		if v, ok := l(); ok {
			return v, true
		}
	}
	return 0, false
}
