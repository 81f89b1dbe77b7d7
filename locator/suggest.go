package locator

// Suggest finds the candidate closest to name by Levenshtein distance,
// for use in a "did you mean" hint when ResolveSegment fails (spec
// §4.3 addition). It returns ok=false if candidates is empty or the
// closest candidate is further than a reasonable typo distance away.
func Suggest(name string, candidates []string) (suggestion string, ok bool) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshteinDistance(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist == -1 {
		return "", false
	}
	// A segment name typo is rarely more than half the name's length
	// off; beyond that the suggestion is more confusing than helpful.
	maxDist := len(name) / 2
	if maxDist < 2 {
		maxDist = 2
	}
	if bestDist > maxDist {
		return "", false
	}
	return best, true
}

// levenshteinDistance computes the classic edit distance between a and
// b using a two-row dynamic-programming table.
func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}
