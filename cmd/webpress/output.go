package main

import (
	"encoding/json"
	"os"

	"github.com/hbollon/go-edlib"
)

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// minSuggestSimilarity is the Jaro-Winkler score below which no suggestion
// is offered.
const minSuggestSimilarity = 0.7

// suggest returns the candidate most similar to input, or "" if none is
// close enough.
func suggest(input string, candidates []string) string {
	best, bestScore := "", float32(0)
	for _, c := range candidates {
		score := edlib.JaroWinklerSimilarity(input, c)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < minSuggestSimilarity {
		return ""
	}
	return best
}
