package race

import (
	"github.com/antzucaro/matchr"

	"deathrace-backend/lib/textutil"
)

// NearMatch pairs a film only one participant logged with the most
// similar film only the other logged. these are diagnostics for
// catalogue drift (retitled releases, typos in alternate editions),
// they never count as common films.
type NearMatch struct {
	Left       string
	Right      string
	Similarity float64
}

// SuggestNearMatches compares the titles exclusive to each subject
// by Jaro-Winkler similarity and reports pairs scoring above the
// threshold, best candidate per title, each title used at most once.
func SuggestNearMatches(a, b Subject, threshold float64) []NearMatch {
	_, orderA, displayA := filmRatings(a.Entries)
	_, orderB, displayB := filmRatings(b.Entries)

	var onlyA []string
	for _, key := range orderA {
		if _, shared := displayB[key]; !shared {
			onlyA = append(onlyA, displayA[key])
		}
	}
	var onlyB []string
	for _, key := range orderB {
		if _, shared := displayA[key]; !shared {
			onlyB = append(onlyB, displayB[key])
		}
	}

	matchedRight := map[string]bool{}
	var result []NearMatch
	for _, left := range onlyA {
		var bestSimilarity float64
		var bestRight string

		for _, right := range onlyB {
			if matchedRight[right] {
				continue
			}
			similarity := matchr.JaroWinkler(
				textutil.NormalizeTitle(left),
				textutil.NormalizeTitle(right),
				false,
			)
			if similarity > bestSimilarity {
				bestSimilarity = similarity
				bestRight = right
			}
		}

		if bestSimilarity >= threshold && bestRight != "" {
			result = append(result, NearMatch{
				Left:       left,
				Right:      bestRight,
				Similarity: bestSimilarity,
			})
			matchedRight[bestRight] = true
		}
	}
	return result
}
