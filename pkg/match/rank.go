package match

import (
	"math"
	"sort"
)

// finalScore clamps the summed sub-scores to [0, 100] and rounds to the
// nearest integer.
func finalScore(b Breakdown) int {
	total := b.Total()
	if math.IsNaN(total) || total < 0 {
		return 0
	}
	if total > 100 {
		total = 100
	}
	return int(math.Round(total))
}

// rank stable-sorts items by score descending and keeps the first topN.
func rank[T any](items []T, score func(T) int, topN int) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
	if len(items) > topN {
		items = items[:topN]
	}
	return items
}
