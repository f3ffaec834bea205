package report

import (
	"sort"
)

// preferredOrder lists the preferred values that are present, in preferred
// order, followed by every other present value sorted.
func preferredOrder(present []string, preferred ...string) []string {
	have := make(map[string]bool, len(present))
	for _, p := range present {
		have[p] = true
	}

	out := make([]string, 0, len(have))
	taken := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		if have[p] && !taken[p] {
			out = append(out, p)
			taken[p] = true
		}
	}

	var rest []string
	for v := range have {
		if !taken[v] {
			rest = append(rest, v)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// orderByTotal returns keys sorted by their summed weight, largest first.
// Ties fall back to name so the legend order is reproducible.
func orderByTotal(keys []string, weights []float64) []string {
	totals := make(map[string]float64)
	var order []string
	for i, k := range keys {
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] += weights[i]
	}
	sort.SliceStable(order, func(i, j int) bool {
		if totals[order[i]] != totals[order[j]] {
			return totals[order[i]] > totals[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}
