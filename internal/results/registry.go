package results

import (
	"slices"
	"sort"
)

// Registry maps a subject code to the sorted positions it was seen at
// across a batch.
type Registry map[string][]int

func BuildRegistry(rs []Result) Registry {
	seen := map[string]map[int]struct{}{}
	for _, r := range rs {
		if r.Failed() {
			continue
		}
		for key := range r {
			code, pos, ok := ParseSubjectKey(key)
			if !ok {
				continue
			}
			if seen[code] == nil {
				seen[code] = map[int]struct{}{}
			}
			seen[code][pos] = struct{}{}
		}
	}

	registry := Registry{}
	for code, positions := range seen {
		list := make([]int, 0, len(positions))
		for p := range positions {
			list = append(list, p)
		}
		slices.Sort(list)
		registry[code] = list
	}
	return registry
}

func (r Registry) Codes() []string {
	codes := make([]string, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
