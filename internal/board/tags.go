package board

import (
	"sort"
	"strings"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// NormalizeTags trims, drops empty entries and removes duplicates, keeping
// the first occurrence order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag field.
func SplitTags(field string) []string {
	return NormalizeTags(strings.Split(field, ","))
}

// TagCounts counts how many requests carry each tag, most popular first and
// alphabetical among equals.
func TagCounts(tagSets [][]string) []TagCount {
	counts := make(map[string]int)
	for _, set := range tagSets {
		for _, t := range NormalizeTags(set) {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// FilterByTags keeps the requests that carry every selected tag. An empty
// selection keeps everything.
func FilterByTags(reqs []models.RequestSummary, selected []string) []models.RequestSummary {
	selected = NormalizeTags(selected)
	if len(selected) == 0 {
		return reqs
	}

	out := make([]models.RequestSummary, 0, len(reqs))
	for _, r := range reqs {
		have := make(map[string]struct{}, len(r.Tags))
		for _, t := range r.Tags {
			have[t] = struct{}{}
		}
		match := true
		for _, t := range selected {
			if _, ok := have[t]; !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, r)
		}
	}
	return out
}
