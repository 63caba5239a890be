package analyzer

import (
	"sort"
	"strings"

	"github.com/iammorganparry/hyprcontext/internal/config"
)

// Tagger assigns distraction categories by case-insensitive substring match.
type Tagger struct {
	categories []config.Category
}

func NewTagger(categories []config.Category) *Tagger {
	cats := make([]config.Category, 0, len(categories))
	for _, c := range categories {
		kws := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		if c.Name == "" || len(kws) == 0 {
			continue
		}
		cats = append(cats, config.Category{Name: c.Name, Keywords: kws})
	}
	return &Tagger{categories: cats}
}

// Tag returns the sorted set of categories whose keywords occur in either text.
// The result is never nil.
func (t *Tagger) Tag(windowTitle, description string) []string {
	title := strings.ToLower(windowTitle)
	desc := strings.ToLower(description)

	tags := []string{}
	for _, c := range t.categories {
		for _, k := range c.Keywords {
			if strings.Contains(title, k) || strings.Contains(desc, k) {
				tags = append(tags, c.Name)
				break
			}
		}
	}
	sort.Strings(tags)
	return dedupSorted(tags)
}

func dedupSorted(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
