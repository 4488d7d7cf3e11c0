// Package lookup searches the catalog and resolves the society/cedi reference columns.
package lookup

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"catalog-editor/internal/model"
)

// Filter keeps labels whose own text (name, description, collection, section) or any
// value's text (value, description, alias) contains term, case-insensitively. Matching
// labels are returned whole, with every value. An empty term returns all labels.
func Filter(labels []model.Label, term string) []model.Label {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return labels
	}
	var out []model.Label
	for _, l := range labels {
		if labelMatches(l, term) {
			out = append(out, l)
		}
	}
	return out
}

func labelMatches(l model.Label, term string) bool {
	for _, s := range []string{l.Name, l.Description, l.Collection, l.Section} {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	for _, v := range l.Values {
		for _, s := range []string{v.Value, v.Description, v.Alias} {
			if strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
	}
	return false
}

type labelSource []model.Label

func (s labelSource) String(i int) string { return haystack(s[i]) }
func (s labelSource) Len() int            { return len(s) }

func haystack(l model.Label) string {
	parts := []string{l.LabelID, l.Name, l.Collection, l.Section, l.Description}
	for _, v := range l.Values {
		parts = append(parts, v.Value, v.Alias)
	}
	return strings.Join(parts, " ")
}

// FuzzyFilter ranks labels by fuzzy match against their ids and text, best first.
func FuzzyFilter(labels []model.Label, term string) []model.Label {
	term = strings.TrimSpace(term)
	if term == "" {
		return labels
	}
	matches := fuzzy.FindFrom(term, labelSource(labels))
	out := make([]model.Label, 0, len(matches))
	for _, m := range matches {
		out = append(out, labels[m.Index])
	}
	return out
}
