package lookup

import (
	"strconv"
	"strings"

	"catalog-editor/internal/model"
)

// AllName is the display name of the "all" scope option.
const AllName = "TODOS"

// Option is one choice of a reference column.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ParentID is the owning society of a cedi option.
	ParentID string `json:"parentId,omitempty"`
}

func referenceOptions(labels []model.Label, catalogID string) []Option {
	for _, l := range labels {
		if l.LabelID != catalogID {
			continue
		}
		out := make([]Option, 0, len(l.Values))
		for _, v := range l.Values {
			out = append(out, Option{ID: v.ValueID, Name: v.Value, ParentID: v.ParentValueID})
		}
		return out
	}
	return nil
}

// SocietyOptions lists the societies, led by the "all" option.
func SocietyOptions(labels []model.Label) []Option {
	out := []Option{{ID: model.AllScope, Name: AllName}}
	for _, o := range referenceOptions(labels, model.SocietyCatalogID) {
		if sameID(o.ID, model.AllScope) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// CediOptions lists the distribution centers of society, led by the "all" option.
func CediOptions(labels []model.Label, society string) []Option {
	out := []Option{{ID: model.AllScope, Name: AllName, ParentID: model.AllScope}}
	for _, o := range referenceOptions(labels, model.CediCatalogID) {
		if sameID(o.ID, model.AllScope) || !sameID(o.ParentID, society) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// DisplayName returns the option name for id, or id itself when no option matches.
// Ids compare numerically when both sides are numbers ("01" matches "1").
func DisplayName(opts []Option, id string) string {
	for _, o := range opts {
		if sameID(o.ID, id) {
			return o.Name
		}
	}
	return id
}

// Resolve maps typed text to an option id by exact name or id match.
func Resolve(opts []Option, text string) (string, bool) {
	text = strings.TrimSpace(text)
	for _, o := range opts {
		if o.Name == text || o.ID == text {
			return o.ID, true
		}
	}
	for _, o := range opts {
		if sameID(o.ID, text) {
			return o.ID, true
		}
	}
	return "", false
}

func sameID(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && x == y
}

// ParentValueOptions lists every value in the catalog as a candidate parent, except
// the value itself.
func ParentValueOptions(labels []model.Label, selfID string) []Option {
	var out []Option
	for _, l := range labels {
		for _, v := range l.Values {
			if v.ValueID == selfID {
				continue
			}
			out = append(out, Option{ID: v.ValueID, Name: v.Value, ParentID: l.LabelID})
		}
	}
	return out
}

// ParentValueName renders a parent value reference for display.
func ParentValueName(labels []model.Label, valueID string) string {
	if valueID == "" {
		return ""
	}
	for _, l := range labels {
		if i := l.FindValue(valueID); i >= 0 {
			return l.Values[i].Value + " (" + valueID + ")"
		}
	}
	return valueID
}
