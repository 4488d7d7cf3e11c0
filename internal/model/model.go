package model

import "strings"

// Reference label ids. These two labels are lookup tables for the society and
// distribution-center columns rather than ordinary catalog data.
const (
	SocietyCatalogID = "SOCIEDAD"
	CediCatalogID    = "CEDI"
)

// AllScope is the sentinel society/cedi id meaning "all".
const AllScope = "0"

type EditStatus string

const (
	StatusNone          EditStatus = "None"
	StatusCreated       EditStatus = "Created"
	StatusModified      EditStatus = "Modified"
	StatusMarkedDeleted EditStatus = "MarkedDeleted"
)

// Label is a top-level catalog entry (a parent row in the grid).
type Label struct {
	SocietyID   string `json:"idsociedad"`
	CediID      string `json:"idcedi"`
	LabelID     string `json:"idetiqueta"`
	Name        string `json:"etiqueta"`
	Index       string `json:"indice"`
	Collection  string `json:"coleccion"`
	Section     string `json:"seccion"`
	Sequence    int    `json:"secuencia"`
	Image       string `json:"imagen"`
	Route       string `json:"ruta"`
	Description string `json:"descripcion"`

	Status EditStatus `json:"status"`
	Values []Value    `json:"values"`
}

// Value is an entry owned by a label (a child row in the grid).
type Value struct {
	SocietyID string `json:"idsociedad"`
	CediID    string `json:"idcedi"`
	LabelID   string `json:"idetiqueta"`
	ValueID   string `json:"idvalor"`
	// ParentValueID points at another value anywhere in the catalog; empty means unset.
	ParentValueID string `json:"idvalorpa,omitempty"`
	Value         string `json:"valor"`
	Alias         string `json:"alias"`
	Sequence      int    `json:"secuencia"`
	Image         string `json:"imagen"`
	Route         string `json:"ruta"`
	Description   string `json:"descripcion"`

	Status EditStatus `json:"status"`
}

// Clone returns a deep copy of the label, values included.
func (l Label) Clone() Label {
	out := l
	if l.Values != nil {
		out.Values = make([]Value, len(l.Values))
		copy(out.Values, l.Values)
	}
	return out
}

// CloneLabels deep-copies a label slice.
func CloneLabels(in []Label) []Label {
	if in == nil {
		return nil
	}
	out := make([]Label, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// FindValue returns the index of valueID in l.Values, or -1.
func (l Label) FindValue(valueID string) int {
	for i := range l.Values {
		if l.Values[i].ValueID == valueID {
			return i
		}
	}
	return -1
}

// IsReference reports whether the label is one of the synthetic lookup tables.
func (l Label) IsReference() bool {
	return l.LabelID == SocietyCatalogID || l.LabelID == CediCatalogID
}

// SplitIndex splits a comma-joined index into trimmed, unique, non-empty tokens.
func SplitIndex(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// JoinIndex is the inverse of SplitIndex.
func JoinIndex(tokens []string) string {
	return strings.Join(SplitIndex(strings.Join(tokens, ",")), ", ")
}
