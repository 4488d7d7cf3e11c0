package catalogsync

import (
	"bytes"
	"encoding/json"
	"strconv"

	"catalog-editor/internal/model"
)

// flexString accepts a JSON string, number, bool or null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*s = flexString(model.FieldString(v))
	return nil
}

// flexInt accepts a JSON number, a numeric string or null.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, ok := model.FieldInt(str)
		if !ok {
			return &strconv.NumError{Func: "flexInt", Num: str, Err: strconv.ErrSyntax}
		}
		*n = flexInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = flexInt(int(f))
	return nil
}

type apiValue struct {
	SocietyID     flexString `json:"IDSOCIEDAD"`
	CediID        flexString `json:"IDCEDI"`
	LabelID       flexString `json:"IDETIQUETA"`
	ValueID       flexString `json:"IDVALOR"`
	ParentValueID flexString `json:"IDVALORPA"`
	Value         flexString `json:"VALOR"`
	Alias         flexString `json:"ALIAS"`
	Sequence      flexInt    `json:"SECUENCIA"`
	Image         flexString `json:"IMAGEN"`
	Route         flexString `json:"ROUTE"`
	Description   flexString `json:"DESCRIPCION"`
}

type apiLabel struct {
	SocietyID   flexString `json:"IDSOCIEDAD"`
	CediID      flexString `json:"IDCEDI"`
	LabelID     flexString `json:"IDETIQUETA"`
	Name        flexString `json:"ETIQUETA"`
	Index       flexString `json:"INDICE"`
	Collection  flexString `json:"COLECCION"`
	Section     flexString `json:"SECCION"`
	Sequence    flexInt    `json:"SECUENCIA"`
	Image       flexString `json:"IMAGEN"`
	Route       flexString `json:"ROUTE"`
	Description flexString `json:"DESCRIPCION"`
	Values      []apiValue `json:"valores"`
}

type fetchEnvelope struct {
	Data []struct {
		DataRes []apiLabel `json:"dataRes"`
	} `json:"data"`
}

func (a apiLabel) toModel() model.Label {
	l := model.Label{
		SocietyID:   string(a.SocietyID),
		CediID:      string(a.CediID),
		LabelID:     string(a.LabelID),
		Name:        string(a.Name),
		Index:       string(a.Index),
		Collection:  string(a.Collection),
		Section:     string(a.Section),
		Sequence:    int(a.Sequence),
		Image:       string(a.Image),
		Route:       string(a.Route),
		Description: string(a.Description),
		Status:      model.StatusNone,
		Values:      make([]model.Value, 0, len(a.Values)),
	}
	for _, v := range a.Values {
		mv := model.Value{
			SocietyID:     string(v.SocietyID),
			CediID:        string(v.CediID),
			LabelID:       string(v.LabelID),
			ValueID:       string(v.ValueID),
			ParentValueID: string(v.ParentValueID),
			Value:         string(v.Value),
			Alias:         string(v.Alias),
			Sequence:      int(v.Sequence),
			Image:         string(v.Image),
			Route:         string(v.Route),
			Description:   string(v.Description),
			Status:        model.StatusNone,
		}
		if mv.LabelID == "" {
			mv.LabelID = l.LabelID
		}
		l.Values = append(l.Values, mv)
	}
	return l
}

// wireOperation is an Operation without its local id and snapshot.
type wireOperation struct {
	Collection model.Collection `json:"collection"`
	Action     model.Action     `json:"action"`
	Payload    model.Payload    `json:"payload"`
}

type submitBody struct {
	Operations []wireOperation `json:"operations"`
}

func newSubmitBody(ops []model.Operation) submitBody {
	body := submitBody{Operations: make([]wireOperation, 0, len(ops))}
	for _, op := range ops {
		body.Operations = append(body.Operations, wireOperation{
			Collection: op.Collection,
			Action:     op.Action,
			Payload:    op.Payload,
		})
	}
	return body
}
