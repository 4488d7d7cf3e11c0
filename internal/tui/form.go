package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"catalog-editor/internal/model"
	"catalog-editor/internal/validate"
)

// newRowForm collects the fields of a new label or value one prompt at a time.
type newRowForm struct {
	kind   model.RowKind
	owner  model.Label
	fields []string
	idx    int
	values model.Fields
}

var (
	labelFormFields = []string{model.FieldLabelID, model.FieldName, model.FieldIndex, model.FieldCollection, model.FieldSection, model.FieldDescription}
	valueFormFields = []string{model.FieldValueID, model.FieldValue, model.FieldAlias, model.FieldDescription}

	formPrompts = map[string]string{
		model.FieldLabelID:     "label id",
		model.FieldName:        "label name",
		model.FieldIndex:       "index tags (comma separated)",
		model.FieldCollection:  "collection",
		model.FieldSection:     "section",
		model.FieldDescription: "description (optional)",
		model.FieldValueID:     "value id",
		model.FieldValue:       "value",
		model.FieldAlias:       "alias (optional)",
	}
)

func (f *newRowForm) field() string { return f.fields[f.idx] }

func (f *newRowForm) prompt() string {
	title := "New label"
	if f.kind == model.RowKindValue {
		title = "New value in " + f.owner.LabelID
	}
	return title + " · " + formPrompts[f.field()]
}

func (m *appModel) openLabelForm() {
	m.openForm(&newRowForm{kind: model.RowKindLabel, fields: labelFormFields, values: model.Fields{}})
}

func (m *appModel) openValueForm() {
	r, ok := m.current()
	if !ok {
		m.setStatus("no label selected")
		return
	}
	ownerID := r.row.ID()
	if r.row.Kind == model.RowKindValue {
		ownerID = r.row.OwnerID()
	}
	owner, ok := m.queue.FindLabel(ownerID)
	if !ok {
		m.setStatus("no label selected")
		return
	}
	if owner.Status == model.StatusMarkedDeleted {
		m.setStatus("label %s is marked for deletion", owner.LabelID)
		return
	}
	m.openForm(&newRowForm{kind: model.RowKindValue, owner: owner, fields: valueFormFields, values: model.Fields{}})
}

func (m *appModel) openForm(f *newRowForm) {
	m.form = f
	m.mode = modeForm
	m.status = ""
	m.input.SetValue("")
	m.input.Focus()
}

func (m *appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		m.input.Blur()
		m.mode = modeGrid
		return m, nil
	case "enter", "tab":
		f.values[f.field()] = strings.TrimSpace(m.input.Value())
		if f.idx+1 < len(f.fields) {
			f.idx++
			m.input.SetValue(model.FieldString(f.values[f.field()]))
			m.input.CursorEnd()
			return m, nil
		}
		m.submitForm()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitForm validates the collected fields and queues the CREATE. On a validation
// error the form returns to the first offending field.
func (m *appModel) submitForm() {
	f := m.form
	labels := m.queue.Labels()
	fields := f.values.Clone()

	var err error
	var id string
	if f.kind == model.RowKindLabel {
		fields[model.FieldIndex] = model.JoinIndex(model.SplitIndex(fields.String(model.FieldIndex)))
		fields[model.FieldSocietyID] = 0
		fields[model.FieldCediID] = 0
		fields[model.FieldSequence] = nextLabelSequence(labels)
		fields[model.FieldImage] = ""
		fields[model.FieldRoute] = ""
		err = validate.NewLabel(labels, fields)
		id = fields.String(model.FieldLabelID)
	} else {
		fields[model.FieldLabelID] = f.owner.LabelID
		fields[model.FieldSocietyID] = model.WireScope(f.owner.SocietyID)
		fields[model.FieldCediID] = model.WireScope(f.owner.CediID)
		fields[model.FieldSequence] = nextValueSequence(f.owner)
		fields[model.FieldParentValueID] = nil
		fields[model.FieldImage] = ""
		fields[model.FieldRoute] = ""
		err = validate.NewValue(labels, fields)
		id = fields.String(model.FieldValueID)
	}
	if err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			for i, field := range f.fields {
				if verrs.Has(field) {
					f.idx = i
					m.input.SetValue(model.FieldString(f.values[field]))
					m.input.CursorEnd()
					break
				}
			}
		}
		m.setError(err)
		return
	}

	collection := model.CollectionLabels
	if f.kind == model.RowKindValue {
		collection = model.CollectionValues
		m.expanded[f.owner.LabelID] = true
	}
	m.queue.AddOperation(model.NewCreate(collection, fields))
	m.form = nil
	m.input.Blur()
	m.mode = modeGrid
	m.rebuild()
	m.moveTo(model.RowKey(f.kind, id))
	m.setStatus("%s %s created (pending save)", f.kind, id)
}

func nextLabelSequence(labels []model.Label) int {
	n := 0
	for _, l := range labels {
		n = max(n, l.Sequence)
	}
	return n + 1
}

func nextValueSequence(l model.Label) int {
	n := 0
	for _, v := range l.Values {
		n = max(n, v.Sequence)
	}
	return n + 1
}
