package tui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/devserver"
	"catalog-editor/internal/focus"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"
	"catalog-editor/internal/store"
)

type harness struct {
	m     *appModel
	db    *devserver.DB
	state store.StateDir
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := devserver.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Seed(ctx, devserver.SampleCatalog()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(devserver.NewServer(db, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)

	h := &harness{db: db, state: store.StateDir{Dir: t.TempDir()}}
	h.m = h.open(t, srv.URL)
	return h
}

func (h *harness) open(t *testing.T, url string) *appModel {
	t.Helper()
	queue := opqueue.New()
	svc := catalogsync.New(catalogsync.Config{BaseURL: url, LoggedUser: "tester"}, queue)
	m := newAppModel(Options{Service: svc, Queue: queue, State: h.state, Log: zerolog.Nop()})
	m.Update(m.Init()())
	return m
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m *appModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

// editCell opens the cell under the cursor, replaces its text and presses commitKey.
func editCell(t *testing.T, m *appModel, text, commitKey string) {
	t.Helper()
	press(m, "enter")
	if m.mode != modeEdit {
		t.Fatalf("expected edit mode, got %v (status %q)", m.mode, m.status)
	}
	m.input.SetValue(text)
	press(m, commitKey)
}

// save runs the save command and the reload that follows a successful save.
func save(t *testing.T, m *appModel) {
	t.Helper()
	cmd := press(m, "s")
	if cmd == nil {
		t.Fatalf("expected a save command (status %q)", m.status)
	}
	_, next := m.Update(cmd())
	if next != nil {
		m.Update(next())
	}
}

func labelRowStatus(t *testing.T, m *appModel, id string) model.EditStatus {
	t.Helper()
	i := indexOfKey(m.rows, model.RowKey(model.RowKindLabel, id))
	if i < 0 {
		t.Fatalf("label row %s not visible", id)
	}
	return m.rows[i].row.Status()
}

func TestLoad_ShowsLabelsCollapsed(t *testing.T) {
	m := newHarness(t).m

	if len(m.rows) != 3 {
		t.Fatalf("expected 3 label rows, got %d", len(m.rows))
	}
	if m.loading {
		t.Fatalf("expected loading to finish")
	}
	if m.status != "3 labels loaded" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if got := m.currentKey(); got != model.RowKey(model.RowKindLabel, model.SocietyCatalogID) {
		t.Fatalf("expected cursor on first label, got %q", got)
	}
}

func TestLoad_FailureKeepsModel(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	h := &harness{state: store.StateDir{Dir: t.TempDir()}}
	m := h.open(t, url)
	if !m.failed {
		t.Fatalf("expected an error status, got %q", m.status)
	}
	if len(m.rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(m.rows))
	}
}

func TestExpandAndNavigate(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", " ")
	if len(m.rows) != 6 {
		t.Fatalf("expected 6 rows after expanding COLORES, got %d", len(m.rows))
	}
	press(m, "j")
	if got := m.currentKey(); got != model.RowKey(model.RowKindValue, "ROJO") {
		t.Fatalf("expected cursor on ROJO, got %q", got)
	}

	// Collapsing from a value row lands on its label.
	press(m, " ")
	if len(m.rows) != 3 {
		t.Fatalf("expected collapse back to 3 rows, got %d", len(m.rows))
	}
	if got := m.currentKey(); got != model.RowKey(model.RowKindLabel, "COLORES") {
		t.Fatalf("expected cursor on COLORES, got %q", got)
	}
}

func TestEditCell_EnterQueuesUpdate(t *testing.T) {
	m := newHarness(t).m

	press(m, "G")
	editCell(t, m, "Colores de tela", "enter")

	if m.mode != modeGrid {
		t.Fatalf("expected grid mode after commit, got %v", m.mode)
	}
	if _, ok := m.coord.Active(); ok {
		t.Fatalf("expected no active cell after enter")
	}
	if m.queue.Len() != 1 {
		t.Fatalf("expected 1 queued op, got %d", m.queue.Len())
	}
	if got := labelRowStatus(t, m, "COLORES"); got != model.StatusModified {
		t.Fatalf("expected Modified, got %s", got)
	}
	if got := displayCell(m.queue.Labels(), m.rows[m.cursor].row, focus.ColName); got != "Colores de tela" {
		t.Fatalf("expected optimistic name, got %q", got)
	}
}

func TestEditCell_TabAdvancesToNextColumn(t *testing.T) {
	m := newHarness(t).m

	press(m, "G")
	editCell(t, m, "Colores 2", "tab")

	if m.mode != modeEdit {
		t.Fatalf("expected editor to stay open on the next column")
	}
	if m.editor.Column() != focus.ColLabelID {
		t.Fatalf("expected %s, got %s", focus.ColLabelID, m.editor.Column())
	}
	cell, ok := m.coord.Active()
	if !ok || cell.RowKey != model.RowKey(model.RowKindLabel, "COLORES") || cell.Column != focus.ColLabelID {
		t.Fatalf("unexpected active cell %+v (ok=%v)", cell, ok)
	}
	if m.col != 1 {
		t.Fatalf("expected grid column to follow focus, got %d", m.col)
	}
}

func TestEditCell_TabOnLastColumnClearsFocus(t *testing.T) {
	m := newHarness(t).m

	press(m, "G")
	for range focus.NavigationOrder(model.RowKindLabel) {
		press(m, "l")
	}
	if got := m.currentColumn(); got != focus.ColDescription {
		t.Fatalf("expected last column, got %s", got)
	}
	editCell(t, m, "otra descripcion", "tab")

	if m.mode != modeGrid {
		t.Fatalf("expected grid mode after the last column")
	}
	if _, ok := m.coord.Active(); ok {
		t.Fatalf("expected focus cleared after the last column")
	}
	if m.queue.Len() != 1 {
		t.Fatalf("expected 1 queued op, got %d", m.queue.Len())
	}
}

func TestEditCell_EscapeReverts(t *testing.T) {
	m := newHarness(t).m

	press(m, "G")
	editCell(t, m, "descartado", "esc")

	if m.queue.Len() != 0 {
		t.Fatalf("expected nothing queued, got %d", m.queue.Len())
	}
	if m.mode != modeGrid {
		t.Fatalf("expected grid mode")
	}
	if got := focus.CellText(m.rows[m.cursor].row, focus.ColName); got != "Colores" {
		t.Fatalf("expected original name, got %q", got)
	}
}

func TestEditCell_RenameKeepsCursorOnRow(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "l")
	editCell(t, m, "COLOR", "enter")

	if got := m.currentKey(); got != model.RowKey(model.RowKindLabel, "COLOR") {
		t.Fatalf("expected cursor on renamed row, got %q", got)
	}
	if got := labelRowStatus(t, m, "COLOR"); got != model.StatusModified {
		t.Fatalf("expected Modified, got %s", got)
	}
}

func TestEditCell_DuplicateIDStaysOpen(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "l")
	editCell(t, m, model.SocietyCatalogID, "enter")

	if m.mode != modeEdit || !m.failed {
		t.Fatalf("expected editor to stay open with an error, mode=%v status=%q", m.mode, m.status)
	}
	if m.queue.Len() != 0 {
		t.Fatalf("expected nothing queued")
	}
}

func TestEditCell_SocietyByName(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "l", "l")
	if got := m.currentColumn(); got != focus.ColSocietyID {
		t.Fatalf("expected society column, got %s", got)
	}
	editCell(t, m, "Sociedad Sur", "enter")

	ops := m.queue.Operations()
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(ops))
	}
	if got := model.FieldString(ops[0].Payload.Updates[model.FieldSocietyID]); got != "2" {
		t.Fatalf("expected society 2, got %q", got)
	}
	if got := displayCell(m.queue.Labels(), m.rows[m.cursor].row, focus.ColSocietyID); got != "Sociedad Sur" {
		t.Fatalf("expected society name in grid, got %q", got)
	}

	editCell(t, m, "Sociedad Oeste", "enter")
	if !m.failed || !strings.Contains(m.status, "unknown society") {
		t.Fatalf("expected unknown society error, got %q", m.status)
	}
}

func TestDeleteThenUndoFromOpsPanel(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "d")
	if got := labelRowStatus(t, m, "COLORES"); got != model.StatusMarkedDeleted {
		t.Fatalf("expected MarkedDeleted, got %s", got)
	}
	press(m, "enter")
	if m.mode != modeGrid {
		t.Fatalf("expected deleted rows to refuse editing")
	}

	press(m, "o")
	if m.mode != modeOps {
		t.Fatalf("expected ops panel")
	}
	if view := m.View(); !strings.Contains(view, "DELETE") || !strings.Contains(view, "COLORES") {
		t.Fatalf("expected the delete in the panel, got:\n%s", view)
	}
	press(m, "x", "esc")
	if m.queue.Len() != 0 {
		t.Fatalf("expected undo to empty the queue, got %d", m.queue.Len())
	}
	if got := labelRowStatus(t, m, "COLORES"); got != model.StatusNone {
		t.Fatalf("expected None after undo, got %s", got)
	}
}

func TestSave_SuccessClearsQueue(t *testing.T) {
	h := newHarness(t)
	m := h.m

	press(m, "G")
	editCell(t, m, "Colores de tela", "enter")
	save(t, m)

	if m.queue.Len() != 0 {
		t.Fatalf("expected queue cleared, got %d", m.queue.Len())
	}
	if m.saving || m.failed {
		t.Fatalf("unexpected state saving=%v failed=%v status=%q", m.saving, m.failed, m.status)
	}
	if m.status != "changes saved" {
		t.Fatalf("expected saved message, got %q", m.status)
	}
	if got := labelRowStatus(t, m, "COLORES"); got != model.StatusNone {
		t.Fatalf("expected None after save, got %s", got)
	}

	labels, err := h.db.Labels(context.Background())
	if err != nil {
		t.Fatalf("labels: %v", err)
	}
	if labels[2].Name != "Colores de tela" {
		t.Fatalf("expected backend updated, got %q", labels[2].Name)
	}
}

func TestSave_RejectionKeepsQueue(t *testing.T) {
	h := newHarness(t)
	m := h.m

	press(m, "n")
	for _, v := range []string{"TALLAS", "Tallas", "ropa", "productos", "atributos", ""} {
		m.input.SetValue(v)
		press(m, "enter")
	}
	if m.queue.Len() != 1 {
		t.Fatalf("expected the create queued, got %d (status %q)", m.queue.Len(), m.status)
	}

	// Someone else creates the same label first.
	if _, ok, err := h.db.Apply(context.Background(), []model.Operation{
		model.NewCreate(model.CollectionLabels, model.Fields{model.FieldLabelID: "TALLAS", model.FieldName: "Otra"}),
	}); err != nil || !ok {
		t.Fatalf("apply: ok=%v err=%v", ok, err)
	}

	save(t, m)
	if !m.failed || !strings.Contains(m.status, "DUPLICATE_KEY") {
		t.Fatalf("expected duplicate key error, got %q", m.status)
	}
	if m.queue.Len() != 1 {
		t.Fatalf("expected queue kept, got %d", m.queue.Len())
	}
	if got := labelRowStatus(t, m, "TALLAS"); got != model.StatusCreated {
		t.Fatalf("expected Created kept, got %s", got)
	}
}

func TestNewLabelForm(t *testing.T) {
	m := newHarness(t).m

	press(m, "n")
	if m.mode != modeForm {
		t.Fatalf("expected form mode")
	}
	for _, v := range []string{"TALLAS", "Tallas", "ropa,  talla", "productos", "atributos", "Tallas de ropa"} {
		m.input.SetValue(v)
		press(m, "enter")
	}

	if m.mode != modeGrid {
		t.Fatalf("expected grid mode after submit, status %q", m.status)
	}
	if got := m.currentKey(); got != model.RowKey(model.RowKindLabel, "TALLAS") {
		t.Fatalf("expected cursor on new label, got %q", got)
	}
	l, ok := m.queue.FindLabel("TALLAS")
	if !ok {
		t.Fatalf("expected TALLAS in the model")
	}
	if l.Status != model.StatusCreated || l.Index != "ropa, talla" || l.Sequence != 4 {
		t.Fatalf("unexpected label %+v", l)
	}
}

func TestNewLabelForm_InvalidReturnsToField(t *testing.T) {
	m := newHarness(t).m

	press(m, "n")
	for range labelFormFields {
		m.input.SetValue("")
		press(m, "enter")
	}
	if m.mode != modeForm || !m.failed {
		t.Fatalf("expected form to stay open with an error, mode=%v status=%q", m.mode, m.status)
	}
	if m.form.field() != model.FieldLabelID {
		t.Fatalf("expected first missing field, got %s", m.form.field())
	}
	press(m, "esc")
	if m.mode != modeGrid || m.queue.Len() != 0 {
		t.Fatalf("expected cancel without queueing")
	}
}

func TestNewValueForm(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "N")
	if m.mode != modeForm {
		t.Fatalf("expected form mode, status %q", m.status)
	}
	for _, v := range []string{"VERDE", "Verde", "V", ""} {
		m.input.SetValue(v)
		press(m, "enter")
	}

	if got := m.currentKey(); got != model.RowKey(model.RowKindValue, "VERDE") {
		t.Fatalf("expected cursor on new value, got %q", got)
	}
	v, ok := m.queue.FindValue("COLORES", "VERDE")
	if !ok {
		t.Fatalf("expected VERDE in COLORES")
	}
	if v.Status != model.StatusCreated || v.SocietyID != "1" || v.CediID != "10" || v.Sequence != 4 {
		t.Fatalf("unexpected value %+v", v)
	}
}

func TestSearch_FiltersAsYouType(t *testing.T) {
	m := newHarness(t).m

	press(m, "/", "m", "a", "r", "i", "n", "o")
	if len(m.rows) != 1 {
		t.Fatalf("expected 1 matching label, got %d", len(m.rows))
	}
	press(m, "enter")
	if m.mode != modeGrid || m.search != "marino" {
		t.Fatalf("expected filter kept, mode=%v search=%q", m.mode, m.search)
	}
	press(m, "/", "esc")
	if m.search != "" || len(m.rows) != 3 {
		t.Fatalf("expected filter cleared, search=%q rows=%d", m.search, len(m.rows))
	}
}

func TestReload_RefusedWithPendingChanges(t *testing.T) {
	m := newHarness(t).m

	press(m, "G", "d")
	if cmd := press(m, "r"); cmd != nil {
		t.Fatalf("expected no reload while changes are pending")
	}
	if !strings.Contains(m.status, "before reloading") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestSaving_BlocksMutations(t *testing.T) {
	m := newHarness(t).m

	press(m, "G")
	editCell(t, m, "Colores de tela", "enter")
	cmd := press(m, "s")
	if !m.saving {
		t.Fatalf("expected saving")
	}

	press(m, "k", "d")
	if m.status != errSaving.Error() || m.queue.Len() != 1 {
		t.Fatalf("expected delete refused while saving, status=%q ops=%d", m.status, m.queue.Len())
	}

	m.Update(cmd())
	if m.saving {
		t.Fatalf("expected saving to finish")
	}
}

func TestQuit_ConfirmsPendingChangesAndSavesState(t *testing.T) {
	h := newHarness(t)
	m := h.m

	press(m, "G", " ", "d")
	press(m, "q")
	if m.mode != modeConfirmQuit {
		t.Fatalf("expected quit confirmation")
	}
	if view := m.View(); !strings.Contains(view, "Discard 1 pending changes") {
		t.Fatalf("expected confirmation prompt, got:\n%s", view)
	}
	press(m, "n")
	if m.mode != modeGrid {
		t.Fatalf("expected back to grid")
	}

	press(m, "q")
	cmd := press(m, "y")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}

	st, err := h.state.LoadTUIState()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if st.Cursor != model.RowKey(model.RowKindLabel, "COLORES") {
		t.Fatalf("unexpected saved cursor %q", st.Cursor)
	}
	if len(st.Expanded) != 1 || st.Expanded[0] != "COLORES" {
		t.Fatalf("unexpected saved expansion %v", st.Expanded)
	}
}

func TestState_RestoredOnLaunch(t *testing.T) {
	h := newHarness(t)
	if err := h.state.SaveTUIState(&store.TUIState{
		Expanded: []string{"COLORES"},
		Cursor:   model.RowKey(model.RowKindValue, "AZUL"),
	}); err != nil {
		t.Fatalf("save state: %v", err)
	}

	srv := httptest.NewServer(devserver.NewServer(h.db, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	m := h.open(t, srv.URL)

	if len(m.rows) != 6 {
		t.Fatalf("expected COLORES expanded, got %d rows", len(m.rows))
	}
	if got := m.currentKey(); got != model.RowKey(model.RowKindValue, "AZUL") {
		t.Fatalf("expected cursor restored, got %q", got)
	}
}

func TestView_RendersGrid(t *testing.T) {
	m := newHarness(t).m
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 20})

	press(m, "G", " ", "j")
	editCell(t, m, "Rojo vivo", "enter")

	view := m.View()
	for _, want := range []string{"Sociedades", "Colores", "Rojo vivo", "Azul marino", "1 pending", "VALOR"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines > 20 {
		t.Fatalf("expected view to fit 20 lines, got %d", lines)
	}
}
