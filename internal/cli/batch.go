package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"
	"catalog-editor/internal/validate"

	"github.com/spf13/cobra"
)

// batchFile is either a bare JSON array of operations or {"operations": [...]}.
type batchFile struct {
	Operations []model.Operation `json:"operations"`
}

func readBatchFile(path string) ([]model.Operation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	var ops []model.Operation
	if len(b) > 0 && b[0] == '[' {
		err = json.Unmarshal(b, &ops)
	} else {
		var f batchFile
		err = json.Unmarshal(b, &f)
		ops = f.Operations
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, op := range ops {
		if _, err := model.ParseCollection(string(op.Collection)); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		if _, err := model.ParseAction(string(op.Action)); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
	}
	return ops, nil
}

// checkOperation validates op against the catalog as it stands with the earlier
// operations applied.
func checkOperation(queue *opqueue.Store, op model.Operation) error {
	labels := queue.Labels()
	switch op.Action {
	case model.ActionCreate:
		if op.Collection == model.CollectionLabels {
			return validate.NewLabel(labels, op.Payload.Fields)
		}
		return validate.NewValue(labels, op.Payload.Fields)
	case model.ActionUpdate, model.ActionDelete:
		row, ok := queue.Row(op.Collection, op.Payload.LabelID, op.Payload.ID)
		if !ok {
			return errNotFound(op.Collection.Kind().String(), op.Payload.ID)
		}
		if op.Action == model.ActionUpdate {
			return validate.Update(labels, row, op.Payload.Updates)
		}
	}
	return nil
}

// plannedRow is a row whose edit status the queued operations changed.
type plannedRow struct {
	Kind    string           `json:"kind"`
	ID      string           `json:"id"`
	LabelID string           `json:"labelId,omitempty"`
	Status  model.EditStatus `json:"status"`
}

type batchPlan struct {
	Operations  []model.Operation `json:"operations"`
	ChangedRows []plannedRow      `json:"rows"`
}

func (p batchPlan) Header() []string {
	return []string{"ACTION", "COLLECTION", "ID", "STATUS"}
}

func (p batchPlan) Rows() [][]string {
	status := map[string]model.EditStatus{}
	for _, r := range p.ChangedRows {
		status[r.Kind+":"+r.ID] = r.Status
	}
	out := make([][]string, 0, len(p.Operations))
	for _, op := range p.Operations {
		id := op.TargetID()
		st := status[op.Collection.Kind().String()+":"+id]
		if st == "" {
			st = model.StatusNone
		}
		out = append(out, []string{string(op.Action), string(op.Collection), id, string(st)})
	}
	return out
}

func changedRows(labels []model.Label) []plannedRow {
	out := []plannedRow{}
	for _, l := range labels {
		if l.Status != "" && l.Status != model.StatusNone {
			out = append(out, plannedRow{Kind: model.RowKindLabel.String(), ID: l.LabelID, Status: l.Status})
		}
		for _, v := range l.Values {
			if v.Status != "" && v.Status != model.StatusNone {
				out = append(out, plannedRow{Kind: model.RowKindValue.String(), ID: v.ValueID, LabelID: l.LabelID, Status: v.Status})
			}
		}
	}
	return out
}

type stagedBatch struct {
	queue *opqueue.Store
	svc   *catalogsync.Service
	done  func()
}

// stageBatch fetches the catalog and queues every operation of the file, stopping at
// the first one that fails validation. The caller must call done.
func stageBatch(cmd *cobra.Command, app *App, path string) (*stagedBatch, error) {
	ops, err := readBatchFile(path)
	if err != nil {
		return nil, err
	}
	log, done, err := app.logger(cmd)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*stagedBatch, error) {
		done()
		return nil, err
	}

	queue := opqueue.New(opqueue.WithLogger(log))
	svc, err := app.service(queue, log)
	if err != nil {
		return fail(err)
	}
	labels, err := svc.Load(cmd.Context())
	if err != nil {
		return fail(err)
	}
	queue.SetLabels(labels)

	for i, op := range ops {
		if err := checkOperation(queue, op); err != nil {
			return fail(fmt.Errorf("operation %d (%s %s %s): %w", i+1, op.Action, op.Collection, op.TargetID(), err))
		}
		queue.AddOperation(op)
	}
	return &stagedBatch{queue: queue, svc: svc, done: done}, nil
}

func newBatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Stage and submit operation files",
		Long: strings.TrimSpace(`
A batch file holds CREATE/UPDATE/DELETE operations in the backend wire shape:

  [
    {"collection": "labels", "action": "CREATE",
     "payload": {"IDETIQUETA": "TALLAS", "ETIQUETA": "Tallas", "INDICE": "talla",
                 "COLECCION": "productos", "SECCION": "atributos"}},
    {"collection": "values", "action": "UPDATE",
     "payload": {"id": "ROJO", "IDETIQUETA": "COLORES", "updates": {"ALIAS": "RJ"}}}
  ]

Operations are queued in order exactly as the editor would queue them, so later
operations merge with or cancel earlier ones on the same row.
`),
	}
	cmd.AddCommand(newBatchPlanCmd(app))
	cmd.AddCommand(newBatchSubmitCmd(app))
	return cmd
}

func newBatchPlanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <file>",
		Short: "Show the reconciled queue a batch file produces, without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := stageBatch(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.done()
			return writeOut(cmd, app, map[string]any{"data": batchPlan{
				Operations:  b.queue.Operations(),
				ChangedRows: changedRows(b.queue.Labels()),
			}})
		},
	}
}

func newBatchSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file>",
		Short: "Queue a batch file and submit it in one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := stageBatch(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.done()
			res := b.svc.SubmitBatch(cmd.Context())
			if err := writeOut(cmd, app, map[string]any{"data": res}); err != nil {
				return err
			}
			if err := res.Err(); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
