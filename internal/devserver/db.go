package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/model"

	_ "modernc.org/sqlite"
)

// Result codes reported per operation.
const (
	CodeDuplicateKey     = "DUPLICATE_KEY"
	CodeParentNotFound   = "PARENT_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidOperation = "INVALID_OPERATION"
)

const (
	statusSuccess = "SUCCESS"
	statusError   = "ERROR"
)

// OpResult is the outcome of one operation of a batch.
type OpResult struct {
	Status     string                   `json:"status"`
	Operation  string                   `json:"operation"`
	Collection string                   `json:"collection"`
	ID         string                   `json:"id"`
	Error      *catalogsync.ErrorDetail `json:"error,omitempty"`
}

// opError rejects one operation without failing the transaction.
type opError struct {
	code string
	msg  string
}

func (e *opError) Error() string { return e.code + ": " + e.msg }

func reject(code, format string, args ...any) error {
	return &opError{code: code, msg: fmt.Sprintf(format, args...)}
}

// DB is the SQLite-backed catalog of the development backend.
type DB struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	d := &DB{db: db}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS labels (
			id TEXT PRIMARY KEY,
			society TEXT NOT NULL,
			cedi TEXT NOT NULL,
			name TEXT NOT NULL,
			idx TEXT NOT NULL,
			collection TEXT NOT NULL,
			section TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			image TEXT NOT NULL,
			route TEXT NOT NULL,
			description TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS label_values (
			id TEXT PRIMARY KEY,
			label_id TEXT NOT NULL REFERENCES labels(id) ON UPDATE CASCADE ON DELETE CASCADE,
			society TEXT NOT NULL,
			cedi TEXT NOT NULL,
			parent_value_id TEXT,
			value TEXT NOT NULL,
			alias TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			image TEXT NOT NULL,
			route TEXT NOT NULL,
			description TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_label_values_label ON label_values(label_id, sequence);`,
	}
	for _, st := range stmts {
		if _, err := d.db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const labelColumns = `id, society, cedi, name, idx, collection, section, sequence, image, route, description`
const valueColumns = `id, label_id, society, cedi, parent_value_id, value, alias, sequence, image, route, description`

// Labels returns the whole catalog ordered by sequence.
func (d *DB) Labels(ctx context.Context) ([]model.Label, error) {
	return loadLabels(ctx, d.db)
}

func loadLabels(ctx context.Context, q querier) ([]model.Label, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+labelColumns+` FROM labels ORDER BY sequence, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []model.Label
	byID := map[string]int{}
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.LabelID, &l.SocietyID, &l.CediID, &l.Name, &l.Index, &l.Collection,
			&l.Section, &l.Sequence, &l.Image, &l.Route, &l.Description); err != nil {
			return nil, err
		}
		l.Values = []model.Value{}
		byID[l.LabelID] = len(labels)
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := q.QueryContext(ctx, `SELECT `+valueColumns+` FROM label_values ORDER BY label_id, sequence, id`)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		v, err := scanValue(vrows)
		if err != nil {
			return nil, err
		}
		if i, ok := byID[v.LabelID]; ok {
			labels[i].Values = append(labels[i].Values, v)
		}
	}
	return labels, vrows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanValue(s scanner) (model.Value, error) {
	var v model.Value
	var parent sql.NullString
	err := s.Scan(&v.ValueID, &v.LabelID, &v.SocietyID, &v.CediID, &parent, &v.Value, &v.Alias,
		&v.Sequence, &v.Image, &v.Route, &v.Description)
	v.ParentValueID = parent.String
	return v, err
}

// Seed inserts labels when the catalog is empty. It reports whether anything was written.
func (d *DB) Seed(ctx context.Context, labels []model.Label) (bool, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM labels`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, l := range labels {
		if err := insertLabel(ctx, tx, l); err != nil {
			return false, err
		}
		for _, v := range l.Values {
			v.LabelID = l.LabelID
			if err := insertValue(ctx, tx, v); err != nil {
				return false, err
			}
		}
	}
	return true, tx.Commit()
}

// Apply runs a batch in one transaction. Every operation gets a result; if any
// operation is rejected nothing is committed and ok is false.
func (d *DB) Apply(ctx context.Context, ops []model.Operation) (results []OpResult, ok bool, err error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	ok = true
	results = make([]OpResult, 0, len(ops))
	for _, op := range ops {
		res := OpResult{
			Status:     statusSuccess,
			Operation:  string(op.Action),
			Collection: string(op.Collection),
			ID:         op.TargetID(),
		}
		if err := applyOp(ctx, tx, op); err != nil {
			var oe *opError
			if !errors.As(err, &oe) {
				return nil, false, err
			}
			ok = false
			res.Status = statusError
			res.Error = &catalogsync.ErrorDetail{Code: oe.code, Message: oe.msg}
		}
		results = append(results, res)
	}
	if !ok {
		return results, false, nil
	}
	return results, true, tx.Commit()
}

func applyOp(ctx context.Context, tx *sql.Tx, op model.Operation) error {
	switch op.Collection {
	case model.CollectionLabels:
		switch op.Action {
		case model.ActionCreate:
			return createLabel(ctx, tx, op.Payload.Fields)
		case model.ActionUpdate:
			return updateLabel(ctx, tx, op.Payload.ID, op.Payload.Updates)
		case model.ActionDelete:
			return deleteRow(ctx, tx, "labels", op.Payload.ID)
		}
	case model.CollectionValues:
		switch op.Action {
		case model.ActionCreate:
			return createValue(ctx, tx, op.Payload.Fields)
		case model.ActionUpdate:
			return updateValue(ctx, tx, op.Payload.ID, op.Payload.Updates)
		case model.ActionDelete:
			return deleteRow(ctx, tx, "label_values", op.Payload.ID)
		}
	}
	return reject(CodeInvalidOperation, "unsupported %s on %q", op.Action, op.Collection)
}

func exists(ctx context.Context, q querier, table, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func createLabel(ctx context.Context, tx *sql.Tx, f model.Fields) error {
	l := model.NewLabel(f)
	if strings.TrimSpace(l.LabelID) == "" {
		return reject(CodeInvalidOperation, "IDETIQUETA is required")
	}
	dup, err := exists(ctx, tx, "labels", l.LabelID)
	if err != nil {
		return err
	}
	if dup {
		return reject(CodeDuplicateKey, "label %q already exists", l.LabelID)
	}
	return insertLabel(ctx, tx, l)
}

func insertLabel(ctx context.Context, q querier, l model.Label) error {
	_, err := q.ExecContext(ctx, `INSERT INTO labels(`+labelColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.LabelID, l.SocietyID, l.CediID, l.Name, l.Index, l.Collection, l.Section, l.Sequence, l.Image, l.Route, l.Description)
	return err
}

func updateLabel(ctx context.Context, tx *sql.Tx, id string, updates model.Fields) error {
	row := tx.QueryRowContext(ctx, `SELECT `+labelColumns+` FROM labels WHERE id = ?`, id)
	var l model.Label
	err := row.Scan(&l.LabelID, &l.SocietyID, &l.CediID, &l.Name, &l.Index, &l.Collection,
		&l.Section, &l.Sequence, &l.Image, &l.Route, &l.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return reject(CodeNotFound, "label %q not found", id)
	}
	if err != nil {
		return err
	}
	model.ApplyLabelFields(&l, updates)
	if l.LabelID != id {
		if strings.TrimSpace(l.LabelID) == "" {
			return reject(CodeInvalidOperation, "IDETIQUETA cannot be empty")
		}
		dup, err := exists(ctx, tx, "labels", l.LabelID)
		if err != nil {
			return err
		}
		if dup {
			return reject(CodeDuplicateKey, "label %q already exists", l.LabelID)
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE labels SET id = ?, society = ?, cedi = ?, name = ?, idx = ?, collection = ?,
		section = ?, sequence = ?, image = ?, route = ?, description = ? WHERE id = ?`,
		l.LabelID, l.SocietyID, l.CediID, l.Name, l.Index, l.Collection, l.Section, l.Sequence, l.Image, l.Route, l.Description, id)
	return err
}

func createValue(ctx context.Context, tx *sql.Tx, f model.Fields) error {
	v := model.NewValue(f)
	if strings.TrimSpace(v.ValueID) == "" {
		return reject(CodeInvalidOperation, "IDVALOR is required")
	}
	if err := checkValueRefs(ctx, tx, v, true); err != nil {
		return err
	}
	dup, err := exists(ctx, tx, "label_values", v.ValueID)
	if err != nil {
		return err
	}
	if dup {
		return reject(CodeDuplicateKey, "value %q already exists", v.ValueID)
	}
	return insertValue(ctx, tx, v)
}

// checkValueRefs verifies the owning label and, when asked, the parent value.
func checkValueRefs(ctx context.Context, tx *sql.Tx, v model.Value, parent bool) error {
	ok, err := exists(ctx, tx, "labels", v.LabelID)
	if err != nil {
		return err
	}
	if !ok {
		return reject(CodeParentNotFound, "label %q not found", v.LabelID)
	}
	if !parent || v.ParentValueID == "" {
		return nil
	}
	ok, err = exists(ctx, tx, "label_values", v.ParentValueID)
	if err != nil {
		return err
	}
	if !ok {
		return reject(CodeParentNotFound, "parent value %q not found", v.ParentValueID)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func insertValue(ctx context.Context, q querier, v model.Value) error {
	_, err := q.ExecContext(ctx, `INSERT INTO label_values(`+valueColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ValueID, v.LabelID, v.SocietyID, v.CediID, nullable(v.ParentValueID), v.Value, v.Alias, v.Sequence, v.Image, v.Route, v.Description)
	return err
}

func updateValue(ctx context.Context, tx *sql.Tx, id string, updates model.Fields) error {
	v, err := scanValue(tx.QueryRowContext(ctx, `SELECT `+valueColumns+` FROM label_values WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return reject(CodeNotFound, "value %q not found", id)
	}
	if err != nil {
		return err
	}
	model.ApplyValueFields(&v, updates)
	if err := checkValueRefs(ctx, tx, v, updates.Has(model.FieldParentValueID)); err != nil {
		return err
	}
	if v.ValueID != id {
		if strings.TrimSpace(v.ValueID) == "" {
			return reject(CodeInvalidOperation, "IDVALOR cannot be empty")
		}
		dup, err := exists(ctx, tx, "label_values", v.ValueID)
		if err != nil {
			return err
		}
		if dup {
			return reject(CodeDuplicateKey, "value %q already exists", v.ValueID)
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE label_values SET id = ?, label_id = ?, society = ?, cedi = ?, parent_value_id = ?,
		value = ?, alias = ?, sequence = ?, image = ?, route = ?, description = ? WHERE id = ?`,
		v.ValueID, v.LabelID, v.SocietyID, v.CediID, nullable(v.ParentValueID), v.Value, v.Alias, v.Sequence,
		v.Image, v.Route, v.Description, id)
	return err
}

func deleteRow(ctx context.Context, tx *sql.Tx, table, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reject(CodeNotFound, "%s %q not found", strings.TrimSuffix(strings.TrimPrefix(table, "label_"), "s"), id)
	}
	return nil
}
