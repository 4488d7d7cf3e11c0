package devserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/devserver"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"
)

func openSeeded(t *testing.T) *devserver.DB {
	t.Helper()
	ctx := context.Background()
	db, err := devserver.Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seeded, err := db.Seed(ctx, devserver.SampleCatalog())
	require.NoError(t, err)
	require.True(t, seeded)
	return db
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	db := openSeeded(t)
	seeded, err := db.Seed(context.Background(), devserver.SampleCatalog())
	require.NoError(t, err)
	assert.False(t, seeded)

	labels, err := db.Labels(context.Background())
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, model.SocietyCatalogID, labels[0].LabelID)
	assert.Equal(t, "COLORES", labels[2].LabelID)
	require.Len(t, labels[2].Values, 3)
	assert.Equal(t, "AZUL", labels[2].Values[2].ParentValueID)
	assert.Empty(t, labels[2].Values[0].ParentValueID)
}

func TestApplyCommitsBatch(t *testing.T) {
	db := openSeeded(t)
	ctx := context.Background()

	ops := []model.Operation{
		model.NewCreate(model.CollectionLabels, model.Fields{
			model.FieldLabelID: "TALLAS", model.FieldName: "Tallas", model.FieldSequence: 4,
		}),
		model.NewCreate(model.CollectionValues, model.Fields{
			model.FieldLabelID: "TALLAS", model.FieldValueID: "CH", model.FieldValue: "Chica",
		}),
		model.NewUpdate(model.CollectionValues, "ROJO", "COLORES", model.Fields{model.FieldValue: "Rojo vivo"}),
		model.NewDelete(model.CollectionValues, "AZUL_MARINO", "COLORES"),
	}
	results, ok, err := db.Apply(ctx, ops)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, "SUCCESS", r.Status)
		assert.Nil(t, r.Error)
	}
	assert.Equal(t, "CH", results[1].ID)

	labels, err := db.Labels(ctx)
	require.NoError(t, err)
	require.Len(t, labels, 4)
	assert.Equal(t, "TALLAS", labels[3].LabelID)
	assert.Equal(t, model.AllScope, labels[3].SocietyID)
	require.Len(t, labels[3].Values, 1)
	require.Len(t, labels[2].Values, 2)
	assert.Equal(t, "Rojo vivo", labels[2].Values[0].Value)
}

func TestApplyRollsBackOnAnyFailure(t *testing.T) {
	db := openSeeded(t)
	ctx := context.Background()

	ops := []model.Operation{
		model.NewUpdate(model.CollectionLabels, "COLORES", "", model.Fields{model.FieldName: "Changed"}),
		model.NewCreate(model.CollectionLabels, model.Fields{model.FieldLabelID: "CEDI"}),
		model.NewCreate(model.CollectionValues, model.Fields{model.FieldLabelID: "NOPE", model.FieldValueID: "X"}),
		model.NewDelete(model.CollectionValues, "GHOST", "COLORES"),
		{Collection: "otro", Action: model.ActionCreate},
	}
	results, ok, err := db.Apply(ctx, ops)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, results, 5)

	assert.Equal(t, "SUCCESS", results[0].Status)
	codes := []string{}
	for _, r := range results[1:] {
		require.NotNil(t, r.Error)
		assert.Equal(t, "ERROR", r.Status)
		codes = append(codes, r.Error.Code)
	}
	assert.Equal(t, []string{
		devserver.CodeDuplicateKey,
		devserver.CodeParentNotFound,
		devserver.CodeNotFound,
		devserver.CodeInvalidOperation,
	}, codes)

	labels, err := db.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Colores", labels[2].Name)
}

func TestLabelRenameMovesValues(t *testing.T) {
	db := openSeeded(t)
	ctx := context.Background()

	_, ok, err := db.Apply(ctx, []model.Operation{
		model.NewUpdate(model.CollectionLabels, "COLORES", "", model.Fields{model.FieldLabelID: "TONOS"}),
	})
	require.NoError(t, err)
	require.True(t, ok)

	labels, err := db.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TONOS", labels[2].LabelID)
	require.Len(t, labels[2].Values, 3)
	assert.Equal(t, "TONOS", labels[2].Values[0].LabelID)

	_, ok, err = db.Apply(ctx, []model.Operation{model.NewDelete(model.CollectionLabels, "TONOS", "")})
	require.NoError(t, err)
	require.True(t, ok)
	labels, err = db.Labels(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 2)
}

func TestServerRejectsUnknownProcess(t *testing.T) {
	srv := httptest.NewServer(devserver.NewServer(openSeeded(t), zerolog.Nop()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cat/crudLabelsValues?ProcessType=Nope", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "BAD_REQUEST", body["error"]["code"])
}

func TestServerHealthAndCORS(t *testing.T) {
	srv := httptest.NewServer(devserver.NewServer(openSeeded(t), zerolog.Nop()).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(devserver.NewServer(openSeeded(t), zerolog.Nop()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cat/crudLabelsValues?ProcessType=CRUD", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoundTripThroughSyncService(t *testing.T) {
	srv := httptest.NewServer(devserver.NewServer(openSeeded(t), zerolog.Nop()).Handler())
	defer srv.Close()
	ctx := context.Background()

	queue := opqueue.New()
	svc := catalogsync.New(catalogsync.Config{BaseURL: srv.URL, LoggedUser: "dev"}, queue)

	labels := svc.FetchAll(ctx)
	require.Len(t, labels, 3)
	assert.Equal(t, "1", labels[2].SocietyID)
	assert.Equal(t, "AZUL", labels[2].Values[2].ParentValueID)

	queue.AddOperation(model.NewUpdate(model.CollectionValues, "AZUL", "COLORES", model.Fields{model.FieldAlias: "AZ"}))
	queue.AddOperation(model.NewCreate(model.CollectionValues, model.Fields{
		model.FieldLabelID: "COLORES", model.FieldValueID: "VERDE", model.FieldValue: "Verde", model.FieldSequence: 4,
	}))
	res := svc.SubmitBatch(ctx)
	require.True(t, res.Success, "%+v", res.Errors)
	assert.Zero(t, queue.Len())

	labels = svc.FetchAll(ctx)
	v, ok := queue.FindValue("COLORES", "VERDE")
	require.True(t, ok)
	assert.Equal(t, model.StatusNone, v.Status)
	require.Len(t, labels[2].Values, 4)
	assert.Equal(t, "AZ", labels[2].Values[1].Alias)

	// A duplicate value id is rejected and the queue survives.
	queue.AddOperation(model.NewCreate(model.CollectionValues, model.Fields{
		model.FieldLabelID: "COLORES", model.FieldValueID: "ROJO", model.FieldValue: "Otro rojo",
	}))
	res = svc.SubmitBatch(ctx)
	require.False(t, res.Success)
	var syncErr *catalogsync.SyncError
	require.ErrorAs(t, res.Err(), &syncErr)
	assert.Equal(t, []string{devserver.CodeDuplicateKey}, syncErr.Codes())
	assert.Equal(t, 1, queue.Len())
}
