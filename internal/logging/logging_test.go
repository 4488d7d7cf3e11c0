package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"catalog-editor/internal/logging"
)

func TestFromWriter(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	lg, err := logging.New().FromWriter(buf).Level("warn").Make()
	require.NoError(t, err)

	lg.Info().Msg("hidden")
	require.Zero(t, buf.Len())
	lg.Warn().Str("label", "L1").Msg("shown")
	require.Contains(t, buf.String(), `"label":"L1"`)
	require.Contains(t, buf.String(), "shown")
	require.NoError(t, lg.Close())
}

func TestFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "catalog.log")
	lg, err := logging.New().FromPath(path).Make()
	require.NoError(t, err)

	lg.Info().Msg("to file")
	require.NoError(t, lg.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "to file")
}

func TestDiscard(t *testing.T) {
	lg, err := logging.New().Level("bogus").Make()
	require.NoError(t, err)
	lg.Error().Msg("nowhere")
	require.NoError(t, lg.Close())
}
