package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairs [][2]string

func (p pairs) Header() []string { return []string{"KEY", "VALUE"} }
func (p pairs) Rows() [][]string {
	out := make([][]string, 0, len(p))
	for _, kv := range p {
		out = append(out, []string{kv[0], kv[1]})
	}
	return out
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"data": []int{1, 2}}, "", false))
	assert.Equal(t, "{\"data\":[1,2]}\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, map[string]any{"a": 1}, "json", true))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"data": pairs{{"apiUrl", "http://x"}}}, "table", false))
	out := buf.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "apiUrl")
	assert.Contains(t, out, "http://x")

	assert.Error(t, Write(&buf, 42, "table", false))
	assert.Error(t, Write(&buf, 42, "edn", false))
}
