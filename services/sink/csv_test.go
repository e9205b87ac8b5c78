package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSink(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir)
	assert.Equal(t, filepath.Join(dir, "春天", "春天.csv"), s.Path("#春天#"))

	rec := testRecord()
	require.NoError(t, s.Write(context.Background(), rec))
	rec.Post.ID = "5000000000000002"
	require.NoError(t, s.Write(context.Background(), rec))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(s.Path("#春天#"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), bom))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), bom))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "5000000000000001", rows[1][0])
	assert.Equal(t, "小明", rows[1][7])
	assert.Equal(t, "12000", rows[1][11])
	assert.Equal(t, "超级会员", rows[1][19])
	assert.Equal(t, "5", rows[1][20])
	assert.Equal(t, "5000000000000002", rows[2][0])
}
