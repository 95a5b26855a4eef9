package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	DecisionsTotal.WithLabelValues("play").Inc()
	PlaylistsGauge.Set(3)

	path := filepath.Join(t.TempDir(), "oldplayer.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `oldplayer_decisions_total{kind="play"}`)
	assert.Contains(t, string(data), "oldplayer_playlists 3")
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "oldplayer.prom"))
	assert.Error(t, err)
}
