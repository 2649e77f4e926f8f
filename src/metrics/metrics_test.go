package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New(DefaultConfig())

	r.MessageSent(2 * time.Second)
	r.MessageSent(time.Second)
	r.MessageFailed()
	r.Chunk()
	r.Chunk()
	r.FirstChunk(300 * time.Millisecond)
	r.SuggestionRun(5, nil)
	r.SuggestionRun(0, errors.New("boom"))
	r.Title("set")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.messages.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.messages.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.chunks))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.promptsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.suggestionRuns.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.titles.WithLabelValues("set")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.MessageSent(time.Second)
	r.MessageFailed()
	r.Chunk()
	r.SuggestionRun(1, nil)
	assert.NoError(t, r.WriteToTextfile("/nonexistent/metrics.prom"))
}

func TestWriteToTextfile(t *testing.T) {
	r := New(Config{})
	r.MessageSent(time.Second)

	path := filepath.Join(t.TempDir(), "gem.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `gem_chat_messages_total{status="sent"} 1`))
}
