package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noFlushWriter struct {
	http.ResponseWriter
}

func TestWriter_Events(t *testing.T) {
	rec := httptest.NewRecorder()

	w, err := NewWriter(rec)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	require.NoError(t, w.WriteEvent("change", map[string]bool{"reloaded": true}))
	require.NoError(t, w.WriteKeepAlive())

	assert.Equal(t, "event: change\ndata: {\"reloaded\":true}\n\n: keepalive\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestWriter_RequiresFlusher(t *testing.T) {
	_, err := NewWriter(noFlushWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
