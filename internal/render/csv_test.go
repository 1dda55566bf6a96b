package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStreamerFlushInterval(t *testing.T) {
	var buf bytes.Buffer
	streamer := NewCSVStreamer(&buf)
	for i := 0; i < csvFlushEvery; i++ {
		require.NoError(t, streamer.WriteRow([]string{"row"}))
	}
	assert.Zero(t, streamer.pendingLines, "pending lines reset after flush")

	require.NoError(t, streamer.WriteRow([]string{"next"}))
	assert.Equal(t, 1, streamer.pendingLines)
	require.NoError(t, streamer.Close())
}

func TestCSVStreamerCommentsAndCRLF(t *testing.T) {
	var buf bytes.Buffer
	streamer := NewCSVStreamer(&buf)
	require.NoError(t, streamer.WriteComment("# Report: Receivables Aging"))
	require.NoError(t, streamer.WriteRow([]string{"Invoice", "Days Overdue", "Bucket"}))
	require.NoError(t, streamer.Close())

	content := buf.String()
	assert.True(t, strings.HasPrefix(content, "# Report: Receivables Aging\r\n"))
	assert.Contains(t, content, "Invoice,Days Overdue,Bucket\r\n")
}
