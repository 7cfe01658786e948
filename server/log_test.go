package server

import (
	"bytes"
	"testing"

	"github.com/Viet-ph/redis-ae/ae"
	"github.com/Viet-ph/redis-ae/internal/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReadyReportsAddrError(t *testing.T) {
	el, err := ae.New(16)
	require.NoError(t, err)
	defer el.Close()

	var buf bytes.Buffer
	server := &AsyncServer{
		el:     el,
		fd:     -1,
		logger: logging.New(&buf, logiface.LevelInformational),
	}
	server.logReady()

	out := buf.String()
	assert.Contains(t, out, "ready to accept connections")
	assert.Contains(t, out, `"err":`)
	assert.NotContains(t, out, `"addr":`)
}
