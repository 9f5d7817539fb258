// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Command and CommandWithTimeout both encode into the shared buffer and
// count toward Len.
func TestPipelineBuilderCommand(t *testing.T) {
	b := NewPipelineBuilder()
	b.Command("PING")
	d := 2 * time.Second
	b.CommandWithTimeout(&d, "GET", "k")
	assert.Equal(t, 2, b.Len())
	assert.Contains(t, string(b.buf), "PING")
	assert.Contains(t, string(b.buf), "GET")
}

// Pipeline writes every queued command in one flush and decodes replies in
// order.
func TestPipelineOrdering(t *testing.T) {
	conn := newScriptedConn([]byte("+PONG\r\n:1\r\n+OK\r\n"))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	results, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.Command("PING")
		b.Command("INCR", "ctr")
		b.Command("SET", "k", "v")
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, SimpleString("PONG"), results[0])
	assert.Equal(t, Integer(1), results[1])
	assert.Equal(t, SimpleString("OK"), results[2])
}

// A mid-pipeline command-error surfaces as the first (lowest-indexed) error
// and discards the otherwise-successful results.
func TestPipelineMidError(t *testing.T) {
	conn := newScriptedConn([]byte("+OK\r\n-WRONGTYPE bad\r\n:1\r\n"))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	results, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.Command("SET", "k", "v")
		b.Command("INCR", "k")
		b.Command("PING")
	})
	require.Nil(t, results)
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "WRONGTYPE", ce.Code)
}

// Multiple command-errors raise the lowest-indexed one.
func TestPipelineFirstErrorWins(t *testing.T) {
	conn := newScriptedConn([]byte("-ERR first\r\n-ERR second\r\n"))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	_, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.Command("BAD1")
		b.Command("BAD2")
	})
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "first", ce.Message)
}

// A transport failure mid-decode faults the Session immediately.
func TestPipelineTransportError(t *testing.T) {
	conn := newScriptedConn([]byte("+OK\r\n")) // one reply short
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	_, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.Command("PING")
		b.Command("PING")
	})
	require.Error(t, err)
	assert.Equal(t, stateFaulted, s.state)
}

// A per-slot zero-duration override times out immediately, independent of
// the Session's ambient read timeout, when nothing is pending for that slot.
func TestPipelinePerSlotTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	go io.Copy(io.Discard, server)
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), client)

	zero := time.Duration(0)
	_, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.CommandWithTimeout(&zero, "BLPOP", "list", "0")
	})
	require.Error(t, err)
	var rt *ReadTimeoutError
	require.ErrorAs(t, err, &rt)
}

// Pipeline emits pipelineDispatchStart/Done log events.
func TestPipelineLogging(t *testing.T) {
	logger, records := newCapturingLogger()
	conn := newScriptedConn([]byte("+PONG\r\n"))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), logger, conn)

	_, err := s.Pipeline(context.Background(), func(b *PipelineBuilder) {
		b.Command("PING")
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(*records), 2)
	assert.Equal(t, "pipelineDispatchStart", (*records)[0].Message)
	assert.Equal(t, "pipelineDispatchDone", (*records)[len(*records)-1].Message)
}
