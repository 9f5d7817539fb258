// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Transaction issues WATCH, brackets the built commands with MULTI/EXEC,
// and returns the EXEC reply.
func TestTransactionMultiExec(t *testing.T) {
	wire := "+OK\r\n" + // WATCH
		"+OK\r\n" + // MULTI
		"+QUEUED\r\n" + // SET
		"+QUEUED\r\n" + // INCR
		"*2\r\n+OK\r\n:1\r\n" // EXEC
	conn := newScriptedConn([]byte(wire))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	result, err := s.Transaction(context.Background(), []string{"k"}, func(b *PipelineBuilder) error {
		b.Command("SET", "k", "v")
		b.Command("INCR", "ctr")
		return nil
	})
	require.NoError(t, err)
	arr, ok := result.(Array)
	require.True(t, ok)
	assert.Equal(t, Array{SimpleString("OK"), Integer(1)}, arr)
	assert.Contains(t, conn.w.String(), "WATCH")
	assert.Contains(t, conn.w.String(), "MULTI")
	assert.Contains(t, conn.w.String(), "EXEC")
}

// Transaction skips WATCH entirely when no keys are given.
func TestTransactionNoWatch(t *testing.T) {
	wire := "+OK\r\n" + // MULTI
		"+QUEUED\r\n" + // PING
		"*1\r\n+PONG\r\n" // EXEC
	conn := newScriptedConn([]byte(wire))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	_, err := s.Transaction(context.Background(), nil, func(b *PipelineBuilder) error {
		b.Command("PING")
		return nil
	})
	require.NoError(t, err)
	assert.NotContains(t, conn.w.String(), "WATCH")
}

// If the builder callback fails, the Session issues UNWATCH and surfaces
// the builder's error; the MULTI/EXEC batch is never sent.
func TestTransactionBuilderFailureIssuesUnwatch(t *testing.T) {
	wire := "+OK\r\n" + // WATCH
		"+OK\r\n" // UNWATCH
	conn := newScriptedConn([]byte(wire))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	buildErr := errors.New("builder failed")
	_, err := s.Transaction(context.Background(), []string{"k"}, func(b *PipelineBuilder) error {
		b.Command("SET", "k", "v")
		return buildErr
	})
	require.ErrorIs(t, err, buildErr)
	assert.Contains(t, conn.w.String(), "UNWATCH")
	assert.NotContains(t, conn.w.String(), "MULTI")
}

// A failure in the EXEC round trip itself does NOT issue UNWATCH: only the
// builder-callback failure path releases the WATCH.
func TestTransactionExecFailureDoesNotUnwatch(t *testing.T) {
	wire := "+OK\r\n" + // WATCH
		"+OK\r\n" + // MULTI
		"+QUEUED\r\n" + // SET
		"-ERR EXEC failed\r\n" // EXEC
	conn := newScriptedConn([]byte(wire))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	_, err := s.Transaction(context.Background(), []string{"k"}, func(b *PipelineBuilder) error {
		b.Command("SET", "k", "v")
		return nil
	})
	require.Error(t, err)
	assert.NotContains(t, conn.w.String(), "UNWATCH")
}

// A WATCH failure aborts before MULTI is ever sent.
func TestTransactionWatchFailure(t *testing.T) {
	conn := newScriptedConn([]byte("-ERR watch failed\r\n"))
	s := newConnectedSession(NewConfig(), NewSessionConfig(), DefaultSLogger(), conn)

	_, err := s.Transaction(context.Background(), []string{"k"}, func(b *PipelineBuilder) error {
		b.Command("SET", "k", "v")
		return nil
	})
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.NotContains(t, conn.w.String(), "MULTI")
}
