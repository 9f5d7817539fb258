// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import (
	"bytes"
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/bassosimone/tlsstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// newMockTLSEngine returns a [*tlsstub.FuncTLSEngine] that wraps the given
// [TLSConn]. The engine's ClientFunc returns the conn, NameFunc returns
// "mock", and ParrotFunc returns "".
func newMockTLSEngine(conn TLSConn) *tlsstub.FuncTLSEngine[TLSConn] {
	return &tlsstub.FuncTLSEngine[TLSConn]{
		ClientFunc: func(c net.Conn, config *tls.Config) TLSConn {
			return conn
		},
		NameFunc: func() string {
			return "mock"
		},
		ParrotFunc: func() string {
			return ""
		},
	}
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// scriptedConn is an in-memory [net.Conn] that serves a fixed byte sequence
// to readers and records every write; deadlines are accepted but never
// enforced. Use [net.Pipe] instead when a test needs a real timeout to
// fire.
type scriptedConn struct {
	r      *bytes.Reader
	w      bytes.Buffer
	closed bool
}

// newScriptedConn returns a [*scriptedConn] whose Read side replays data.
func newScriptedConn(data []byte) *scriptedConn {
	return &scriptedConn{r: bytes.NewReader(data)}
}

func (c *scriptedConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *scriptedConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *scriptedConn) Close() error                { c.closed = true; return nil }
func (c *scriptedConn) LocalAddr() net.Addr         { return &net.TCPAddr{} }
func (c *scriptedConn) RemoteAddr() net.Addr        { return &net.TCPAddr{} }
func (c *scriptedConn) SetDeadline(time.Time) error      { return nil }
func (c *scriptedConn) SetReadDeadline(time.Time) error  { return nil }
func (c *scriptedConn) SetWriteDeadline(time.Time) error { return nil }

// newConnectedSession builds a [*Session] already in the connected state,
// backed by conn, skipping the HELLO/SELECT handshake. Used by tests that
// exercise [Session.Call] and friends without scripting a handshake
// round trip.
func newConnectedSession(cfg *Config, scfg *SessionConfig, logger SLogger, conn net.Conn) *Session {
	s := NewSession(cfg, scfg, logger)
	s.stream = NewBufferedStream(conn, cfg, scfg, logger)
	s.decoder = NewDecoder(s.stream)
	s.state = stateConnected
	return s
}
