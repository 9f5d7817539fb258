//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package resp3

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/bassosimone/safeconn"
)

// Dialer abstracts the [*net.Dialer] behavior.
//
// By depending on an abstract implementation we allow for unit testing and
// for using alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Dial opens a [net.Conn] for the given [*SessionConfig]: it dials TCP or
// Unix-domain per [SessionConfig.Path], disables Nagle's algorithm for TCP,
// and layers TLS on top when [SessionConfig.SSL] is set.
//
// A TCP dial is bounded by [SessionConfig.ConnectTimeout]; on exhaustion it
// fails with [*ConnectTimeoutError]. Unix-domain dials open unconditionally,
// without this deadline. The TLS handshake, when performed, is bounded by
// a separate [SessionConfig.ConnectTimeout] deadline that starts once the
// dial has completed, for TCP and Unix-domain dials alike.
func Dial(ctx context.Context, cfg *Config, scfg *SessionConfig, logger SLogger) (net.Conn, error) {
	network, address := scfg.network()

	dialCtx := ctx
	if network == "tcp" && scfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, scfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := dialOne(dialCtx, cfg, network, address, logger)
	if err != nil {
		return nil, err
	}

	if network == "tcp" {
		if err := setNoDelay(conn); err != nil {
			conn.Close()
			return nil, &ConnectionError{Err: err}
		}
	}

	if !scfg.SSL {
		return conn, nil
	}

	handshakeCtx := ctx
	if scfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, scfg.ConnectTimeout)
		defer cancel()
	}
	return HandshakeTLS(handshakeCtx, cfg, conn, scfg, logger)
}

// dialOne performs a single dial attempt, logging the span and translating
// a context-deadline failure into [*ConnectTimeoutError].
func dialOne(ctx context.Context, cfg *Config, network, address string, logger SLogger) (net.Conn, error) {
	t0 := cfg.TimeNow()
	deadline, _ := ctx.Deadline()
	logConnectStart(logger, network, address, t0, deadline)
	conn, err := cfg.Dialer.DialContext(ctx, network, address)
	logConnectDone(logger, cfg, network, address, t0, deadline, conn, err)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ConnectTimeoutError{Err: err}
		}
		return nil, &ConnectionError{Err: err}
	}
	return conn, nil
}

// tcpNoDelaySetter is implemented by [*net.TCPConn] and by test doubles
// that want to observe SetNoDelay calls.
type tcpNoDelaySetter interface {
	SetNoDelay(bool) error
}

// setNoDelay disables Nagle's algorithm on conn when it supports the
// optional [tcpNoDelaySetter] interface. Pipelines and transactions
// otherwise suffer an extra round trip per command.
func setNoDelay(conn net.Conn) error {
	nd, ok := conn.(tcpNoDelaySetter)
	if !ok {
		return nil
	}
	return nd.SetNoDelay(true)
}

func logConnectStart(logger SLogger, network, address string, t0 time.Time, deadline time.Time) {
	logger.Info(
		"connectStart",
		slog.Time("deadline", deadline),
		slog.String("protocol", network),
		slog.String("remoteAddr", address),
		slog.Time("t", t0),
	)
}

func logConnectDone(logger SLogger, cfg *Config, network, address string,
	t0 time.Time, deadline time.Time, conn net.Conn, err error) {
	logger.Info(
		"connectDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", cfg.ErrClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", network),
		slog.String("remoteAddr", address),
		slog.Time("t0", t0),
		slog.Time("t", cfg.TimeNow()),
	)
}
