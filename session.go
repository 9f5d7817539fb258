//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package resp3

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// sessionState is the Session's connection lifecycle state (§4.4).
type sessionState int

const (
	// stateFresh means no stream has ever been opened, or it was
	// released by [Session.Close].
	stateFresh sessionState = iota

	// stateConnected means a handshake completed successfully on the
	// current stream.
	stateConnected

	// stateFaulted means the last transport-level operation failed; the
	// stream is closed and the next operation re-dials from scratch.
	stateFaulted

	// stateHandedOff means the stream was transferred to a [PubSub]
	// handle; behaves like stateFresh for the Session's own purposes.
	stateHandedOff
)

// Session holds one RESP3 connection's parameters and, once handshaked, its
// live [BufferedStream]. See the package doc for the full operation set.
//
// A Session is not safe for concurrent use: it assumes one logical caller
// at a time, per §5. External coordination (e.g. a connection pool) is the
// caller's responsibility.
type Session struct {
	// Config carries the ambient Dialer/ErrClassifier/TimeNow dependencies.
	Config *Config

	// SessionConfig carries the connection parameters (host/port/path,
	// credentials, db, timeouts, TLS).
	SessionConfig *SessionConfig

	// Logger is the [SLogger] used for structured logging.
	Logger SLogger

	state   sessionState
	stream  *BufferedStream
	decoder *Decoder
}

// NewSession constructs a [*Session] in the fresh state. The stream is
// lazily opened on first use.
func NewSession(cfg *Config, scfg *SessionConfig, logger SLogger) *Session {
	return &Session{
		Config:        cfg,
		SessionConfig: scfg,
		Logger:        logger,
		state:         stateFresh,
	}
}

// Close releases the underlying stream, if any, and returns the Session to
// the fresh state.
func (s *Session) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	s.decoder = nil
	s.state = stateFresh
	return err
}

// ensureConnected lazily dials and handshakes when the Session is not
// already connected.
func (s *Session) ensureConnected(ctx context.Context) error {
	if s.state == stateConnected {
		return nil
	}
	return s.handshake(ctx)
}

// handshake dials a fresh [Transport], wraps it in a [BufferedStream], and
// issues HELLO 3 (with AUTH when a password is configured) followed by
// SELECT when a db index is configured. Any failure — transport or
// command-error — leaves the Session faulted: a session that never
// completed its own version negotiation cannot usefully serve further
// commands, even though a plain command-error does not fault an already
// negotiated Session (§7).
func (s *Session) handshake(ctx context.Context) error {
	spanID := NewSpanID()
	logger := s.spanLogger(spanID)

	conn, err := Dial(ctx, s.Config, s.SessionConfig, logger)
	if err != nil {
		s.state = stateFaulted
		return err
	}

	s.stream = NewBufferedStream(conn, s.Config, s.SessionConfig, logger)
	s.decoder = NewDecoder(s.stream)

	t0 := s.Config.TimeNow()
	logger.Info("handshakeStart", slog.Time("t", t0))

	args := []string{"HELLO", "3"}
	if s.SessionConfig.Password != "" {
		args = []string{"HELLO", "3", "AUTH", s.SessionConfig.Username, s.SessionConfig.Password}
	}
	if _, err := s.call(ctx, args...); err != nil {
		logger.Info("handshakeDone",
			slog.Any("err", err),
			slog.String("errClass", s.Config.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", s.Config.TimeNow()),
		)
		s.invalidate()
		return err
	}

	if s.SessionConfig.DB != nil {
		if _, err := s.call(ctx, "SELECT", strconv.Itoa(*s.SessionConfig.DB)); err != nil {
			logger.Info("handshakeDone",
				slog.Any("err", err),
				slog.String("errClass", s.Config.ErrClassifier.Classify(err)),
				slog.Time("t0", t0),
				slog.Time("t", s.Config.TimeNow()),
			)
			s.invalidate()
			return err
		}
	}

	s.state = stateConnected
	logger.Info("handshakeDone",
		slog.Any("err", nil),
		slog.String("errClass", ""),
		slog.Time("t0", t0),
		slog.Time("t", s.Config.TimeNow()),
	)
	return nil
}

// invalidate closes the stream (if still open) and transitions to faulted,
// used when a failure means the Session cannot be trusted to continue
// using the current stream.
func (s *Session) invalidate() {
	if s.stream != nil {
		s.stream.Close()
	}
	s.stream = nil
	s.decoder = nil
	s.state = stateFaulted
}

// spanLogger attaches spanID to s.Logger via [*slog.Logger.With] when
// s.Logger is backed by slog; otherwise it returns s.Logger unchanged.
func (s *Session) spanLogger(spanID string) SLogger {
	return withSpanID(s.Logger, spanID)
}

// withSpanID attaches spanID to logger via [*slog.Logger.With] when logger
// is backed by slog; otherwise it returns logger unchanged. Used to
// correlate every log line belonging to one span (single call, pipeline,
// transaction, scan round trip, pub/sub wait) under one identifier.
func withSpanID(logger SLogger, spanID string) SLogger {
	if l, ok := logger.(*slog.Logger); ok {
		return l.With(slog.String("spanID", spanID))
	}
	return logger
}

// call writes one command, flushes, and decodes one reply, assuming the
// Session is already connected. A transport-level failure faults the
// Session (§7); a decoded [*CommandError] is returned as a Go error without
// faulting, since server errors do not invalidate the stream.
func (s *Session) call(ctx context.Context, args ...string) (Value, error) {
	var buf []byte
	buf = EncodeCommandStrings(buf, args...)
	if err := s.stream.Write(buf); err != nil {
		s.invalidate()
		return nil, err
	}
	if err := s.stream.Flush(); err != nil {
		s.invalidate()
		return nil, err
	}
	v, err := s.decoder.Decode()
	if err != nil {
		s.invalidate()
		return nil, err
	}
	if ce, ok := v.(*CommandError); ok {
		return nil, ce
	}
	return v, nil
}

// Call serializes one command, writes and flushes it, and decodes one
// reply. If the reply is a command-error, it is returned as a Go error
// (typed by code-prefix, see [CommandError.Classify]); otherwise the
// decoded [Value] is returned.
func (s *Session) Call(ctx context.Context, args ...string) (Value, error) {
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	spanID := NewSpanID()
	logger := s.spanLogger(spanID)
	t0 := s.Config.TimeNow()
	logger.Info("callStart", slog.Time("t", t0), slog.Any("command", args))

	v, err := s.call(ctx, args...)

	logger.Info("callDone",
		slog.Any("err", err),
		slog.String("errClass", s.Config.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", s.Config.TimeNow()),
	)
	return v, err
}

// BlockingCall behaves like [Session.Call], but the read is wrapped in a
// scoped [BufferedStream.WithTimeout] override: a read-timeout translates
// to a [Null] result — the documented behavior for commands that themselves
// block server-side, where the client treats "no data yet" as not an
// error — instead of propagating as a Go error, and does not fault the
// Session (§7: a read-timeout inside a scoped override does not close the
// stream, since the server may still produce the pending reply).
//
// A nil timeout blocks indefinitely, matching [BufferedStream.WithTimeout]'s
// nil convention.
func (s *Session) BlockingCall(ctx context.Context, timeout *time.Duration, args ...string) (Value, error) {
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	spanID := NewSpanID()
	logger := s.spanLogger(spanID)
	t0 := s.Config.TimeNow()
	logger.Info("callStart", slog.Time("t", t0), slog.Any("command", args))

	var buf []byte
	buf = EncodeCommandStrings(buf, args...)
	var v Value
	err := func() error {
		if err := s.stream.Write(buf); err != nil {
			return err
		}
		if err := s.stream.Flush(); err != nil {
			return err
		}
		return s.stream.WithTimeout(timeout, func() error {
			var derr error
			v, derr = s.decoder.Decode()
			return derr
		})
	}()

	if err != nil {
		var rt *ReadTimeoutError
		if isReadTimeout(err, &rt) {
			logger.Info("callDone",
				slog.Any("err", nil),
				slog.String("errClass", ""),
				slog.Time("t0", t0),
				slog.Time("t", s.Config.TimeNow()),
			)
			return Null{}, nil
		}
		s.invalidate()
		logger.Info("callDone",
			slog.Any("err", err),
			slog.String("errClass", s.Config.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", s.Config.TimeNow()),
		)
		return nil, err
	}

	if ce, ok := v.(*CommandError); ok {
		logger.Info("callDone",
			slog.Any("err", ce),
			slog.String("errClass", s.Config.ErrClassifier.Classify(ce)),
			slog.Time("t0", t0),
			slog.Time("t", s.Config.TimeNow()),
		)
		return nil, ce
	}

	logger.Info("callDone",
		slog.Any("err", nil),
		slog.String("errClass", ""),
		slog.Time("t0", t0),
		slog.Time("t", s.Config.TimeNow()),
	)
	return v, nil
}

// isReadTimeout reports whether err is a [*ReadTimeoutError], populating
// *target on success.
func isReadTimeout(err error, target **ReadTimeoutError) bool {
	rt, ok := err.(*ReadTimeoutError)
	if !ok {
		return false
	}
	*target = rt
	return true
}
