//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package resp3

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// PubSub is a server-driven event source obtained by transferring
// ownership of a [Session]'s stream via [Session.PubSub]. Once transferred,
// the originating Session cannot read or write on it; it reopens a fresh
// [Transport] on its next use.
//
// A PubSub is not safe for concurrent use.
type PubSub struct {
	stream  *BufferedStream
	decoder *Decoder
	cfg     *Config
	logger  SLogger
}

// PubSub transfers ownership of the Session's current stream to a new
// [*PubSub] handle and nulls the Session's own stream reference, per §9's
// "express this with an explicit move, not a shared reference" design note.
// The Session transitions to handed-off, behaving like fresh thereafter.
func (s *Session) PubSub(ctx context.Context) (*PubSub, error) {
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	ps := &PubSub{
		stream:  s.stream,
		decoder: s.decoder,
		cfg:     s.Config,
		logger:  s.Logger,
	}
	s.stream = nil
	s.decoder = nil
	s.state = stateHandedOff
	return ps, nil
}

// Call writes and flushes args as a command, without decoding a reply:
// pub/sub commands (SUBSCRIBE, PSUBSCRIBE, ...) acknowledge over the event
// stream read by [PubSub.NextEvent], not via an immediate reply slot.
func (p *PubSub) Call(ctx context.Context, args ...string) error {
	spanID := NewSpanID()
	logger := withSpanID(p.logger, spanID)
	t0 := p.cfg.TimeNow()
	logger.Info("pubsubCallStart", slog.Time("t", t0), slog.Any("command", args))

	err := func() error {
		var buf []byte
		buf = EncodeCommandStrings(buf, args...)
		if err := p.stream.Write(buf); err != nil {
			return p.invalidate(err)
		}
		if err := p.stream.Flush(); err != nil {
			return p.invalidate(err)
		}
		return nil
	}()

	logger.Info("pubsubCallDone",
		slog.Any("err", err),
		slog.String("errClass", p.cfg.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", p.cfg.TimeNow()),
	)
	return err
}

// NextEvent decodes one value, honoring timeout as a scoped
// [BufferedStream.WithTimeout] override: a nil timeout blocks indefinitely,
// a zero timeout returns immediately if nothing is pending, and any other
// duration bounds the wait. A timeout returns (nil, nil) rather than
// signaling an error, and — since the read happens inside the scoped
// override — does not invalidate the stream, because the server may still
// produce the pending push later (§7).
func (p *PubSub) NextEvent(ctx context.Context, timeout *time.Duration) (Value, error) {
	spanID := NewSpanID()
	logger := withSpanID(p.logger, spanID)
	t0 := p.cfg.TimeNow()
	logger.Info("pubsubWaitStart", slog.Time("t", t0))

	var v Value
	err := p.stream.WithTimeout(timeout, func() error {
		var derr error
		v, derr = p.decoder.Decode()
		return derr
	})
	if err != nil {
		var rt *ReadTimeoutError
		if errors.As(err, &rt) {
			logger.Info("pubsubWaitDone",
				slog.Any("err", nil),
				slog.String("errClass", ""),
				slog.Time("t0", t0),
				slog.Time("t", p.cfg.TimeNow()),
			)
			return nil, nil
		}
		err = p.invalidate(err)
		logger.Info("pubsubWaitDone",
			slog.Any("err", err),
			slog.String("errClass", p.cfg.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", p.cfg.TimeNow()),
		)
		return nil, err
	}

	logger.Info("pubsubWaitDone",
		slog.Any("err", nil),
		slog.String("errClass", ""),
		slog.Time("t0", t0),
		slog.Time("t", p.cfg.TimeNow()),
	)
	return v, nil
}

// Close closes the underlying stream.
func (p *PubSub) Close() error {
	return p.stream.Close()
}

func (p *PubSub) invalidate(err error) error {
	p.stream.Close()
	return err
}
