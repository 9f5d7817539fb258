//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package resp3

import (
	"context"
	"log/slog"
	"time"
)

// pipelineSlot records the per-command read-timeout override (if any) for
// one queued command, honored at slot granularity during dispatch.
type pipelineSlot struct {
	timeout *time.Duration
}

// PipelineBuilder accumulates encoded command bytes and a per-slot count.
// The zero value is an empty builder, the same as [NewPipelineBuilder]
// returns.
//
// [Session.Transaction] also builds on this type, bracketing the built
// commands with MULTI and EXEC.
type PipelineBuilder struct {
	buf   []byte
	slots []pipelineSlot
}

// NewPipelineBuilder returns an empty [*PipelineBuilder].
func NewPipelineBuilder() *PipelineBuilder {
	return &PipelineBuilder{}
}

// Command queues one command, encoded immediately into the builder's
// buffer, with no read-timeout override.
func (b *PipelineBuilder) Command(args ...string) {
	b.buf = EncodeCommandStrings(b.buf, args...)
	b.slots = append(b.slots, pipelineSlot{})
}

// CommandWithTimeout queues one command whose reply decode is wrapped in a
// [BufferedStream.WithTimeout] override at dispatch time, honored at slot
// granularity independent of the Session's ambient read timeout.
func (b *PipelineBuilder) CommandWithTimeout(timeout *time.Duration, args ...string) {
	b.buf = EncodeCommandStrings(b.buf, args...)
	b.slots = append(b.slots, pipelineSlot{timeout: timeout})
}

// Len returns the number of commands queued so far.
func (b *PipelineBuilder) Len() int {
	return len(b.slots)
}

// Pipeline writes every command build queues, in one flush, then decodes
// exactly that many replies in order. If any reply slot holds a
// command-error, the first (lowest-indexed) one is raised and the
// successful slots are discarded; otherwise the full ordered result set is
// returned.
func (s *Session) Pipeline(ctx context.Context, build func(b *PipelineBuilder)) ([]Value, error) {
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}

	b := NewPipelineBuilder()
	build(b)

	return s.dispatch(ctx, "pipelineDispatch", b)
}

// dispatch writes b's entire buffer in one flush, then decodes len(b.slots)
// replies, honoring each slot's timeout override. On the first transport
// failure the Session is invalidated and the error is returned immediately.
// On a command-error in any slot, the first (lowest-indexed) one is raised
// and the full result set is discarded, per §4.4 Pipeline.
func (s *Session) dispatch(ctx context.Context, spanName string, b *PipelineBuilder) ([]Value, error) {
	spanID := NewSpanID()
	logger := s.spanLogger(spanID)
	t0 := s.Config.TimeNow()
	logger.Info(spanName+"Start", slog.Time("t", t0), slog.Int("commandCount", b.Len()))

	results, err := s.dispatchSlots(b)

	logger.Info(spanName+"Done",
		slog.Any("err", err),
		slog.String("errClass", s.Config.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", s.Config.TimeNow()),
	)
	return results, err
}

func (s *Session) dispatchSlots(b *PipelineBuilder) ([]Value, error) {
	if err := s.stream.Write(b.buf); err != nil {
		s.invalidate()
		return nil, err
	}
	if err := s.stream.Flush(); err != nil {
		s.invalidate()
		return nil, err
	}

	results := make([]Value, len(b.slots))
	for i, slot := range b.slots {
		var v Value
		var err error
		if slot.timeout != nil {
			err = s.stream.WithTimeout(slot.timeout, func() error {
				var derr error
				v, derr = s.decoder.Decode()
				return derr
			})
		} else {
			v, err = s.decoder.Decode()
		}
		if err != nil {
			s.invalidate()
			return nil, err
		}
		results[i] = v
	}

	for _, v := range results {
		if ce, ok := v.(*CommandError); ok {
			return nil, ce
		}
	}
	return results, nil
}
