//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package resp3

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/bassosimone/runtimex"
)

// initialBufferSize is the suggested starting size for the read buffer; it
// grows transparently for frames larger than this (see [bufio.Reader]).
const initialBufferSize = 8 * 1024

// aLongTimeAgo is a deadline safely in the past, used to express "do not
// wait past available data" (a zero-duration [BufferedStream.WithTimeout]
// override) in terms of [net.Conn.SetReadDeadline]/[net.Conn.SetWriteDeadline].
var aLongTimeAgo = time.Unix(1, 0)

// BufferedStream wraps a [net.Conn] with framing-aware buffered reads and
// coalesced writes, plus a scoped deadline override ([BufferedStream.WithTimeout]).
//
// The read buffer starts at [initialBufferSize] and grows as needed for
// frames that don't fit; see [bufio.Reader.ReadString] and
// [bufio.Reader.ReadBytes]' fragment-collection behavior.
//
// A BufferedStream is not safe for concurrent use: the owning [Session]
// guarantees at most one in-flight operation at a time.
type BufferedStream struct {
	conn   net.Conn
	reader *bufio.Reader
	wbuf   []byte

	// readTimeout and writeTimeout are nil when there is no deadline
	// ("block indefinitely"), non-nil-pointing-to-zero when the caller
	// wants "do not wait past available data", and otherwise point to the
	// duration to add to [Config.TimeNow] for the next operation.
	readTimeout  *time.Duration
	writeTimeout *time.Duration

	cfg    *Config
	logger SLogger
}

// NewBufferedStream wraps conn, applying scfg's ReadTimeout/WriteTimeout as
// the initial (unscoped) deadlines. conn is wrapped with
// [NewObserveConnFunc] so that every buffered read/write and deadline
// change is logged at Debug level.
func NewBufferedStream(conn net.Conn, cfg *Config, scfg *SessionConfig, logger SLogger) *BufferedStream {
	runtimex.Assert(conn != nil)
	observed, _ := NewObserveConnFunc(cfg, logger).Call(context.Background(), conn)
	return &BufferedStream{
		conn:         observed,
		reader:       bufio.NewReaderSize(observed, initialBufferSize),
		readTimeout:  durationPtr(scfg.ReadTimeout),
		writeTimeout: durationPtr(scfg.WriteTimeout),
		cfg:          cfg,
		logger:       logger,
	}
}

// durationPtr converts the zero-means-no-deadline convention used by
// [SessionConfig] into the nil-means-no-deadline convention used
// internally by [BufferedStream].
func durationPtr(d time.Duration) *time.Duration {
	if d == 0 {
		return nil
	}
	return &d
}

// deadlineFrom computes the absolute deadline to install for an operation
// bounded by d, using now for the current time. A nil d yields the zero
// [time.Time] (no deadline); a zero *d yields [aLongTimeAgo] (immediate
// timeout unless data is already available); otherwise now()+*d.
func deadlineFrom(d *time.Duration, now func() time.Time) time.Time {
	if d == nil {
		return time.Time{}
	}
	if *d == 0 {
		return aLongTimeAgo
	}
	return now().Add(*d)
}

// isTimeout reports whether err indicates a deadline expiration.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Write appends data to the outgoing buffer. It never performs I/O by
// itself; call [BufferedStream.Flush] to send pending bytes to the
// transport. This lets [Session] coalesce an entire pipeline or
// transaction payload into a single write.
func (bs *BufferedStream) Write(data []byte) error {
	bs.wbuf = append(bs.wbuf, data...)
	return nil
}

// Flush sends all pending bytes to the transport, bounded by the current
// write deadline. On success the outgoing buffer is emptied.
func (bs *BufferedStream) Flush() error {
	if len(bs.wbuf) == 0 {
		return nil
	}
	deadline := deadlineFrom(bs.writeTimeout, bs.cfg.TimeNow)
	if err := bs.conn.SetWriteDeadline(deadline); err != nil {
		return &ConnectionError{Err: err}
	}
	_, err := bs.conn.Write(bs.wbuf)
	bs.wbuf = bs.wbuf[:0]
	if err != nil {
		if isTimeout(err) {
			return &WriteTimeoutError{Err: err}
		}
		return &ConnectionError{Err: err}
	}
	return nil
}

// ReadLine returns the bytes up to (and excluding) the next CRLF; the CRLF
// itself is consumed. It fails with [*ReadTimeoutError] if the current read
// deadline elapses before a terminator is found, and with
// [*ConnectionError] for an unterminated or malformed line (e.g. a bare LF
// without a preceding CR).
func (bs *BufferedStream) ReadLine() ([]byte, error) {
	deadline := deadlineFrom(bs.readTimeout, bs.cfg.TimeNow)
	if err := bs.conn.SetReadDeadline(deadline); err != nil {
		return nil, &ConnectionError{Err: err}
	}
	line, err := bs.reader.ReadString('\n')
	if err != nil {
		if isTimeout(err) {
			return nil, &ReadTimeoutError{Err: err}
		}
		return nil, &ConnectionError{Err: err}
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, &ConnectionError{Err: errors.New("resp3: line not terminated by CRLF")}
	}
	return []byte(line[:len(line)-2]), nil
}

// ReadExact returns exactly n bytes, not including any trailing CRLF the
// caller expects to consume separately via a further ReadExact(2). It fails
// with [*ReadTimeoutError] if the deadline elapses before n bytes are
// available.
func (bs *BufferedStream) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	deadline := deadlineFrom(bs.readTimeout, bs.cfg.TimeNow)
	if err := bs.conn.SetReadDeadline(deadline); err != nil {
		return nil, &ConnectionError{Err: err}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(bs.reader, buf); err != nil {
		if isTimeout(err) {
			return nil, &ReadTimeoutError{Err: err}
		}
		return nil, &ConnectionError{Err: err}
	}
	return buf, nil
}

// WithTimeout installs d as a scoped override of both the read and write
// deadlines for the duration of fn, restoring the previous deadlines on
// every exit path including a panic. A nil d means "no deadline" (block
// indefinitely); a zero d means "do not wait past available data".
func (bs *BufferedStream) WithTimeout(d *time.Duration, fn func() error) error {
	prevRead, prevWrite := bs.readTimeout, bs.writeTimeout
	bs.readTimeout, bs.writeTimeout = d, d
	defer func() {
		bs.readTimeout, bs.writeTimeout = prevRead, prevWrite
	}()
	return fn()
}

// Close closes the underlying transport.
func (bs *BufferedStream) Close() error {
	return bs.conn.Close()
}
