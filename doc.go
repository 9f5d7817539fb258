// SPDX-License-Identifier: GPL-3.0-or-later

// Package resp3 implements a client for a key-value store that speaks
// RESP3, the typed, self-describing wire protocol used by Redis-family
// servers.
//
// # Core Abstraction
//
// The package is layered bottom-up:
//
//   - A [net.Conn] transport (TCP, Unix-domain socket, or TLS), opened by
//     [Dial], with configurable connect/read/write deadlines.
//   - [BufferedStream]: framing-aware buffered reads/writes over the
//     transport, with a scoped deadline override ([BufferedStream.WithTimeout]).
//   - [EncodeCommand]/[Decoder]: the RESP3 wire codec, producing and
//     consuming [Value].
//   - [Session]: handshake, single-call dispatch, pipelining, transactions,
//     cursor scans, and pub/sub handoff.
//
// # Available Primitives
//
// Connection establishment:
//   - [Dial]: opens a TCP or Unix-domain transport, per [SessionConfig.Path].
//   - [HandshakeTLS]: layers TLS on top of an existing transport.
//
// Command dispatch:
//   - [Session.Call]: synchronous single command.
//   - [Session.BlockingCall]: single command whose read timeout translates to
//     a [Null] result rather than an error, for commands that themselves block
//     server-side.
//   - [Session.Pipeline]: batches commands, matches replies to their slot.
//   - [Session.Transaction]: MULTI/EXEC batch, optionally guarded by WATCH.
//   - [Session.ScanEach], [Session.ScanKeyEach]: lazy cursor-driven iteration.
//   - [Session.PubSub]: hands off the connection to a [PubSub] event source.
//
// # Connection Lifecycle
//
// A [Session] lazily dials and handshakes on first use. Any transport-level
// failure invalidates the underlying [BufferedStream]; the next call
// re-dials and re-handshakes from scratch. Converting a [Session] into a
// [PubSub] moves ownership of the stream: the [Session] cannot read or write
// on it afterward, and reopens a fresh [Transport] if used again.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Set the Logger field to a
// custom [*slog.Logger] to enable logging. Error classification is
// configurable via [ErrClassifier]; by default, [DefaultErrClassifier]
// sub-classifies command errors by RESP error-code prefix and every other
// error by POSIX/Winsock errno (via the errclass module).
//
// Primitives emit two kinds of structured log events:
//
//   - Span events (*Start/*Done pairs): record operation lifecycle including
//     timing and success/failure. Used for latency analysis and error tracking.
//
//   - I/O events (buffered read, buffered write, deadline changes): emitted
//     at [slog.LevelDebug]; all other events use [slog.LevelInfo].
//
// All events carry t (timestamp). Connect, TLS-handshake, close, and I/O
// events also carry remoteAddr and protocol, and all of them except
// connectStart carry localAddr. Completion events (*Done) additionally
// include t0 (start time), err, and errClass.
//
// [NewSpanID] generates a unique, time-ordered identifier (UUIDv7) for each
// operation, attached to the logger with [*slog.Logger.With] when the Logger
// is a [*slog.Logger]. The *Start/*Done events of one handshake, call,
// pipeline or transaction dispatch, or pub/sub operation share one spanID;
// the connect, TLS and I/O events of a stream carry the spanID of the
// handshake that opened it.
//
// # Timeout Philosophy
//
// This package has no reconnection policy, no request retry, and no
// cooperative task scheduler: cancellation is expressed solely through
// deadlines. [BufferedStream.WithTimeout] installs a scoped override of the
// read/write deadline for the duration of a closure, restored on every exit
// path including failure. There is no mechanism to interrupt an in-flight
// operation from another goroutine; doing so corrupts stream framing.
//
// # Design Boundaries
//
// This package intentionally provides only the protocol engine. The
// following are out of scope and should be implemented by higher-level
// packages:
//
//   - Application-facing command spelling and result decoding ergonomics.
//   - Connection-pool management.
//   - Cluster-topology routing, sentinel/failover discovery.
//   - Reconnection policy and request retry.
//
// A [Session] assumes one logical caller at a time; external coordination
// (e.g. a connection pool) is the caller's responsibility.
package resp3
