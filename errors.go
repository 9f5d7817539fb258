// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import "fmt"

// ConnectionError wraps a transport-level failure: an unknown protocol type
// byte, an unexpected EOF, or a socket syscall failure. The underlying
// [BufferedStream] is always closed before this error is returned; the
// [Session] transitions to faulted and re-dials on next use.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("resp3: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConnectTimeoutError indicates the connect or TLS-handshake deadline
// elapsed before the [Transport] became usable.
type ConnectTimeoutError struct {
	Err error
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("resp3: connect timeout: %v", e.Err)
}

func (e *ConnectTimeoutError) Unwrap() error { return e.Err }

// ReadTimeoutError indicates a read deadline elapsed before a terminator or
// the requested byte count was available.
//
// [Session.BlockingCall] translates this into a [Null] result and
// [PubSub.NextEvent] into a nil Value rather than propagating it; every
// other caller sees it surfaced.
type ReadTimeoutError struct {
	Err error
}

func (e *ReadTimeoutError) Error() string {
	return fmt.Sprintf("resp3: read timeout: %v", e.Err)
}

func (e *ReadTimeoutError) Unwrap() error { return e.Err }

// WriteTimeoutError indicates a write deadline elapsed before all bytes
// were accepted by the transport.
type WriteTimeoutError struct {
	Err error
}

func (e *WriteTimeoutError) Error() string {
	return fmt.Sprintf("resp3: write timeout: %v", e.Err)
}

func (e *WriteTimeoutError) Unwrap() error { return e.Err }

// authenticationCodes classifies RESP error-code prefixes reported during
// the handshake that indicate a credentials problem.
var authenticationCodes = map[string]bool{
	"WRONGPASS": true,
	"NOAUTH":    true,
}

// permissionCodes classifies RESP error-code prefixes that indicate an ACL
// permission failure rather than a generic command error.
var permissionCodes = map[string]bool{
	"NOPERM": true,
}

// IsAuthentication reports whether e's code prefix indicates a credentials
// failure (e.g. "WRONGPASS").
func (e *CommandError) IsAuthentication() bool {
	return authenticationCodes[e.Code]
}

// IsPermission reports whether e's code prefix indicates an ACL permission
// failure (e.g. "NOPERM").
func (e *CommandError) IsPermission() bool {
	return permissionCodes[e.Code]
}

// Classify returns e's sub-kind for structured logging: "authentication",
// "permission", or the generic "command-error" default.
func (e *CommandError) Classify() string {
	switch {
	case e.IsAuthentication():
		return "authentication"
	case e.IsPermission():
		return "permission"
	default:
		return "command-error"
	}
}
