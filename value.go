// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import "math/big"

// Value is the tagged union of every RESP3 protocol value. See the type
// list below for the concrete variants; a type switch or type assertion is
// the idiomatic way to inspect a decoded Value.
//
// Per the attributes-as-wrapper design (see [WithAttributes]),
// callers that don't care about attributes can ignore the [*WithAttributes]
// variant entirely by calling [Unwrap] first.
type Value interface {
	// respValue is unexported so that only the types in this package may
	// implement Value.
	respValue()
}

// SimpleString is a short, non-binary status line (RESP3 `+`).
type SimpleString string

func (SimpleString) respValue() {}

// Integer is a 64-bit signed integer (RESP3 `:`).
type Integer int64

func (Integer) respValue() {}

// Boolean is a true/false value (RESP3 `#`).
type Boolean bool

func (Boolean) respValue() {}

// Double is an IEEE-754 double (RESP3 `,`), including the inf/-inf/nan
// textual encodings.
type Double float64

func (Double) respValue() {}

// BulkString is an arbitrary byte string (RESP3 `$`). A nil BulkString is
// the distinguished null bulk; a non-nil, zero-length BulkString is the
// empty bulk. Use [BulkString.IsNull] rather than comparing length.
type BulkString []byte

func (BulkString) respValue() {}

// IsNull reports whether b is the null bulk.
func (b BulkString) IsNull() bool { return b == nil }

// Array is an ordered sequence of values (RESP3 `*`). A nil Array is the
// distinguished null array; a non-nil, zero-length Array is the empty
// array. Use [Array.IsNull] rather than comparing length.
type Array []Value

func (Array) respValue() {}

// IsNull reports whether a is the null array.
func (a Array) IsNull() bool { return a == nil }

// Null is the distinct top-level null (RESP3 `_`).
type Null struct{}

func (Null) respValue() {}

// VerbatimString is a bulk-like string carrying a three-character
// content-type tag (RESP3 `=`, e.g. "txt:" or "mkd:" prefixing the payload).
type VerbatimString struct {
	Format string // three-character content-type tag
	Text   string
}

func (VerbatimString) respValue() {}

// BigNumber is an arbitrary-precision decimal integer (RESP3 `(`).
type BigNumber struct {
	*big.Int
}

func (BigNumber) respValue() {}

// MapPair is one (key, value) pair of a [Map], in wire order.
type MapPair struct {
	Key   Value
	Value Value
}

// Map is an ordered sequence of key/value pairs (RESP3 `%`). Iteration
// order is wire order; the decoder does not deduplicate keys.
type Map []MapPair

func (Map) respValue() {}

// Set is an unordered-semantics collection, decoded in wire order (RESP3 `~`).
type Set []Value

func (Set) respValue() {}

// Push is an out-of-band server message (RESP3 `>`). Items[0] is the event
// tag; the remainder are the event's payload.
type Push struct {
	Items []Value
}

func (*Push) respValue() {}

// Kind returns the push's event tag as a string, or "" if the tag is absent
// or not a string-shaped value.
func (p *Push) Kind() string {
	if len(p.Items) == 0 {
		return ""
	}
	switch tag := p.Items[0].(type) {
	case SimpleString:
		return string(tag)
	case BulkString:
		return string(tag)
	default:
		return ""
	}
}

// WithAttributes wraps a Value with the attribute map (RESP3 `|`) that
// preceded it on the wire. Attributes attach to the immediately following
// value only and do not change its equality or meaning; callers that don't
// care about attributes should call [Unwrap].
type WithAttributes struct {
	Value      Value
	Attributes Map
}

func (*WithAttributes) respValue() {}

// Unwrap strips any [*WithAttributes] wrapper(s) from v, returning the
// innermost value. If v carries no attributes, v is returned unchanged.
func Unwrap(v Value) Value {
	for {
		wa, ok := v.(*WithAttributes)
		if !ok {
			return v
		}
		v = wa.Value
	}
}

// CommandError is a server-reported error (RESP3 `-` simple error or `!`
// blob error). It is a first-class decoded Value, not an out-of-band
// signal: pipelines and transactions decode it into its result slot like
// any other value, and the Session decides when to raise it as a Go error.
//
// CommandError implements the error interface, so it can be returned
// directly as err from [Session.Call] and friends.
type CommandError struct {
	// Code is the first whitespace-delimited token of the error line,
	// e.g. "WRONGTYPE", "WRONGPASS", "NOPERM", "MOVED", "ASK".
	Code string

	// Message is the remainder of the error line after Code.
	Message string

	// Blob records whether this error was decoded from a length-prefixed
	// `!` blob error frame rather than a `-` simple error line.
	Blob bool
}

func (*CommandError) respValue() {}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + " " + e.Message
}
