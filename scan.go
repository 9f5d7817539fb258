//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package resp3

import (
	"context"
	"errors"
	"iter"
)

// ScanEach issues verb repeatedly with an evolving cursor (initial value
// "0"), yielding every element the server returns across all rounds, and
// terminating when the returned cursor equals the string "0". Cursor
// comparison is textual, not numeric, per §4.4 Scans and §9's design note:
// a server returning "00" is not yet done.
//
// The command sent each round is `verb cursor args...`. The returned
// sequence is not restartable: each range-over iteration performs fresh
// server-side iteration starting from cursor "0".
func (s *Session) ScanEach(ctx context.Context, verb string, args ...string) iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		scanLoop(ctx, s, yield, func(cursor string) []string {
			cmd := append([]string{verb, cursor}, args...)
			return cmd
		})
	}
}

// ScanKeyEach is like [Session.ScanEach], but for the key-scoped cursor
// commands (HSCAN, SSCAN, ZSCAN): the command sent each round is
// `verb key cursor args...`.
func (s *Session) ScanKeyEach(ctx context.Context, verb, key string, args ...string) iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		scanLoop(ctx, s, yield, func(cursor string) []string {
			cmd := append([]string{verb, key, cursor}, args...)
			return cmd
		})
	}
}

// scanLoop drives the cursor round-trip shared by [Session.ScanEach] and
// [Session.ScanKeyEach]. buildCmd receives the current cursor and returns
// the full command to send.
func scanLoop(ctx context.Context, s *Session, yield func(Value, error) bool, buildCmd func(cursor string) []string) {
	cursor := "0"
	for {
		reply, err := s.Call(ctx, buildCmd(cursor)...)
		if err != nil {
			yield(nil, err)
			return
		}

		arr, ok := reply.(Array)
		if !ok || len(arr) != 2 {
			s.invalidate()
			yield(nil, &ConnectionError{Err: errors.New("resp3: malformed scan reply")})
			return
		}

		nextCursor, ok := cursorText(arr[0])
		if !ok {
			s.invalidate()
			yield(nil, &ConnectionError{Err: errors.New("resp3: malformed scan cursor")})
			return
		}

		elements, ok := arr[1].(Array)
		if !ok {
			s.invalidate()
			yield(nil, &ConnectionError{Err: errors.New("resp3: malformed scan element list")})
			return
		}

		for _, el := range elements {
			if !yield(el, nil) {
				return
			}
		}

		if nextCursor == "0" {
			return
		}
		cursor = nextCursor
	}
}

// cursorText extracts a cursor's textual form from a decoded Value.
func cursorText(v Value) (string, bool) {
	switch t := v.(type) {
	case BulkString:
		return string(t), true
	case SimpleString:
		return string(t), true
	default:
		return "", false
	}
}
