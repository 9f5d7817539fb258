// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import "github.com/bassosimone/errclass"

// ErrClassifier classifies errors into categorical strings for structured
// logging and analysis.
//
// Implementations map errors to short, descriptive labels (e.g. "ETIMEDOUT",
// "ECONNRESET", or a RESP error-code prefix such as "WRONGTYPE") that
// facilitate systematic analysis of client-observed failures.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
//
// This allows using simple functions as classifiers:
//
//	cfg.ErrClassifier = ErrClassifierFunc(errclass.New)
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier classifies server-reported command errors by their
// RESP error-code prefix (see [CommandError.Classify]), and everything else
// by POSIX/Winsock errno via [errclass.New]. Errors that match neither
// classify as [errclass.EGENERIC].
var DefaultErrClassifier = ErrClassifierFunc(func(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CommandError); ok {
		return ce.Classify()
	}
	return errclass.New(err)
})
