// SPDX-License-Identifier: GPL-3.0-or-later

package resp3

import (
	"context"
	"errors"
	"testing"

	"github.com/bassosimone/errclass"
	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))
	assert.Equal(t, errclass.ETIMEDOUT, DefaultErrClassifier.Classify(context.DeadlineExceeded))
	assert.Equal(t, errclass.EGENERIC, DefaultErrClassifier.Classify(errors.New("unknown error")))
}

func TestDefaultErrClassifierCommandError(t *testing.T) {
	ce := &CommandError{Code: "WRONGPASS", Message: "invalid username-password pair"}
	assert.Equal(t, "authentication", DefaultErrClassifier.Classify(ce))

	ce = &CommandError{Code: "NOPERM", Message: "no permission"}
	assert.Equal(t, "permission", DefaultErrClassifier.Classify(ce))

	ce = &CommandError{Code: "WRONGTYPE", Message: "wrong kind of value"}
	assert.Equal(t, "command-error", DefaultErrClassifier.Classify(ce))
}

func TestErrClassifierFunc(t *testing.T) {
	calls := 0
	f := ErrClassifierFunc(func(err error) string {
		calls++
		return "custom"
	})
	var classifier ErrClassifier = f
	assert.Equal(t, "custom", classifier.Classify(errors.New("x")))
	assert.Equal(t, 1, calls)
}
