package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWithSpinner_ReturnsResult(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, runWithSpinner(&buf, "waking translate", func() error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, runWithSpinner(&buf, "waking translate", func() error { return boom }), boom)
}

func TestRunWithSpinner_SkippedForStructuredOutput(t *testing.T) {
	called := false
	err := RunWithSpinner(Options{Format: OutputFormatJSON}, "x", func() error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
