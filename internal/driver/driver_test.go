package driver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/diagnostics"
)

func TestWithExtReplacesExistingExtension(t *testing.T) {
	assert.Equal(t, "main.s", withExt("main.stm", ".s"))
	assert.Equal(t, "main.o", withExt("main.stm", ".o"))
	assert.Equal(t, "/tmp/unit/main.s", withExt("/tmp/unit/main.stm", ".s"))
}

func TestWithExtHandlesExtensionlessInput(t *testing.T) {
	assert.Equal(t, "main.s", withExt("main", ".s"))
}

func TestTimedSkipsReportingWhenTimeOptionIsUnset(t *testing.T) {
	var buf bytes.Buffer
	d := New(Options{Time: false}, diagnostics.New(&buf))

	ran := false
	err := d.timed("stage", func() error { ran = true; return nil })

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, buf.String())
}

func TestTimedReportsDurationWhenTimeOptionIsSet(t *testing.T) {
	var buf bytes.Buffer
	d := New(Options{Time: true}, diagnostics.New(&buf))

	err := d.timed("emit main.stm", func() error { return nil })

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "emit main.stm")
	assert.Contains(t, buf.String(), "info:")
}

func TestTimedPropagatesTheInnerError(t *testing.T) {
	d := New(Options{}, diagnostics.New(&bytes.Buffer{}))
	sentinel := assert.AnError

	err := d.timed("stage", func() error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
}

func TestNewDefaultsNilReportToStderr(t *testing.T) {
	d := New(Options{}, nil)
	assert.NotNil(t, d.Report)
}
