package diagnostics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterKnownPosition(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Warning(Position{File: "main.stm", Line: 4, Column: 9}, "unused local 'x'")

	assert.Equal(t, "main.stm:4:9: warning: unused local 'x'\n", buf.String())
}

func TestReporterUnknownPosition(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Info(Position{}, "compiling module")

	assert.Equal(t, "info: compiling module\n", buf.String())
}

func TestReporterSeverities(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Info(Position{}, "a")
	r.Warning(Position{}, "b")
	r.Error(Position{}, "c")

	assert.Equal(t, "info: a\nwarning: b\nerror: c\n", buf.String())
}

func TestNewDefaultsNilToStderr(t *testing.T) {
	r := New(nil)
	assert.NotNil(t, r.out)
}
