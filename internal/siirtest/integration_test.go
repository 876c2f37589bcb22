//go:build integration

// This file exercises the full pipeline end to end: build a CFG via
// siirtest's scenario builders, run it through internal/driver, assemble
// and link the result, execute the binary, and assert on its exit code.
// It only runs where a SystemV toolchain (as, cc) is actually present,
// matching the spirit of faddat-wazero's internal/sysfs/dir_test.go
// build-tag-gated platform tests.
package siirtest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/diagnostics"
	"github.com/nwmarino/statim/internal/driver"
	"github.com/nwmarino/statim/internal/frontend"
)

type scenarioCase struct {
	name     string
	emit     frontend.EmitterFunc
	wantExit int
}

func TestScenariosEndToEnd(t *testing.T) {
	cases := []scenarioCase{
		{"ret-constant", Scenario1, 42},
		{"argc-passthrough", Scenario2, 1},
		{"call", Scenario3, 42},
		{"while-loop", Scenario4, 45},
		{"struct-field", Scenario5, 42},
		{"recursive-fib", Scenario6, 55},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			stem := filepath.Join(dir, c.name)

			opts := driver.Options{OptLevel: 1, KeepObj: true}
			d := driver.New(opts, diagnostics.New(os.Stderr))

			// Compile (but don't link, since the driver's own link step
			// assumes a freestanding -nostdlib runtime object this test
			// doesn't provide) this single unit down to an object file.
			require.NoError(t, d.Run([]driver.Unit{{File: stem, Emit: c.emit}}))

			objPath := stem + ".o"
			bin := filepath.Join(dir, c.name+".bin")

			link := exec.Command("cc", "-static", "-o", bin, objPath)
			link.Stderr = os.Stderr
			require.NoError(t, link.Run(), "linking against the system libc crt startup")

			run := exec.Command(bin)
			err := run.Run()
			exitCode := 0
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					t.Fatalf("running %s: %v", bin, err)
				}
			}
			require.Equal(t, c.wantExit, exitCode)
		})
	}
}
