// Package driver orchestrates the per-translation-unit pipeline: front-end
// emission, SSA construction, DCE, instruction selection, register
// allocation, assembly emission, and shelling out to the system assembler
// and linker. It never runs more than one unit at a time: single-threaded,
// synchronous throughout.
package driver

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nwmarino/statim/internal/backend/amd64"
	"github.com/nwmarino/statim/internal/diagnostics"
	"github.com/nwmarino/statim/internal/frontend"
	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

// Unit is one input file and the Emitter that will populate its CFG.
type Unit struct {
	File string
	Emit frontend.Emitter
}

// Driver runs the pipeline over a batch of Units under a fixed set of
// Options, reporting every diagnostic through a single Reporter.
type Driver struct {
	Opts   Options
	Report *diagnostics.Reporter
}

// New builds a Driver. A nil report defaults to a stderr reporter, matching
// the original's "no output file given" default.
func New(opts Options, report *diagnostics.Reporter) *Driver {
	if report == nil {
		report = diagnostics.New(nil)
	}
	return &Driver{Opts: opts, Report: report}
}

// Run executes the five-step pipeline over every unit, then — if
// Opts.Link is set — links the produced objects into Opts.Output.
func (d *Driver) Run(units []Unit) error {
	var objects []string
	for _, u := range units {
		obj, err := d.compileUnit(u)
		if err != nil {
			return err
		}
		objects = append(objects, obj)
	}

	if d.Opts.Link {
		if err := d.link(objects); err != nil {
			return err
		}
	}

	return nil
}

// compileUnit runs emission through instruction selection and register
// allocation for a single input file, returning the path of the produced
// object file.
func (d *Driver) compileUnit(u Unit) (objPath string, err error) {
	cfg := siir.NewCFG(u.File, target.X86_64Linux())
	b := siir.NewBuilder(cfg)

	if err = d.timed("emit "+u.File, func() error { return u.Emit.Emit(b, cfg) }); err != nil {
		return "", err
	}

	if d.Opts.OptLevel > 0 {
		d.timed("ssa+dce "+u.File, func() error {
			siir.RunPasses(cfg, siir.SSAConstruction{}, siir.DeadCodeElimination{})
			return nil
		})
	}

	if d.Opts.DumpSIIR {
		siir.Print(os.Stdout, cfg)
	}

	obj := mir.NewMachineObject(cfg, cfg.Target)
	for _, fn := range cfg.Functions() {
		if fn.External {
			continue
		}
		is := amd64.NewInstSelection(obj, cfg, fn, d.Report)
		mf := is.Run()
		amd64.Allocate(mf)
		obj.AddFunction(mf)
	}

	if d.Opts.DumpMachineIR {
		if perr := amd64.NewPrinter(obj).Run(os.Stdout); perr != nil {
			return "", perr
		}
	}

	asmPath := withExt(u.File, ".s")
	if werr := d.writeAssembly(obj, asmPath); werr != nil {
		return "", werr
	}
	if !d.Opts.KeepAsm {
		defer os.Remove(asmPath)
	}

	objPath = withExt(u.File, ".o")
	if aerr := d.assemble(asmPath, objPath); aerr != nil {
		return "", aerr
	}

	return objPath, nil
}

func (d *Driver) writeAssembly(obj *mir.MachineObject, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("statim: cannot create %s: %w", path, err)
	}
	defer f.Close()
	return amd64.NewAsmWriter(obj).Run(f)
}

// assemble invokes the system assembler on src, producing obj. A non-zero
// exit is a Kind-3 fatal diagnostic carrying the assembler's own stderr.
func (d *Driver) assemble(src, obj string) error {
	return d.runTool("as", []string{"-o", obj, src}, "assembling "+src)
}

// link invokes the system linker over every produced object, plus the
// runtime object unless Opts.NoStd is set.
func (d *Driver) link(objects []string) error {
	out := d.Opts.Output
	if out == "" {
		out = "a.out"
	}

	args := []string{"-nostdlib", "-o", out}
	if !d.Opts.NoStd {
		args = append(args, "rt.o")
	}
	args = append(args, objects...)

	if err := d.runTool("ld", args, "linking "+out); err != nil {
		return err
	}

	if !d.Opts.KeepObj {
		for _, o := range objects {
			os.Remove(o)
		}
	}
	return nil
}

// runTool shells out to an external tool and, on failure, surfaces its
// captured stderr through a fatal diagnostic.
func (d *Driver) runTool(name string, args []string, label string) error {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr

	var err error
	d.timed(label, func() error { err = cmd.Run(); return err })

	if err != nil {
		msg := fmt.Sprintf("%s failed: %v: %s", name, err, strings.TrimSpace(stderr.String()))
		d.Report.Fatal(diagnostics.Position{}, msg)
	}
	return nil
}

// timed runs fn, optionally reporting its wall-clock duration through
// Info when Opts.Time is set.
func (d *Driver) timed(label string, fn func() error) error {
	start := time.Now()
	err := fn()
	if d.Opts.Time {
		d.Report.Info(diagnostics.Position{}, fmt.Sprintf("%s: %s", label, time.Since(start)))
	}
	return err
}

func withExt(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
