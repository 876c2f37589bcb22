package amd64

import (
	"io"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwmarino/statim/internal/diagnostics"
	"github.com/nwmarino/statim/internal/mir"
	"github.com/nwmarino/statim/internal/siir"
	"github.com/nwmarino/statim/internal/target"
)

func newTestCFGAndObject(t *testing.T) (*siir.CFG, *mir.MachineObject) {
	t.Helper()
	cfg := siir.NewCFG("test.stm", target.X86_64Linux())
	return cfg, mir.NewMachineObject(cfg, cfg.Target)
}

// newTestReporter returns a Reporter that discards its output, for tests
// that only care about the non-fatal paths through instruction selection.
func newTestReporter() *diagnostics.Reporter { return diagnostics.New(io.Discard) }

func TestInstSelectionLowersConstantReturn(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), siir.LinkageExternal, false)

	b := siir.NewBuilder(cfg)
	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	b.BuildReturn(cfg.ConstInt(i64, 42))

	mf := NewInstSelection(obj, cfg, fn, newTestReporter()).Run()

	require.NotNil(t, mf.Front())
	var movs, rets int
	for inst := mf.Front().Front(); inst != nil; inst = inst.Next() {
		switch Opcode(inst.Opcode) {
		case MOV64:
			movs++
			assert.True(t, inst.Operand(0).IsImm())
			assert.Equal(t, int64(42), inst.Operand(0).Imm())
			assert.Equal(t, AsMachineReg(RAX), inst.Operand(1).Reg())
		case RET:
			rets++
		}
	}
	assert.Equal(t, 1, movs)
	assert.Equal(t, 1, rets)
}

func TestInstSelectionSkipsExternalFunctions(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("puts", cfg.FunctionType([]siir.Type{i64}, i64), siir.LinkageExternal, true)

	mf := NewInstSelection(obj, cfg, fn, newTestReporter()).Run()
	assert.True(t, mf.Empty(), "external (bodyless) functions are never selected")
}

func TestInstSelectionRegistersTheMachineFunctionOnTheObject(t *testing.T) {
	cfg, obj := newTestCFGAndObject(t)
	fn := cfg.AddFunction("f", cfg.FunctionType(nil, nil), siir.LinkageExternal, false)

	NewInstSelection(obj, cfg, fn, newTestReporter()).Run()

	assert.NotNil(t, obj.GetFunction("f"))
}

// buildSevenArgCall emits `main :: () -> s64 { ret callee(1,2,3,4,5,6,7); }`,
// a call with one more integer argument than ArgumentRegisters holds.
func buildSevenArgCall(cfg *siir.CFG) {
	i64 := cfg.IntType(64)
	paramTypes := make([]siir.Type, 7)
	args := make([]siir.Value, 7)
	for i := range paramTypes {
		paramTypes[i] = i64
		args[i] = cfg.ConstInt(i64, int64(i+1))
	}
	callee := cfg.AddFunction("callee", cfg.FunctionType(paramTypes, i64), siir.LinkageExternal, true)

	main := cfg.AddFunction("main", cfg.FunctionType(nil, i64), siir.LinkageExternal, false)
	b := siir.NewBuilder(cfg)
	entry := main.AppendBlock()
	b.SetInsertBlock(entry)
	b.BuildReturn(b.BuildCall(callee, args, i64))
}

// TestCallArgOverflowHelperProcess is re-executed as a subprocess by
// TestInstSelectionRejectsMoreThanSixIntegerArguments; it is not a real
// test in its own right, since diagnostics.Reporter.Fatal calls os.Exit
// and would otherwise kill the real test binary.
func TestCallArgOverflowHelperProcess(t *testing.T) {
	if os.Getenv("STATIM_CALL_ARG_OVERFLOW_HELPER") != "1" {
		t.Skip("only runs as a re-exec'd subprocess")
	}
	cfg, obj := newTestCFGAndObject(t)
	buildSevenArgCall(cfg)
	main := cfg.GetFunction("main")
	NewInstSelection(obj, cfg, main, diagnostics.New(os.Stderr)).Run()
	t.Fatal("unreachable: selectCall should have called os.Exit(1)")
}

func TestInstSelectionRejectsMoreThanSixIntegerArguments(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=TestCallArgOverflowHelperProcess")
	cmd.Env = append(os.Environ(), "STATIM_CALL_ARG_OVERFLOW_HELPER=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, "selectCall must reject the call via a fatal diagnostic, not continue selection")
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(out), "fatal:")
	assert.Contains(t, string(out), "integer arguments is unsupported")
}
