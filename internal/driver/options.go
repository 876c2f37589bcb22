package driver

// Options collects every per-invocation toggle, populated by the CLI
// (cmd/statimc) before the pipeline runs.
type Options struct {
	// Output is the final linked binary's path. Empty means "a.out" in the
	// current working directory, matching a conventional `cc`-like default.
	Output string

	// OptLevel is 0..3; level 0 skips SSA construction and DCE entirely.
	OptLevel int

	Debug bool
	Devel bool

	DumpAST       bool
	DumpLLVMIR    bool // accepted, never produced: no LLVM path in this backend.
	DumpMachineIR bool
	DumpSIIR      bool

	KeepAsm bool
	KeepObj bool

	Link  bool
	LLVM  bool
	NoStd bool
	Time  bool
}
