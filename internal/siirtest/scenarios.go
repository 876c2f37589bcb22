// Package siirtest builds six end-to-end CFGs directly through
// siir.Builder, standing in for the external front end this backend never
// implements itself. Each scenario satisfies frontend.Emitter's exact
// signature so it can be handed straight to internal/driver in an
// integration test.
package siirtest

import "github.com/nwmarino/statim/internal/siir"

// Scenario1 is `main :: () -> s64 { ret 42; }`, exit code 42.
func Scenario1(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", cfg.FunctionType(nil, i64), siir.LinkageExternal, false)

	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)
	b.BuildReturn(cfg.ConstInt(i64, 42))
	return nil
}

// mainArgvSig is the `(argc: s64, argv: **char) -> s64` signature shared by
// the main functions of scenarios 2 through 6.
func mainArgvSig(cfg *siir.CFG) *siir.FunctionType {
	i64 := cfg.IntType(64)
	charPtrPtr := cfg.PointerType(cfg.PointerType(cfg.IntType(8)))
	return cfg.FunctionType([]siir.Type{i64, charPtrPtr}, i64)
}

// Scenario2 is `main :: (argc: s64, argv: **char) -> s64 { let x: s64 =
// argc; ret x; }`, invoked with no args (argc == 1): exit code 1.
func Scenario2(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", mainArgvSig(cfg), siir.LinkageExternal, false)

	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)

	x := fn.AddLocal("x", i64, 8)
	b.BuildStore(fn.Arguments[0], x, 8)

	loaded := b.BuildLoad(x, i64, 8)
	b.BuildReturn(loaded)
	return nil
}

// Scenario3 is:
//
//	add :: (a: s64, b: s64) -> s64 { ret a + b; }
//	main :: (_: s64, _: **char) -> s64 { ret add(20, 22); }
//
// exit code 42.
func Scenario3(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)

	add := cfg.AddFunction("add", cfg.FunctionType([]siir.Type{i64, i64}, i64), siir.LinkageInternal, false)
	addEntry := add.AppendBlock()
	b.SetInsertBlock(addEntry)
	b.BuildReturn(b.BuildIAdd(add.Arguments[0], add.Arguments[1]))

	main := cfg.AddFunction("main", mainArgvSig(cfg), siir.LinkageExternal, false)
	mainEntry := main.AppendBlock()
	b.SetInsertBlock(mainEntry)
	call := b.BuildCall(add, []siir.Value{cfg.ConstInt(i64, 20), cfg.ConstInt(i64, 22)}, i64)
	b.BuildReturn(call)
	return nil
}

// Scenario4 is:
//
//	main :: (_: s64, _: **char) -> s64 {
//	    let i: s64 = 0; let s: s64 = 0;
//	    while i < 10 { s = s + i; i = i + 1; }
//	    ret s;
//	}
//
// exit code 45 (0+1+...+9).
func Scenario4(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)
	fn := cfg.AddFunction("main", mainArgvSig(cfg), siir.LinkageExternal, false)

	entry := fn.AppendBlock()
	header := fn.AppendBlock()
	body := fn.AppendBlock()
	exit := fn.AppendBlock()

	b.SetInsertBlock(entry)
	iLocal := fn.AddLocal("i", i64, 8)
	sLocal := fn.AddLocal("s", i64, 8)
	b.BuildStore(cfg.ConstInt(i64, 0), iLocal, 8)
	b.BuildStore(cfg.ConstInt(i64, 0), sLocal, 8)
	b.BuildJump(header)

	b.SetInsertBlock(header)
	iVal := b.BuildLoad(iLocal, i64, 8)
	cond := b.BuildCmpSLT(iVal, cfg.ConstInt(i64, 10))
	b.BuildBranchIf(cond, body, exit)

	b.SetInsertBlock(body)
	sVal := b.BuildLoad(sLocal, i64, 8)
	iVal2 := b.BuildLoad(iLocal, i64, 8)
	b.BuildStore(b.BuildIAdd(sVal, iVal2), sLocal, 8)
	iVal3 := b.BuildLoad(iLocal, i64, 8)
	b.BuildStore(b.BuildIAdd(iVal3, cfg.ConstInt(i64, 1)), iLocal, 8)
	b.BuildJump(header)

	b.SetInsertBlock(exit)
	finalS := b.BuildLoad(sLocal, i64, 8)
	b.BuildReturn(finalS)
	return nil
}

// Scenario5 is:
//
//	box :: { a: s64, b: s64 }
//	main :: (_: s64, _: **char) -> s64 {
//	    let b: box; b.a = 10; b.b = 32; ret b.a + b.b;
//	}
//
// exit code 42.
func Scenario5(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)
	box := cfg.StructTypeShell("box")
	box.SetFields([]siir.Type{i64, i64})

	fn := cfg.AddFunction("main", mainArgvSig(cfg), siir.LinkageExternal, false)
	entry := fn.AppendBlock()
	b.SetInsertBlock(entry)

	boxLocal := fn.AddLocal("b", box, 8)
	aPtr := b.BuildAccessPtr(boxLocal, box, 0, i64)
	bPtr := b.BuildAccessPtr(boxLocal, box, 1, i64)
	b.BuildStore(cfg.ConstInt(i64, 10), aPtr, 8)
	b.BuildStore(cfg.ConstInt(i64, 32), bPtr, 8)

	aVal := b.BuildLoad(aPtr, i64, 8)
	bVal := b.BuildLoad(bPtr, i64, 8)
	b.BuildReturn(b.BuildIAdd(aVal, bVal))
	return nil
}

// Scenario6 is:
//
//	fib :: (n: s64) -> s64 { if n < 2 { ret n; } ret fib(n-1) + fib(n-2); }
//	main :: (_: s64, _: **char) -> s64 { ret fib(10); }
//
// exit code 55.
func Scenario6(b *siir.Builder, cfg *siir.CFG) error {
	i64 := cfg.IntType(64)

	fib := cfg.AddFunction("fib", cfg.FunctionType([]siir.Type{i64}, i64), siir.LinkageInternal, false)
	entry := fib.AppendBlock()
	baseCase := fib.AppendBlock()
	recCase := fib.AppendBlock()

	b.SetInsertBlock(entry)
	n := fib.Arguments[0]
	cond := b.BuildCmpSLT(n, cfg.ConstInt(i64, 2))
	b.BuildBranchIf(cond, baseCase, recCase)

	b.SetInsertBlock(baseCase)
	b.BuildReturn(n)

	b.SetInsertBlock(recCase)
	nMinus1 := b.BuildISub(n, cfg.ConstInt(i64, 1))
	nMinus2 := b.BuildISub(n, cfg.ConstInt(i64, 2))
	callA := b.BuildCall(fib, []siir.Value{nMinus1}, i64)
	callB := b.BuildCall(fib, []siir.Value{nMinus2}, i64)
	b.BuildReturn(b.BuildIAdd(callA, callB))

	main := cfg.AddFunction("main", mainArgvSig(cfg), siir.LinkageExternal, false)
	mainEntry := main.AppendBlock()
	b.SetInsertBlock(mainEntry)
	result := b.BuildCall(fib, []siir.Value{cfg.ConstInt(i64, 10)}, i64)
	b.BuildReturn(result)
	return nil
}
