package codegen_test

import (
	"testing"

	"github.com/homelang/homec/pkg/codegen"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

func generate(t *testing.T, src string) (*codegen.Buffer, []source.Diagnostic) {
	t.Helper()

	file := source.New("<test>", []byte(src))
	prog, parseErrs := parser.Parse(file)
	assert.Equal(t, 0, len(parseErrs), "unexpected parse errors")

	return codegen.Generate(prog)
}

func TestMainEndsInExitSyscall(t *testing.T) {
	buf, errs := generate(t, `fn main() { let x = 1 + 2; }`)
	assert.Equal(t, 0, len(errs))

	// mov rax,60 ; xor rdi,rdi ; syscall
	tail := buf.Code[len(buf.Code)-2:]
	assert.Equal(t, byte(0x0F), tail[0])
	assert.Equal(t, byte(0x05), tail[1])
}

func TestMainWithExplicitReturnEndsInExitSyscall(t *testing.T) {
	// Regression: main is the ELF entry point, so a bare ret here would
	// pop argc into rip instead of exiting cleanly (seed scenario S1).
	buf, errs := generate(t, `fn main() { let x = 2 + 3 * 4; return; }`)
	assert.Equal(t, 0, len(errs))

	tail := buf.Code[len(buf.Code)-2:]
	assert.Equal(t, byte(0x0F), tail[0])
	assert.Equal(t, byte(0x05), tail[1])
}

func TestNonMainEndsInRet(t *testing.T) {
	buf, errs := generate(t, `fn f() -> int { return 1; }`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, byte(0xC3), buf.Code[len(buf.Code)-1])
}

func TestFunctionPrologue(t *testing.T) {
	buf, errs := generate(t, `fn f() { let x = 1; }`)
	assert.Equal(t, 0, len(errs))

	// push rbp ; mov rbp, rsp
	assert.Equal(t, byte(0x55), buf.Code[0])
	assert.Equal(t, []byte{0x48, 0x89, 0xE5}, buf.Code[1:4])
}

func TestTooManyVariablesReported(t *testing.T) {
	var b []byte
	for i := 0; i < 300; i++ {
		b = append(b, []byte("let v"+itoa(i)+" = 1; ")...)
	}

	src := "fn f() { " + string(b) + " }"
	_, errs := generate(t, src)

	assert.True(t, len(errs) > 0)
	assert.Equal(t, source.KindTooManyVariables, errs[0].Kind)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	return string(digits)
}

func TestUnsupportedFeatureReported(t *testing.T) {
	_, errs := generate(t, `fn f() { let x = 1.5; }`)
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, source.KindUnsupportedFeature, errs[0].Kind)
}

func TestIfElseResolvesLabels(t *testing.T) {
	_, errs := generate(t, `fn f() -> int { if 1 < 2 { return 1; } else { return 2; } return 0; }`)
	assert.Equal(t, 0, len(errs))
}

func TestWhileLoopResolvesLabels(t *testing.T) {
	_, errs := generate(t, `fn f() { let x = 0; while x < 10 { x = x + 1; } }`)
	assert.Equal(t, 0, len(errs))
}

func TestCallPushesArgsAndCleansUpStack(t *testing.T) {
	_, errs := generate(t, `
fn add(a: int, b: int) -> int { return a + b; }
fn main() { let x = add(1, 2); }
`)
	assert.Equal(t, 0, len(errs))
}

func TestTopLevelComptimeConstantFoldsAtUseSite(t *testing.T) {
	// A top-level comptime constant gets no frame slot (only FnDecls are
	// lowered by Generate), but pkg/check's checkTopLevelLets pass admits
	// referencing it from a function body, so codegen must fold it rather
	// than report it as an undefined variable.
	buf, errs := generate(t, `
comptime let limit = 2 + 3;
fn main() { let x = limit; }
`)
	assert.Equal(t, 0, len(errs))
	assert.True(t, len(buf.Code) > 0)
}

func TestGenerateAssemblyMainReturnReachesSyscall(t *testing.T) {
	file := source.New("<test>", []byte(`fn main() { let x = 1; return; }`))
	prog, parseErrs := parser.Parse(file)
	assert.Equal(t, 0, len(parseErrs))

	kprog, errs := codegen.GenerateAssembly(prog)
	assert.Equal(t, 0, len(errs))

	sawSyscall := false
	sawRet := false

	for _, line := range kprog.Lines {
		if line.Instr == "syscall" {
			sawSyscall = true
		}

		if line.Instr == "ret" {
			sawRet = true
		}
	}

	assert.True(t, sawSyscall)
	assert.False(t, sawRet)
}

func TestGenerateAssemblyMirrorsLowering(t *testing.T) {
	file := source.New("<test>", []byte(`fn main() { let x = 1 + 2; }`))
	prog, parseErrs := parser.Parse(file)
	assert.Equal(t, 0, len(parseErrs))

	kprog, errs := codegen.GenerateAssembly(prog)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, "fn_main", kprog.Entry)
	assert.True(t, len(kprog.Lines) > 0)
}
