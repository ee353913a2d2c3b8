package elf

import (
	"fmt"
	"strings"
)

// KernelProgram is a minimal intermediate form the GNU-as emitter walks: a
// flat, ordered sequence of labels and instructions. pkg/codegen's
// AsmGenerator builds it directly, walking the AST the same way the
// byte-emitting Generator does and rendering each instruction as text.
type KernelProgram struct {
	Entry string
	Lines []KernelLine
}

// KernelLine is either a label definition or one assembly instruction.
type KernelLine struct {
	Label string // non-empty for a label-only line
	Instr string // e.g. "mov %rbp, %rsp"
}

// EmitAssembly renders prog as GNU-as text per spec.md §4.7/§6: `.text`,
// `.globl <entry>`, `L<n>:` labels, AT&T-order mnemonics. Callers are
// expected to assemble and link this externally.
func EmitAssembly(prog KernelProgram) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".text\n")
	fmt.Fprintf(&b, ".globl %s\n", prog.Entry)

	for _, line := range prog.Lines {
		switch {
		case line.Label != "":
			fmt.Fprintf(&b, "%s:\n", line.Label)
		case line.Instr != "":
			fmt.Fprintf(&b, "    %s\n", line.Instr)
		}
	}

	return b.String()
}

// Label formats a numbered control-flow label in the `L<n>:` scheme spec.md
// §6 names for kernel-mode assembly output.
func Label(n int) string { return fmt.Sprintf("L%d", n) }
