// Package codegen implements Home's native x86-64 code generator, per
// spec.md §4.6: a fixed, non-graph-colored register discipline producing
// position-dependent Linux System V code. Grounded on go-corset's
// pkg/asm/builder.go incremental-build pattern and pkg/asm/insn's
// tagged-struct-per-instruction style, adapted from go-corset's abstract
// constraint-machine instructions to real x86-64 encodings; the
// emit-buffer-plus-patch-list shape itself is spec.md §9's own design note.
package codegen

import "encoding/binary"

// Reg names a general-purpose 64-bit register by its 3-bit encoding, used
// directly in ModRM bytes (spec.md §4.6 names no register beyond rax, rcx,
// rsp, rbp — rdi is used only for the exit(0) syscall's argument, and rdx
// only by cqo/idiv for division and modulo).
type Reg uint8

const (
	RAX Reg = 0
	RCX Reg = 1
	RDX Reg = 2
	RBX Reg = 3
	RSP Reg = 4
	RBP Reg = 5
	RSI Reg = 6
	RDI Reg = 7
)

// patch records a forward jmp/jcc/call whose rel32 field (the last 4 bytes
// of a 6-byte near-jcc or 5-byte jmp/call instruction) is still a
// placeholder; Resolve measures the displacement from the end of that
// field, so the same record serves every instruction form.
type patch struct {
	at    int // offset of the rel32 field itself
	label string
}

// Buffer is the code buffer, label table and patch list from spec.md §9's
// "emit-buffer + patch list" design note: forward jumps write a
// placeholder rel32 that gets patched once the target label's offset is
// known, avoiding a full two-pass assembler for this instruction subset.
type Buffer struct {
	Code    []byte
	labels  map[string]int
	patches []patch
}

// NewBuffer constructs an empty code buffer.
func NewBuffer() *Buffer {
	return &Buffer{labels: map[string]int{}}
}

// Label records name as resolving to the current buffer position.
func (b *Buffer) Label(name string) {
	b.labels[name] = len(b.Code)
}

// Pos returns the current write position, e.g. to remember a function's
// entry point as its call target.
func (b *Buffer) Pos() int { return len(b.Code) }

func (b *Buffer) emit(bs ...byte) {
	b.Code = append(b.Code, bs...)
}

func (b *Buffer) emitU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.emit(tmp[:]...)
}

func (b *Buffer) emitU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.emit(tmp[:]...)
}

func modrmRR(reg, rm Reg) byte {
	return 0xC0 | byte(reg)<<3 | byte(rm)
}

// MovImm64 emits `mov r64, imm64` (REX.W + B8+r + imm64).
func (b *Buffer) MovImm64(dst Reg, imm int64) {
	b.emit(0x48, 0xB8+byte(dst))
	b.emitU64(uint64(imm))
}

// MovRegReg emits `mov dst, src`.
func (b *Buffer) MovRegReg(dst, src Reg) {
	b.emit(0x48, 0x89, modrmRR(src, dst))
}

// LoadLocal emits `mov dst, [rbp - disp]` for a stack local at byte offset
// disp below rbp, per spec.md §4.6: "locals live on the stack at
// [rbp - 8*(index+1)]".
func (b *Buffer) LoadLocal(dst Reg, disp int32) {
	b.emit(0x48, 0x8B, 0x85|byte(dst)<<3)
	b.emitU32(uint32(int32(-disp)))
}

// StoreLocal emits `mov [rbp - disp], src`.
func (b *Buffer) StoreLocal(disp int32, src Reg) {
	b.emit(0x48, 0x89, 0x85|byte(src)<<3)
	b.emitU32(uint32(int32(-disp)))
}

// Push emits `push r64`.
func (b *Buffer) Push(r Reg) { b.emit(0x50 + byte(r)) }

// Pop emits `pop r64`.
func (b *Buffer) Pop(r Reg) { b.emit(0x58 + byte(r)) }

// Add emits `add dst, src`.
func (b *Buffer) Add(dst, src Reg) { b.emit(0x48, 0x01, modrmRR(src, dst)) }

// Sub emits `sub dst, src`.
func (b *Buffer) Sub(dst, src Reg) { b.emit(0x48, 0x29, modrmRR(src, dst)) }

// Imul emits the two-operand `imul dst, src` (0F AF /r: dst *= src).
func (b *Buffer) Imul(dst, src Reg) { b.emit(0x48, 0x0F, 0xAF, modrmRR(dst, src)) }

// Xor emits `xor dst, src`.
func (b *Buffer) Xor(dst, src Reg) { b.emit(0x48, 0x31, modrmRR(src, dst)) }

// And emits `and dst, src`.
func (b *Buffer) And(dst, src Reg) { b.emit(0x48, 0x21, modrmRR(src, dst)) }

// Or emits `or dst, src`.
func (b *Buffer) Or(dst, src Reg) { b.emit(0x48, 0x09, modrmRR(src, dst)) }

// AddImm32 emits `add dst, imm32` (81 /0 id), used to pop call arguments
// off the stack after a call returns.
func (b *Buffer) AddImm32(dst Reg, imm int32) {
	b.emit(0x48, 0x81, 0xC0|byte(dst))
	b.emitU32(uint32(imm))
}

// Neg emits `neg r64` (F7 /3).
func (b *Buffer) Neg(r Reg) { b.emit(0x48, 0xF7, 0xD8|byte(r)) }

// Cqo emits `cqo`, sign-extending rax into rdx:rax ahead of a 64-bit idiv,
// per spec.md §4.6's division/modulo lowering.
func (b *Buffer) Cqo() { b.emit(0x48, 0x99) }

// Idiv emits `idiv r64` (F7 /7): rax,rdx := rdx:rax /,% r.
func (b *Buffer) Idiv(r Reg) { b.emit(0x48, 0xF7, 0xF8|byte(r)) }

// Cmp emits `cmp a, b` (computes a - b and sets flags; a is the ModRM
// r/m operand, b the reg operand, per spec.md §4.6's left-then-right
// evaluation order: a is always the binary expression's left operand).
func (b *Buffer) Cmp(a, bReg Reg) { b.emit(0x48, 0x39, modrmRR(bReg, a)) }

// TestSelf emits `test r, r`, used to branch on a bool/int value in r
// being zero or nonzero (if/while conditions).
func (b *Buffer) TestSelf(r Reg) { b.emit(0x48, 0x85, modrmRR(r, r)) }

// Ret emits `ret`.
func (b *Buffer) Ret() { b.emit(0xC3) }

// Syscall emits `syscall`.
func (b *Buffer) Syscall() { b.emit(0x0F, 0x05) }

// Jmp emits an unconditional near jump to label, recording a patch if the
// label is not yet resolved (a forward reference).
func (b *Buffer) Jmp(label string) {
	b.emit(0xE9)
	b.emitPatchableRel32(label)
}

// Call emits a near call to label, via the same patch mechanism as Jmp.
func (b *Buffer) Call(label string) {
	b.emit(0xE8)
	b.emitPatchableRel32(label)
}

// jccOp is a near (0F 8x) conditional jump opcode's second byte.
type jccOp byte

const (
	jccEq  jccOp = 0x84
	jccNeq jccOp = 0x85
	jccLt  jccOp = 0x8C
	jccLeq jccOp = 0x8E
	jccGt  jccOp = 0x8F
	jccGeq jccOp = 0x8D
)

// Jcc emits a near conditional jump to label.
func (b *Buffer) Jcc(cc jccOp, label string) {
	b.emit(0x0F, byte(cc))
	b.emitPatchableRel32(label)
}

// JumpIfZero emits the `test r,r; jz label` idiom used to branch on a
// bool/int condition result.
func (b *Buffer) JumpIfZero(r Reg, label string) {
	b.TestSelf(r)
	b.Jcc(jccEq, label)
}

func (b *Buffer) emitPatchableRel32(label string) {
	at := len(b.Code)
	b.emitU32(0) // placeholder, patched by Resolve

	if target, ok := b.labels[label]; ok {
		b.patchRel32(at, target)
		return
	}

	b.patches = append(b.patches, patch{at: at, label: label})
}

func (b *Buffer) patchRel32(at, target int) {
	rel := int32(target - (at + 4))
	binary.LittleEndian.PutUint32(b.Code[at:at+4], uint32(rel))
}

// Resolve patches every forward reference recorded before its label was
// defined. It must be called once all labels in the unit have been
// emitted (spec.md §9: "patches a placeholder offset when the target
// label is later resolved").
func (b *Buffer) Resolve() {
	for _, p := range b.patches {
		target, ok := b.labels[p.label]
		if !ok {
			continue // an undefined label is a codegen bug, not a user error; left unpatched (zero) rather than panicking
		}

		b.patchRel32(p.at, target)
	}

	b.patches = nil
}

// LabelOffset returns the resolved offset of label, if known.
func (b *Buffer) LabelOffset(label string) (int, bool) {
	off, ok := b.labels[label]
	return off, ok
}
