package elf_test

import (
	"strings"
	"testing"

	"github.com/homelang/homec/pkg/elf"
	"github.com/homelang/homec/pkg/util/assert"
)

func TestMagicBytesAndClass(t *testing.T) {
	img := elf.Write([]byte{0x90})

	assert.Equal(t, byte(0x7F), img[0])
	assert.Equal(t, byte('E'), img[1])
	assert.Equal(t, byte('L'), img[2])
	assert.Equal(t, byte('F'), img[3])
	assert.Equal(t, byte(2), img[4]) // ELFCLASS64
	assert.Equal(t, byte(1), img[5]) // little-endian
}

func TestSingleProgramHeaderType(t *testing.T) {
	img := elf.Write([]byte{0x90})

	phnum := uint16(img[56]) | uint16(img[57])<<8
	assert.Equal(t, uint16(1), phnum)

	phoff := 64
	ptype := uint32(img[phoff]) | uint32(img[phoff+1])<<8 | uint32(img[phoff+2])<<16 | uint32(img[phoff+3])<<24
	assert.Equal(t, uint32(1), ptype) // PT_LOAD
}

func TestFileIsPageAligned(t *testing.T) {
	img := elf.Write([]byte{0x90, 0x90, 0x90})
	assert.Equal(t, 0, len(img)%0x1000)
}

func TestEntryPointsPastHeaders(t *testing.T) {
	img := elf.Write([]byte{0x90})

	entry := uint64(0)
	for i := 0; i < 8; i++ {
		entry |= uint64(img[24+i]) << (8 * i)
	}

	assert.Equal(t, uint64(0x400000+64+56), entry)
}

func TestEmitAssemblyRendersLabelsAndInstructions(t *testing.T) {
	prog := elf.KernelProgram{
		Entry: "fn_main",
		Lines: []elf.KernelLine{
			{Label: "fn_main"},
			{Instr: "push %rbp"},
			{Instr: "mov %rsp, %rbp"},
		},
	}

	out := elf.EmitAssembly(prog)

	assert.True(t, strings.Contains(out, ".globl fn_main"))
	assert.True(t, strings.Contains(out, "fn_main:"))
	assert.True(t, strings.Contains(out, "push %rbp"))
}
