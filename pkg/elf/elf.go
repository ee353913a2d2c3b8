// Package elf writes the statically linked ELF64 executables and GNU-as
// kernel-mode assembly described in spec.md §4.7/§6. The on-disk layout is
// hand-rolled with encoding/binary, the same fixed-layout-header technique
// go-corset's pkg/binfile/binfile.go uses for its own binary format.
package elf

import (
	"bytes"
	"encoding/binary"
)

const (
	elfHeaderSize     = 64
	programHeaderSize = 56

	etExec    = 2
	emX86_64  = 62
	evCurrent = 1

	ptLoad  = 1
	pfExec  = 1
	pfWrite = 2
	pfRead  = 4

	pageAlign = 0x1000
	baseVaddr = 0x400000
)

// Write assembles code into a statically linked ET_EXEC ELF64 image: one
// R+X PT_LOAD segment containing the ELF header, program header and code,
// padded to a page boundary, per spec.md §4.7/§6. Execution begins at the
// first emitted byte.
func Write(code []byte) []byte {
	vaddr := uint64(baseVaddr)
	entry := vaddr + elfHeaderSize + programHeaderSize

	var buf bytes.Buffer

	buf.Write(elfHeader(entry))
	buf.Write(programHeader(vaddr, code))
	buf.Write(code)

	padded := buf.Bytes()
	if rem := len(padded) % pageAlign; rem != 0 {
		padded = append(padded, make([]byte, pageAlign-rem)...)
	}

	return padded
}

func elfHeader(entry uint64) []byte {
	h := make([]byte, elfHeaderSize)

	copy(h[0:4], []byte{0x7F, 'E', 'L', 'F'})
	h[4] = 2 // ELFCLASS64
	h[5] = 1 // ELFDATA2LSB
	h[6] = evCurrent
	h[7] = 0 // ELFOSABI_SYSV
	// h[8] ABI version, h[9:16] padding left zero

	binary.LittleEndian.PutUint16(h[16:18], etExec)
	binary.LittleEndian.PutUint16(h[18:20], emX86_64)
	binary.LittleEndian.PutUint32(h[20:24], evCurrent)
	binary.LittleEndian.PutUint64(h[24:32], entry)
	binary.LittleEndian.PutUint64(h[32:40], elfHeaderSize) // e_phoff: program header follows immediately
	binary.LittleEndian.PutUint64(h[40:48], 0)             // e_shoff: no section headers
	binary.LittleEndian.PutUint32(h[48:52], 0)             // e_flags
	binary.LittleEndian.PutUint16(h[52:54], elfHeaderSize)
	binary.LittleEndian.PutUint16(h[54:56], programHeaderSize)
	binary.LittleEndian.PutUint16(h[56:58], 1) // e_phnum
	binary.LittleEndian.PutUint16(h[58:60], 0) // e_shentsize
	binary.LittleEndian.PutUint16(h[60:62], 0) // e_shnum
	binary.LittleEndian.PutUint16(h[62:64], 0) // e_shstrndx

	return h
}

func programHeader(vaddr uint64, code []byte) []byte {
	ph := make([]byte, programHeaderSize)

	fileSize := uint64(elfHeaderSize + programHeaderSize + len(code))

	binary.LittleEndian.PutUint32(ph[0:4], ptLoad)
	binary.LittleEndian.PutUint32(ph[4:8], pfRead|pfExec)
	binary.LittleEndian.PutUint64(ph[8:16], 0)     // p_offset: segment starts at file offset 0
	binary.LittleEndian.PutUint64(ph[16:24], vaddr) // p_vaddr
	binary.LittleEndian.PutUint64(ph[24:32], vaddr) // p_paddr
	binary.LittleEndian.PutUint64(ph[32:40], fileSize)
	binary.LittleEndian.PutUint64(ph[40:48], fileSize)
	binary.LittleEndian.PutUint64(ph[48:56], pageAlign)

	return ph
}
