package elf

import (
	"encoding/binary"
)

// classifyLen is the shortest prefix the classifier can decide on: up to
// and including e_machine at offset 18.
const classifyLen = 20

// Classify decides from the leading header bytes whether a file is a
// scannable shared-library binary. It inspects at most HeaderLen bytes and
// does no parsing beyond the fixed-size header, so it is safe to call on
// arbitrary files. machine restricts candidates to one e_machine value;
// zero accepts any architecture.
//
// Shared objects are ET_DYN; ET_EXEC is accepted too since old-style
// non-PIE executables also carry dynamic export tables.
func Classify(hdr []byte, machine uint16) Class {
	if len(hdr) < classifyLen {
		return NotBinary
	}
	if [4]byte(hdr[:4]) != elfMagic {
		return NotBinary
	}

	class := hdr[4]
	if class != elfClass32 && class != elfClass64 {
		return NotBinary
	}

	var ord binary.ByteOrder
	switch hdr[5] {
	case elfData2LSB:
		ord = binary.LittleEndian
	case elfData2MSB:
		ord = binary.BigEndian
	default:
		return NotBinary
	}

	typ := ord.Uint16(hdr[16:18])
	if typ != etDyn && typ != etExec {
		return NotBinary
	}

	if machine != 0 && ord.Uint16(hdr[18:20]) != machine {
		return WrongArchitecture
	}
	return Candidate
}
