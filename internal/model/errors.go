package model

import (
	"errors"
)

var (
	// ErrNotELF marks files rejected by the classifier. Not recorded as a
	// scan error, the file is simply not a shared object.
	ErrNotELF = errors.New("not an ELF binary")

	// ErrWrongMachine marks ELF files rejected by the machine filter.
	ErrWrongMachine = errors.New("wrong machine architecture")

	// ErrMalformed marks ELF files whose header or symbol table cannot be
	// parsed. Recorded in the report, never aborts the scan.
	ErrMalformed = errors.New("malformed binary")

	ErrTooBig  = errors.New("file too big")
	ErrNoMatch = errors.New("no match")
)
