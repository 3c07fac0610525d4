package elf_test

import (
	"testing"

	"github.com/sofind/sofind/internal/elf"
	"github.com/sofind/sofind/internal/elf/elftest"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	shared := elftest.SharedObject(elftest.Opts{}, elftest.Func("puts"))

	type given struct {
		hdr     []byte
		machine uint16
	}

	var testCases = []struct {
		scenario string
		given    given
		then     elf.Class
	}{
		{"empty", given{nil, 0}, elf.NotBinary},
		{"too short", given{shared[:10], 0}, elf.NotBinary},
		{"text file", given{[]byte("#!/bin/sh\necho hello world\n"), 0}, elf.NotBinary},
		{"bad magic", given{[]byte("\x7fELZ" + string(shared[4:])), 0}, elf.NotBinary},
		{"bad class", given{corrupt(shared, 4, 9), 0}, elf.NotBinary},
		{"bad byte order", given{corrupt(shared, 5, 9), 0}, elf.NotBinary},
		{"shared object", given{shared, 0}, elf.Candidate},
		{"shared object 32-bit", given{elftest.SharedObject(elftest.Opts{Class32: true}), 0}, elf.Candidate},
		{"shared object big-endian", given{elftest.SharedObject(elftest.Opts{BigEndian: true}), 0}, elf.Candidate},
		{"executable", given{elftest.SharedObject(elftest.Opts{Type: 2}), 0}, elf.Candidate},
		{"relocatable object", given{elftest.SharedObject(elftest.Opts{Type: 1}), 0}, elf.NotBinary},
		{"core dump", given{elftest.SharedObject(elftest.Opts{Type: 4}), 0}, elf.NotBinary},
		{"machine filter match", given{shared, 62}, elf.Candidate},
		{"machine filter mismatch", given{shared, 183}, elf.WrongArchitecture},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.then, elf.Classify(tt.given.hdr, tt.given.machine))
		})
	}
}

// corrupt returns a copy of b with b[off] replaced
func corrupt(b []byte, off int, val byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	out[off] = val
	return out
}
