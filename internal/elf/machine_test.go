package elf_test

import (
	"testing"

	"github.com/sofind/sofind/internal/elf"

	"github.com/stretchr/testify/require"
)

func TestMachineByName(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    string
		then     uint16
		fails    bool
	}{
		{"empty means any", "", 0, false},
		{"known name", "x86_64", 62, false},
		{"another known name", "aarch64", 183, false},
		{"raw decimal", "40", 40, false},
		{"raw hex", "0xf3", 243, false},
		{"unknown name", "pdp11", 0, true},
		{"zero is not a filter", "0", 0, true},
		{"out of range", "100000", 0, true},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			m, err := elf.MachineByName(tt.given)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.then, m)
		})
	}
}
