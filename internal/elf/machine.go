package elf

import (
	"fmt"
	"strconv"
)

// e_machine values for the architectures worth naming on the command line.
var machineNames = map[string]uint16{
	"i386":    3,
	"mips":    8,
	"ppc64":   21,
	"s390":    22,
	"arm":     40,
	"x86_64":  62,
	"aarch64": 183,
	"riscv":   243,
}

// MachineByName resolves an architecture filter given either as a known
// name (e.g. "x86_64") or as a raw numeric e_machine value. Empty means no
// filter and resolves to zero.
func MachineByName(name string) (uint16, error) {
	if name == "" {
		return 0, nil
	}
	if m, ok := machineNames[name]; ok {
		return m, nil
	}
	n, err := strconv.ParseUint(name, 0, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("unknown machine architecture %q", name)
	}
	return uint16(n), nil
}
