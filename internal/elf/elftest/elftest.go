// Package elftest builds minimal ELF shared objects in memory. Tests
// generate their binary fixtures with it instead of committing opaque blobs
// to the repository.
//
// The produced image has a header, a dynamic string table, a dynamic symbol
// table and a three-entry section header table (null, SHT_DYNSYM,
// SHT_STRTAB). That is the minimum a dynamic export reader needs; there is
// no program header table and the file is not loadable.
package elftest

import (
	"encoding/binary"
)

// Sym describes one dynamic symbol table entry to emit.
type Sym struct {
	Name  string
	Type  byte   // STT_* value
	Bind  byte   // STB_* value
	Shndx uint16 // 0 leaves the symbol undefined
	Value uint64
}

const (
	sttObject = 1
	sttFunc   = 2

	stbLocal  = 0
	stbGlobal = 1
	stbWeak   = 2
)

// Func is a defined global function, the kind that qualifies as an export.
func Func(name string) Sym {
	return Sym{Name: name, Type: sttFunc, Bind: stbGlobal, Shndx: 1, Value: 0x1000}
}

// WeakFunc is a defined weak function. Weak symbols are linkable and count
// as exported.
func WeakFunc(name string) Sym {
	return Sym{Name: name, Type: sttFunc, Bind: stbWeak, Shndx: 1, Value: 0x1000}
}

// LocalFunc is a defined function with local binding, invisible to linking.
func LocalFunc(name string) Sym {
	return Sym{Name: name, Type: sttFunc, Bind: stbLocal, Shndx: 1, Value: 0x1000}
}

// UndefFunc is an imported reference, not an export.
func UndefFunc(name string) Sym {
	return Sym{Name: name, Type: sttFunc, Bind: stbGlobal, Shndx: 0, Value: 0}
}

// DataSym is a defined global data object, excluded from function matching.
func DataSym(name string) Sym {
	return Sym{Name: name, Type: sttObject, Bind: stbGlobal, Shndx: 1, Value: 0x2000}
}

// Opts selects the ELF layout variant to emit.
type Opts struct {
	Class32   bool   // ELF32 instead of ELF64
	BigEndian bool   // MSB byte order instead of LSB
	Machine   uint16 // e_machine, 62 (x86_64) when zero
	Type      uint16 // e_type, ET_DYN when zero
	NoDynsym  bool   // emit no section table at all, like a static binary
}

// SharedObject renders an ELF image containing the given dynamic symbols.
func SharedObject(opts Opts, syms ...Sym) []byte {
	ord := binary.ByteOrder(binary.LittleEndian)
	data := byte(1)
	if opts.BigEndian {
		ord = binary.BigEndian
		data = 2
	}
	class := byte(2)
	ehSize, symSize, shSize := 64, 24, 64
	if opts.Class32 {
		class = 1
		ehSize, symSize, shSize = 52, 16, 40
	}
	machine := opts.Machine
	if machine == 0 {
		machine = 62
	}
	etype := opts.Type
	if etype == 0 {
		etype = 3 // ET_DYN
	}

	// string table: leading NUL, then the names
	strtab := []byte{0}
	nameOff := make([]uint32, len(syms))
	for i, s := range syms {
		nameOff[i] = uint32(len(strtab))
		strtab = append(strtab, s.Name...)
		strtab = append(strtab, 0)
	}

	strtabOff := ehSize
	symtabOff := strtabOff + len(strtab)
	symCount := len(syms) + 1 // entry 0 is the null symbol
	shOff := symtabOff + symCount*symSize

	total := shOff + 3*shSize
	if opts.NoDynsym {
		total = symtabOff
		shOff = 0
	}
	b := make([]byte, total)

	// e_ident
	copy(b, []byte{0x7f, 'E', 'L', 'F'})
	b[4] = class
	b[5] = data
	b[6] = 1 // EV_CURRENT

	ord.PutUint16(b[16:], etype)
	ord.PutUint16(b[18:], machine)
	ord.PutUint32(b[20:], 1)

	shnum := uint16(3)
	if opts.NoDynsym {
		shnum = 0
	}
	if opts.Class32 {
		ord.PutUint32(b[32:], uint32(shOff))
		ord.PutUint16(b[40:], uint16(ehSize))
		ord.PutUint16(b[46:], uint16(shSize))
		ord.PutUint16(b[48:], shnum)
	} else {
		ord.PutUint64(b[40:], uint64(shOff))
		ord.PutUint16(b[52:], uint16(ehSize))
		ord.PutUint16(b[58:], uint16(shSize))
		ord.PutUint16(b[60:], shnum)
	}

	copy(b[strtabOff:], strtab)

	if opts.NoDynsym {
		return b
	}

	for i, s := range syms {
		ent := b[symtabOff+(i+1)*symSize:]
		info := s.Bind<<4 | s.Type&0xf
		if opts.Class32 {
			ord.PutUint32(ent[0:], nameOff[i])
			ord.PutUint32(ent[4:], uint32(s.Value))
			ent[12] = info
			ord.PutUint16(ent[14:], s.Shndx)
		} else {
			ord.PutUint32(ent[0:], nameOff[i])
			ent[4] = info
			ord.PutUint16(ent[6:], s.Shndx)
			ord.PutUint64(ent[8:], s.Value)
		}
	}

	// section headers: [0] null, [1] dynsym linked to [2] strtab
	putShdr(b[shOff+shSize:], ord, opts.Class32, shdr{
		typ: 11, off: uint64(symtabOff), size: uint64(symCount * symSize), link: 2, entsize: uint64(symSize),
	})
	putShdr(b[shOff+2*shSize:], ord, opts.Class32, shdr{
		typ: 3, off: uint64(strtabOff), size: uint64(len(strtab)),
	})
	return b
}

type shdr struct {
	typ     uint32
	off     uint64
	size    uint64
	link    uint32
	entsize uint64
}

func putShdr(ent []byte, ord binary.ByteOrder, class32 bool, s shdr) {
	ord.PutUint32(ent[4:], s.typ)
	if class32 {
		ord.PutUint32(ent[16:], uint32(s.off))
		ord.PutUint32(ent[20:], uint32(s.size))
		ord.PutUint32(ent[24:], s.link)
		ord.PutUint32(ent[36:], uint32(s.entsize))
		return
	}
	ord.PutUint64(ent[24:], s.off)
	ord.PutUint64(ent[32:], s.size)
	ord.PutUint32(ent[40:], s.link)
	ord.PutUint64(ent[56:], s.entsize)
}
