// Package elf classifies ELF shared objects and reads their dynamic export
// tables in process. It parses raw bytes with strict bounds checking and
// never trusts an offset taken from the file; this is the replacement for
// shelling out to nm/objdump style tools.
package elf

// Class is the closed set of classifier outcomes. Downstream code can only
// treat Candidate files as scannable.
type Class int

const (
	// NotBinary is anything without a usable ELF header: wrong magic,
	// truncated ident, or an ELF that is not an executable or shared
	// object (relocatable objects and core dumps export nothing
	// dynamically).
	NotBinary Class = iota
	// WrongArchitecture is a valid ELF rejected by the machine filter.
	WrongArchitecture
	// Candidate passed the cheap header check and is worth a full parse.
	Candidate
)

func (c Class) String() string {
	switch c {
	case NotBinary:
		return "not-binary"
	case WrongArchitecture:
		return "wrong-architecture"
	case Candidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Visibility is the linkage scope of a symbol, decoded from the binding
// bits of st_info.
type Visibility int

const (
	Global Visibility = iota
	Weak
	Local
)

// Symbol is one entry of a dynamic symbol table. ReadExports only returns
// entries that qualify as exported functions, so Function and Defined are
// always true and Visibility is never Local in its output; the fields are
// kept so callers can log or assert the qualification.
type Symbol struct {
	Name       string
	Function   bool
	Defined    bool
	Visibility Visibility
	Value      uint64
}

// ELF identification and header constants, straight from the format.
const (
	elfClass32 = 1
	elfClass64 = 2

	elfData2LSB = 1
	elfData2MSB = 2

	etExec = 2
	etDyn  = 3

	shtStrtab = 3
	shtDynsym = 11

	shnUndef = 0

	sttFunc  = 2
	stbLocal = 0
	stbWeak  = 2

	sym32Size = 16
	sym64Size = 24

	shdr32Size = 40
	shdr64Size = 64

	ehdr32Size = 52
	ehdr64Size = 64
)

// HeaderLen is how many leading bytes the classifier needs at most. It
// covers the full ELF64 header; an ELF32 header is shorter.
const HeaderLen = ehdr64Size

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

func symType(info byte) byte { return info & 0xf }
func symBind(info byte) byte { return info >> 4 }

func visibility(bind byte) Visibility {
	switch bind {
	case stbLocal:
		return Local
	case stbWeak:
		return Weak
	default:
		return Global
	}
}
