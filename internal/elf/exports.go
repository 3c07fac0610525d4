package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sofind/sofind/internal/model"
)

// ReadExports parses the whole file image b and returns every exported
// function of its dynamic symbol table: defined (st_shndx != SHN_UNDEF),
// of function type, non-local binding and with a nonzero address.
//
// A missing section table or a missing SHT_DYNSYM section is not an error,
// statically linked binaries legitimately export nothing this way; the
// result is just empty. Any offset or size that points outside b fails
// with an error wrapping model.ErrMalformed instead of reading out of
// bounds. All multi-byte fields are decoded in the byte order the header
// declares.
func ReadExports(b []byte) ([]Symbol, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	if h.shoff == 0 || h.shnum == 0 {
		return nil, nil
	}

	r := reader{b: b, ord: h.ord}

	minShdr := uint64(shdr32Size)
	if h.class == elfClass64 {
		minShdr = shdr64Size
	}
	if h.shentsize < minShdr {
		return nil, fmt.Errorf("section header entry size %d below %d: %w", h.shentsize, minShdr, model.ErrMalformed)
	}
	// shnum and shentsize are 16 bit fields, the product cannot overflow
	if _, err := r.bytes(h.shoff, h.shnum*h.shentsize); err != nil {
		return nil, fmt.Errorf("section header table: %w", err)
	}

	dynsymIdx := -1
	sections := make([]section, h.shnum)
	for i := uint64(0); i < h.shnum; i++ {
		sections[i] = parseSection(r, h, h.shoff+i*h.shentsize)
		if dynsymIdx < 0 && sections[i].typ == shtDynsym {
			dynsymIdx = int(i)
		}
	}
	if dynsymIdx < 0 {
		return nil, nil
	}
	dynsym := sections[dynsymIdx]

	// the paired string table is found through sh_link, not by name
	if uint64(dynsym.link) >= h.shnum {
		return nil, fmt.Errorf("dynsym string table link %d out of %d sections: %w", dynsym.link, h.shnum, model.ErrMalformed)
	}
	strsec := sections[dynsym.link]
	if strsec.typ != shtStrtab {
		return nil, fmt.Errorf("dynsym links to section of type %d, want string table: %w", strsec.typ, model.ErrMalformed)
	}
	strtab, err := r.bytes(strsec.off, strsec.size)
	if err != nil {
		return nil, fmt.Errorf("string table: %w", err)
	}

	minSym := uint64(sym32Size)
	if h.class == elfClass64 {
		minSym = sym64Size
	}
	if dynsym.entsize < minSym {
		return nil, fmt.Errorf("symbol entry size %d below %d: %w", dynsym.entsize, minSym, model.ErrMalformed)
	}
	symtab, err := r.bytes(dynsym.off, dynsym.size)
	if err != nil {
		return nil, fmt.Errorf("symbol table: %w", err)
	}

	var out []Symbol
	count := dynsym.size / dynsym.entsize
	for i := uint64(1); i < count; i++ { // entry 0 is the reserved null symbol
		ent := symtab[i*dynsym.entsize:]

		var nameOff uint32
		var info byte
		var shndx uint16
		var value uint64
		if h.class == elfClass64 {
			nameOff = h.ord.Uint32(ent[0:4])
			info = ent[4]
			shndx = h.ord.Uint16(ent[6:8])
			value = h.ord.Uint64(ent[8:16])
		} else {
			nameOff = h.ord.Uint32(ent[0:4])
			value = uint64(h.ord.Uint32(ent[4:8]))
			info = ent[12]
			shndx = h.ord.Uint16(ent[14:16])
		}

		// imported references, data symbols and local helpers are not
		// exported functions
		if shndx == shnUndef || symType(info) != sttFunc || symBind(info) == stbLocal || value == 0 {
			continue
		}

		if uint64(nameOff) >= uint64(len(strtab)) {
			return nil, fmt.Errorf("symbol %d name offset %d beyond string table of %d: %w", i, nameOff, len(strtab), model.ErrMalformed)
		}
		end := bytes.IndexByte(strtab[nameOff:], 0)
		if end < 0 {
			return nil, fmt.Errorf("symbol %d name unterminated: %w", i, model.ErrMalformed)
		}
		name := string(strtab[nameOff : uint64(nameOff)+uint64(end)])
		if name == "" {
			continue
		}

		out = append(out, Symbol{
			Name:       name,
			Function:   true,
			Defined:    true,
			Visibility: visibility(symBind(info)),
			Value:      value,
		})
	}
	return out, nil
}

// header is the subset of the ELF header the export reader needs.
type header struct {
	class     byte
	ord       binary.ByteOrder
	shoff     uint64
	shentsize uint64
	shnum     uint64
}

func parseHeader(b []byte) (header, error) {
	if Classify(b, 0) == NotBinary {
		return header{}, fmt.Errorf("reading exports: %w", model.ErrNotELF)
	}

	var h header
	h.class = b[4]
	if b[5] == elfData2MSB {
		h.ord = binary.BigEndian
	} else {
		h.ord = binary.LittleEndian
	}

	if h.class == elfClass64 {
		if len(b) < ehdr64Size {
			return header{}, fmt.Errorf("ELF64 header truncated at %d bytes: %w", len(b), model.ErrMalformed)
		}
		h.shoff = h.ord.Uint64(b[40:48])
		h.shentsize = uint64(h.ord.Uint16(b[58:60]))
		h.shnum = uint64(h.ord.Uint16(b[60:62]))
	} else {
		if len(b) < ehdr32Size {
			return header{}, fmt.Errorf("ELF32 header truncated at %d bytes: %w", len(b), model.ErrMalformed)
		}
		h.shoff = uint64(h.ord.Uint32(b[32:36]))
		h.shentsize = uint64(h.ord.Uint16(b[46:48]))
		h.shnum = uint64(h.ord.Uint16(b[48:50]))
	}
	return h, nil
}

// section is the subset of a section header the export reader needs.
type section struct {
	typ     uint32
	off     uint64
	size    uint64
	link    uint32
	entsize uint64
}

// parseSection decodes one section header at off. The caller has already
// bounds-checked the whole table.
func parseSection(r reader, h header, off uint64) section {
	ent := r.b[off:]
	if h.class == elfClass64 {
		return section{
			typ:     h.ord.Uint32(ent[4:8]),
			off:     h.ord.Uint64(ent[24:32]),
			size:    h.ord.Uint64(ent[32:40]),
			link:    h.ord.Uint32(ent[40:44]),
			entsize: h.ord.Uint64(ent[56:64]),
		}
	}
	return section{
		typ:     h.ord.Uint32(ent[4:8]),
		off:     uint64(h.ord.Uint32(ent[16:20])),
		size:    uint64(h.ord.Uint32(ent[20:24])),
		link:    h.ord.Uint32(ent[24:28]),
		entsize: uint64(h.ord.Uint32(ent[36:40])),
	}
}

// reader is a bounds-checked view over a file image.
type reader struct {
	b   []byte
	ord binary.ByteOrder
}

// bytes returns b[off:off+n] or fails when the range leaves the file.
// Overflow safe: the check never computes off+n.
func (r reader) bytes(off, n uint64) ([]byte, error) {
	size := uint64(len(r.b))
	if off > size || n > size-off {
		return nil, fmt.Errorf("%d bytes at offset %d beyond file of %d: %w", n, off, size, model.ErrMalformed)
	}
	return r.b[off : off+n], nil
}
