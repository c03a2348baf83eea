package loader

import (
	"bytes"
	"context"
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
	"github.com/wippyai/tysh/typedb"
)

// Format is a recognized binary container.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatELF
	FormatMachO
	FormatMachOFat
	FormatPE
	FormatWasm
)

var formatNames = [...]string{
	FormatUnknown:  "unknown",
	FormatELF:      "ELF",
	FormatMachO:    "Mach-O",
	FormatMachOFat: "Mach-O universal",
	FormatPE:       "PE",
	FormatWasm:     "WebAssembly",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// Options configures Load.
type Options struct {
	// PointerSize overrides the pointer width found in the binary when > 0.
	PointerSize uint64
}

// Detect identifies the container format from the leading magic bytes.
func Detect(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		return FormatELF
	case bytes.HasPrefix(data, []byte("\x00asm")):
		return FormatWasm
	case bytes.HasPrefix(data, []byte("MZ")):
		return FormatPE
	}
	be := binary.BigEndian.Uint32(data)
	le := binary.LittleEndian.Uint32(data)
	switch {
	case be == macho.MagicFat:
		return FormatMachOFat
	case le == macho.Magic32 || le == macho.Magic64 || be == macho.Magic32 || be == macho.Magic64:
		return FormatMachO
	}
	return FormatUnknown
}

// container is the debug data pulled out of a binary plus the pointer width
// its headers imply (0 when they do not say).
type container struct {
	dwarf       *dwarf.Data
	pointerSize uint64
}

// Load decodes every type and the line table of the binary in data.
func Load(ctx context.Context, data []byte, opts Options) (*typedb.Types, error) {
	format := Detect(data)
	Logger().Debug("loading binary", zap.Stringer("format", format), zap.Int("bytes", len(data)))

	c, err := open(ctx, format, data)
	if err != nil {
		return nil, err
	}
	return build(ctx, c, format, opts)
}

// build decodes the debug data of an opened container into a snapshot.
func build(ctx context.Context, c *container, format Format, opts Options) (*typedb.Types, error) {
	dec := newDecoder(c.dwarf)
	if err := dec.run(ctx); err != nil {
		return nil, err
	}

	ptr := opts.PointerSize
	if ptr == 0 {
		ptr = dec.pointerSize
	}
	if ptr == 0 {
		ptr = c.pointerSize
	}
	if ptr == 0 {
		ptr = typedb.DefaultPointerSize
	}

	db, err := typedb.New(dec.entries, typedb.Options{
		Lines:       dec.lines.Build(),
		PointerSize: ptr,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInconsistent, err, "build type snapshot")
	}
	Logger().Info("binary loaded",
		zap.Stringer("format", format),
		zap.Int("types", db.TypeCount()),
		zap.Int("skipped", dec.skipped),
		zap.Uint64("pointer_size", ptr))
	return db, nil
}

func open(ctx context.Context, format Format, data []byte) (*container, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatELF:
		f, err := elf.NewFile(r)
		if err != nil {
			return nil, errors.Load("read ELF", err)
		}
		defer f.Close()
		d, err := f.DWARF()
		if err != nil {
			return nil, errors.Load("read ELF debug info", err)
		}
		ptr := uint64(8)
		if f.Class == elf.ELFCLASS32 {
			ptr = 4
		}
		return &container{dwarf: d, pointerSize: ptr}, nil

	case FormatMachO:
		f, err := macho.NewFile(r)
		if err != nil {
			return nil, errors.Load("read Mach-O", err)
		}
		defer f.Close()
		return machoContainer(f)

	case FormatMachOFat:
		ff, err := macho.NewFatFile(r)
		if err != nil {
			return nil, errors.Load("read Mach-O universal binary", err)
		}
		defer ff.Close()
		if len(ff.Arches) == 0 {
			return nil, errors.Load("Mach-O universal binary has no architectures", nil)
		}
		Logger().Debug("using first architecture of universal binary",
			zap.Stringer("cpu", ff.Arches[0].Cpu), zap.Int("arches", len(ff.Arches)))
		return machoContainer(ff.Arches[0].File)

	case FormatPE:
		f, err := pe.NewFile(r)
		if err != nil {
			return nil, errors.Load("read PE", err)
		}
		defer f.Close()
		d, err := f.DWARF()
		if err != nil {
			return nil, errors.Load("read PE debug info", err)
		}
		var ptr uint64
		switch f.OptionalHeader.(type) {
		case *pe.OptionalHeader32:
			ptr = 4
		case *pe.OptionalHeader64:
			ptr = 8
		}
		return &container{dwarf: d, pointerSize: ptr}, nil

	case FormatWasm:
		d, err := wasmDWARF(ctx, data)
		if err != nil {
			return nil, err
		}
		// wasm32 is the only address width wazero compiles.
		return &container{dwarf: d, pointerSize: 4}, nil
	}
	return nil, errors.Load("unrecognized binary format", nil)
}

func machoContainer(f *macho.File) (*container, error) {
	d, err := f.DWARF()
	if err != nil {
		return nil, errors.Load("read Mach-O debug info", err)
	}
	ptr := uint64(4)
	if f.Magic == macho.Magic64 {
		ptr = 8
	}
	return &container{dwarf: d, pointerSize: ptr}, nil
}
