package loader

import (
	"context"
	"debug/dwarf"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
)

// dwarf5Sections are handed to dwarf.Data.AddSection after construction.
var dwarf5Sections = []string{
	".debug_addr",
	".debug_line_str",
	".debug_loclists",
	".debug_rnglists",
	".debug_str_offsets",
}

// wasmDWARF compiles the module without instantiating it and assembles its
// .debug_* custom sections into a dwarf.Data.
func wasmDWARF(ctx context.Context, data []byte) (*dwarf.Data, error) {
	cfg := wazero.NewRuntimeConfigInterpreter().WithCustomSections(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	mod, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.Load("compile WebAssembly module", err)
	}
	defer mod.Close(ctx)

	sections := make(map[string][]byte)
	for _, cs := range mod.CustomSections() {
		sections[cs.Name()] = cs.Data()
	}
	Logger().Debug("read custom sections", zap.Int("count", len(sections)))

	info := sections[".debug_info"]
	if len(info) == 0 {
		return nil, errors.Load("module has no .debug_info custom section", nil)
	}

	d, err := dwarf.New(
		sections[".debug_abbrev"],
		sections[".debug_aranges"],
		sections[".debug_frame"],
		info,
		sections[".debug_line"],
		sections[".debug_pubnames"],
		sections[".debug_ranges"],
		sections[".debug_str"],
	)
	if err != nil {
		return nil, errors.Load("parse WebAssembly debug info", err)
	}
	for _, name := range dwarf5Sections {
		if b := sections[name]; len(b) > 0 {
			if err := d.AddSection(name, b); err != nil {
				return nil, errors.Load("add "+name, err)
			}
		}
	}
	return d, nil
}
