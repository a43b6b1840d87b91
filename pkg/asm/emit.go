package asm

// Sentinel bytes framing the sections of a bytecode file.
const (
	FuncStart   byte = 0xFF
	BlockStart  byte = 0xFE
	BlockEnd    byte = 0xFD
	DataStart   byte = 0xFC
	StructStart byte = 0xFB
	ImportStart byte = 0xFA
	ExternStart byte = 0xF9
	ExternLib   byte = 0xF8
)

// Emit serializes mod, whose program and function bodies must already be
// macro-expanded and label-resolved. Functions, externs and structs of the
// imported programs are valid call and instantiation targets.
func Emit(mod *Module, imports []*Program) ([]byte, error) {
	enc := &encoder{
		callable: func(name string) bool {
			if mod.Function(name) != nil || mod.Extern(name) != nil {
				return true
			}
			for _, p := range imports {
				if p.Module.Function(name) != nil || p.Module.Extern(name) != nil {
					return true
				}
			}
			return false
		},
		isStruct: func(name string) bool {
			if mod.Struct(name) != nil {
				return true
			}
			for _, p := range imports {
				if p.Module.Struct(name) != nil {
					return true
				}
			}
			return false
		},
	}

	var (
		out []byte
		err error
	)

	for _, e := range mod.Externs {
		out = append(out, ExternStart)
		out = encodeType(out, e.Return)
		if out, err = encodeName(out, e.Name, e.Loc); err != nil {
			return nil, err
		}
		if out, err = encodeParams(out, e.Params, e.Loc); err != nil {
			return nil, err
		}
		out = append(out, ExternLib)
		if out, err = encodeString(out, e.Lib, e.Loc); err != nil {
			return nil, err
		}
		// The access name follows only when it differs from the name.
		if e.Access != e.Name {
			if out, err = encodeString(out, e.Access, e.Loc); err != nil {
				return nil, err
			}
		}
	}

	for i, p := range imports {
		out = append(out, ImportStart)
		if out, err = encodeString(out, p.Name, mod.Includes[i].Loc); err != nil {
			return nil, err
		}
	}

	for _, s := range mod.Structs {
		out = append(out, StructStart)
		if out, err = encodeName(out, s.Name, s.Loc); err != nil {
			return nil, err
		}
		out = append(out, BlockStart)
		if out, err = encodeParams(out, s.Fields, s.Loc); err != nil {
			return nil, err
		}
		out = append(out, BlockEnd)
	}

	if out, err = enc.unit(out, mod.Program, nil); err != nil {
		return nil, err
	}

	for _, f := range mod.Functions {
		out = append(out, FuncStart)
		out = encodeType(out, f.Return)
		if out, err = encodeName(out, f.Name, f.Loc); err != nil {
			return nil, err
		}
		if out, err = encodeParams(out, f.Params, f.Loc); err != nil {
			return nil, err
		}
		out = append(out, BlockStart)
		if out, err = enc.unit(out, f.Body, f.Params); err != nil {
			return nil, err
		}
		out = append(out, BlockEnd)
	}

	if len(mod.Data) > 0 {
		out = append(out, DataStart)
		for _, d := range mod.Data {
			if out, err = encodeName(out, d.Name, d.Loc); err != nil {
				return nil, err
			}
			out = encodeType(out, d.Type)
			out = encodeNumber(out, Unsigned(uint64(len(d.Bytes))))
			out = append(out, d.Bytes...)
		}
	}

	return out, nil
}
