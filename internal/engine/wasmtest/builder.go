// Package wasmtest assembles small Wasm binaries for tests.
package wasmtest

import (
	"os"
	"path/filepath"
	"testing"
)

// ValueType is a Wasm number type.
type ValueType byte

const (
	I32 ValueType = 0x7f
	I64 ValueType = 0x7e
)

// Opcodes used to write function bodies.
const (
	OpEnd      = 0x0b
	OpDrop     = 0x1a
	OpLocalGet = 0x20
	OpI32Const = 0x41
	OpI64Const = 0x42
	OpSIMD     = 0xfd
)

const (
	kindFunc   = 0x00
	kindTable  = 0x01
	kindMemory = 0x02
)

type funcType struct {
	params, results []ValueType
}

type function struct {
	export string
	typ    funcType
	body   []byte
}

// limits are the resizable limits of a memory or table. A nil max means
// unbounded.
type limits struct {
	initial uint32
	max     *uint32
}

func (l limits) encode(out []byte) []byte {
	if l.max == nil {
		return appendU32(append(out, 0x00), l.initial)
	}
	out = appendU32(append(out, 0x01), l.initial)
	return appendU32(out, *l.max)
}

type funcImport struct {
	module, name string
	typ          funcType
}

// Builder describes a module. The zero value is an empty module.
type Builder struct {
	imports       []funcImport
	memoryImports [][2]string
	functions     []function
	memories      []limits
	tables        []limits
	custom        [][2][]byte
}

// NewContract returns a builder for a minimal contract that passes the static
// checks: one exported memory, allocate, deallocate and interface_version_8.
func NewContract() *Builder {
	return new(Builder).
		WithMemory(16).
		WithFunction("allocate", []ValueType{I32}, []ValueType{I32}).
		WithFunction("deallocate", []ValueType{I32}, nil).
		WithFunction("interface_version_8", nil, nil)
}

// WithFunction adds an exported function with a body that returns zero values.
// An empty name adds an internal function.
func (b *Builder) WithFunction(export string, params, results []ValueType) *Builder {
	return b.WithFunctionBody(export, params, results, defaultBody(results))
}

// WithFunctionBody adds a function with the given instructions. The body must
// include the final OpEnd.
func (b *Builder) WithFunctionBody(export string, params, results []ValueType, body []byte) *Builder {
	b.functions = append(b.functions, function{export: export, typ: funcType{params, results}, body: body})
	return b
}

// WithImport adds a function import.
func (b *Builder) WithImport(module, name string, params, results []ValueType) *Builder {
	b.imports = append(b.imports, funcImport{module: module, name: name, typ: funcType{params, results}})
	return b
}

// WithMemoryImport adds an imported memory of one page.
func (b *Builder) WithMemoryImport(module, name string) *Builder {
	b.memoryImports = append(b.memoryImports, [2]string{module, name})
	return b
}

// WithMemory adds a defined memory with the given initial pages and no
// maximum. The first memory is exported as "memory".
func (b *Builder) WithMemory(initialPages uint32) *Builder {
	b.memories = append(b.memories, limits{initial: initialPages})
	return b
}

// WithBoundedMemory adds a defined memory with a maximum.
func (b *Builder) WithBoundedMemory(initialPages, maxPages uint32) *Builder {
	b.memories = append(b.memories, limits{initial: initialPages, max: &maxPages})
	return b
}

// WithoutMemory removes all defined memories.
func (b *Builder) WithoutMemory() *Builder {
	b.memories = nil
	return b
}

// WithTable adds an empty funcref table that may grow up to maxElements.
func (b *Builder) WithTable(maxElements uint32) *Builder {
	b.tables = append(b.tables, limits{max: &maxElements})
	return b
}

// WithUnboundedTable adds a funcref table without a maximum.
func (b *Builder) WithUnboundedTable(initial uint32) *Builder {
	b.tables = append(b.tables, limits{initial: initial})
	return b
}

// WithCustomSection appends a custom section after all other sections.
func (b *Builder) WithCustomSection(name string, data []byte) *Builder {
	b.custom = append(b.custom, [2][]byte{[]byte(name), data})
	return b
}

func defaultBody(results []ValueType) []byte {
	var body []byte
	for _, r := range results {
		switch r {
		case I64:
			body = append(body, OpI64Const, 0x00)
		default:
			body = append(body, OpI32Const, 0x00)
		}
	}
	return append(body, OpEnd)
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// type section: one type per import, then one per function
	var types [][]byte
	for _, imp := range b.imports {
		types = append(types, encodeFuncType(imp.typ))
	}
	for _, fn := range b.functions {
		types = append(types, encodeFuncType(fn.typ))
	}
	if len(types) > 0 {
		out = appendSection(out, 1, encodeVec(types))
	}

	var imports [][]byte
	for i, imp := range b.imports {
		entry := append(encodeName(imp.module), encodeName(imp.name)...)
		entry = append(entry, kindFunc)
		entry = appendU32(entry, uint32(i))
		imports = append(imports, entry)
	}
	for _, mem := range b.memoryImports {
		entry := append(encodeName(mem[0]), encodeName(mem[1])...)
		entry = append(entry, kindMemory, 0x00, 0x01)
		imports = append(imports, entry)
	}
	if len(imports) > 0 {
		out = appendSection(out, 2, encodeVec(imports))
	}

	if len(b.functions) > 0 {
		var funcs [][]byte
		for i := range b.functions {
			funcs = append(funcs, appendU32(nil, uint32(len(b.imports)+i)))
		}
		out = appendSection(out, 3, encodeVec(funcs))
	}

	if len(b.tables) > 0 {
		var tables [][]byte
		for _, l := range b.tables {
			tables = append(tables, l.encode([]byte{0x70}))
		}
		out = appendSection(out, 4, encodeVec(tables))
	}

	if len(b.memories) > 0 {
		var memories [][]byte
		for _, l := range b.memories {
			memories = append(memories, l.encode(nil))
		}
		out = appendSection(out, 5, encodeVec(memories))
	}

	var exports [][]byte
	if len(b.memories) > 0 {
		exports = append(exports, append(encodeName("memory"), kindMemory, 0x00))
	}
	for i, fn := range b.functions {
		if fn.export == "" {
			continue
		}
		entry := append(encodeName(fn.export), kindFunc)
		entry = appendU32(entry, uint32(len(b.imports)+i))
		exports = append(exports, entry)
	}
	if len(exports) > 0 {
		out = appendSection(out, 7, encodeVec(exports))
	}

	if len(b.functions) > 0 {
		var bodies [][]byte
		for _, fn := range b.functions {
			body := append([]byte{0x00}, fn.body...) // no locals
			bodies = append(bodies, appendU32(nil, uint32(len(body)), body...))
		}
		out = appendSection(out, 10, encodeVec(bodies))
	}

	for _, c := range b.custom {
		content := append(encodeName(string(c[0])), c[1]...)
		out = appendSection(out, 0, content)
	}
	return out
}

// WriteFile writes the module to name inside dir and returns the path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func encodeFuncType(ft funcType) []byte {
	out := []byte{0x60}
	out = appendU32(out, uint32(len(ft.params)))
	for _, p := range ft.params {
		out = append(out, byte(p))
	}
	out = appendU32(out, uint32(len(ft.results)))
	for _, r := range ft.results {
		out = append(out, byte(r))
	}
	return out
}

func encodeName(s string) []byte {
	return appendU32(nil, uint32(len(s)), []byte(s)...)
}

func encodeVec(items [][]byte) []byte {
	out := appendU32(nil, uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func appendSection(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	return appendU32(out, uint32(len(content)), content...)
}

// appendU32 appends v as unsigned LEB128, followed by rest.
func appendU32(out []byte, v uint32, rest ...byte) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		out = append(out, c)
		if v == 0 {
			break
		}
	}
	return append(out, rest...)
}
