package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DeterministicFeatures is the set of core features a contract may use.
// SIMD, threads, bulk memory and reference types are rejected at compile time.
var DeterministicFeatures = api.CoreFeaturesV1.
	SetEnabled(api.CoreFeatureSignExtensionOps, true).
	SetEnabled(api.CoreFeatureNonTrappingFloatToIntConversion, true)

// Engine compiles contracts. An Engine holds its own wazero runtime and is
// meant to be used for a single contract; it shares nothing with other engines.
type Engine struct {
	runtime wazero.Runtime
}

// NewCompilingEngine creates a fresh engine with its own compiler runtime.
func NewCompilingEngine(ctx context.Context) *Engine {
	config := wazero.NewRuntimeConfig().
		WithCoreFeatures(DeterministicFeatures).
		WithCustomSections(true)
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, config)}
}

// Module is a compiled contract.
type Module struct {
	compiled wazero.CompiledModule
}

// Compile compiles the given Wasm code. Decoding, validation of function
// bodies and feature gating happen here.
func (e *Engine) Compile(ctx context.Context, wasmCode []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmCode)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	return &Module{compiled: compiled}, nil
}

// Close releases the engine and every module compiled by it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// ExportedFunctions returns the names of the functions the module exports.
func (m *Module) ExportedFunctions() []string {
	exports := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	return names
}
