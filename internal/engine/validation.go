package engine

import (
	"bytes"
	"sort"
	"strings"

	"github.com/go-interpreter/wagon/wasm"
	"github.com/rs/zerolog"

	"github.com/CosmWasm/wasmcheck/types"
)

// CheckWasm performs static validation of a contract against the available
// capabilities and the given limits. It does not compile the code.
func CheckWasm(wasmCode []byte, capabilities types.CapabilitySet, limits types.WasmLimits, logger zerolog.Logger) error {
	checksum, err := types.CreateChecksum(wasmCode)
	if err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	logger.Debug().Str("checksum", checksum.String()).Int("size", len(wasmCode)).Msg("Loaded Wasm")

	module, err := wasm.DecodeModule(bytes.NewReader(wasmCode))
	if err != nil {
		return newValidationError("Wasm bytecode could not be deserialized: %v", err)
	}

	exports := exportNames(module)
	logger.Debug().Msgf("Exports: %s", strings.Join(exports, ", "))

	checks := []func(*wasm.Module, []string, types.CapabilitySet, types.WasmLimits, zerolog.Logger) error{
		checkMemories,
		checkInterfaceVersion,
		checkExports,
		checkImports,
		checkCapabilities,
		checkFunctions,
		checkTables,
	}
	for _, check := range checks {
		if err := check(module, exports, capabilities, limits, logger); err != nil {
			return err
		}
	}
	return nil
}

// exportNames returns all export names, sorted.
func exportNames(module *wasm.Module) []string {
	if module.Export == nil {
		return nil
	}
	names := make([]string, 0, len(module.Export.Entries))
	for name := range module.Export.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkMemories(module *wasm.Module, _ []string, _ types.CapabilitySet, limits types.WasmLimits, logger zerolog.Logger) error {
	var memories []wasm.Memory
	if module.Memory != nil {
		memories = module.Memory.Entries
	}
	logger.Debug().Msgf("Memories: %d", len(memories))
	if len(memories) != 1 {
		return newValidationError("Wasm contract must contain exactly one memory")
	}
	memory := memories[0].Limits
	logger.Debug().Msgf("Initial memory pages: %d", memory.Initial)
	if memory.Initial > limits.InitialMemoryLimit() {
		return newValidationError("Wasm contract memory's minimum must not exceed %d pages.", limits.InitialMemoryLimit())
	}
	if hasMaximum(memory) {
		return newValidationError("Wasm contract memory's maximum must be unset. The host will set it for you.")
	}
	return nil
}

func checkInterfaceVersion(_ *wasm.Module, exports []string, _ types.CapabilitySet, _ types.WasmLimits, _ zerolog.Logger) error {
	var markers []string
	for _, name := range exports {
		if strings.HasPrefix(name, interfaceVersionPrefix) {
			markers = append(markers, name)
		}
	}
	switch {
	case len(markers) == 0:
		return newValidationError("Wasm contract missing a required marker export: interface_version_* (expected %s)", supportedInterfaceVersion)
	case len(markers) > 1:
		return newValidationError("Wasm contract contains more than one marker export: interface_version_*")
	case markers[0] != supportedInterfaceVersion:
		return newValidationError("Wasm contract has unknown %q marker (expect %s)", markers[0], supportedInterfaceVersion)
	}
	return nil
}

func checkExports(_ *wasm.Module, exports []string, _ types.CapabilitySet, _ types.WasmLimits, _ zerolog.Logger) error {
	for _, required := range requiredExports {
		i := sort.SearchStrings(exports, required)
		if i == len(exports) || exports[i] != required {
			return newValidationError("Wasm contract doesn't have required export: %q. Exports required by VM: %q.", required, requiredExports)
		}
	}
	return nil
}

func checkImports(module *wasm.Module, _ []string, _ types.CapabilitySet, limits types.WasmLimits, logger zerolog.Logger) error {
	var entries []wasm.ImportEntry
	if module.Import != nil {
		entries = module.Import.Entries
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.ModuleName + "." + entry.FieldName
	}
	logger.Debug().Msgf("Imports (%d): %s", len(entries), strings.Join(names, ", "))

	if uint32(len(entries)) > limits.MaxImportsLimit() {
		return newValidationError("Import count exceeds limit. Imports: %d. Limit: %d.", len(entries), limits.MaxImportsLimit())
	}
	for i, entry := range entries {
		if entry.Type.Kind() != wasm.ExternalFunction {
			return newValidationError("Wasm contract requires non-function import: %q", names[i])
		}
		if entry.ModuleName != importModule || !supportedImports[entry.FieldName] {
			return newValidationError("Wasm contract requires unsupported import: %q. Imports supported by VM: %s.", names[i], supportedImportList())
		}
	}
	return nil
}

func supportedImportList() string {
	names := make([]string, 0, len(supportedImports))
	for name := range supportedImports {
		names = append(names, importModule+"."+name)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}

// RequiredCapabilities collects the capabilities a contract declares through
// requires_<capability> exports.
func RequiredCapabilities(exports []string) types.CapabilitySet {
	required := types.NewCapabilitySet()
	for _, name := range exports {
		if strings.HasPrefix(name, requiresPrefix) && len(name) > len(requiresPrefix) {
			required[name[len(requiresPrefix):]] = struct{}{}
		}
	}
	return required
}

func checkCapabilities(_ *wasm.Module, exports []string, available types.CapabilitySet, _ types.WasmLimits, logger zerolog.Logger) error {
	required := RequiredCapabilities(exports)
	logger.Debug().Msgf("Required capabilities: %s", required)

	missing := available.Missing(required)
	if len(missing) > 0 {
		return newValidationError("Wasm contract requires unavailable capabilities: %s", types.NewCapabilitySet(missing...))
	}
	return nil
}

func checkFunctions(module *wasm.Module, _ []string, _ types.CapabilitySet, limits types.WasmLimits, logger zerolog.Logger) error {
	var sigs []wasm.FunctionSig
	if module.Types != nil {
		sigs = module.Types.Entries
	}
	var funcs []uint32
	if module.Function != nil {
		funcs = module.Function.Types
	}

	logger.Debug().Msgf("Function count: %d", len(funcs))
	if uint32(len(funcs)) > limits.MaxFunctionsLimit() {
		return newValidationError("Wasm contract contains more than %d functions", limits.MaxFunctionsLimit())
	}

	var maxParams, maxResults int
	for _, sig := range sigs {
		if len(sig.ParamTypes) > maxParams {
			maxParams = len(sig.ParamTypes)
		}
		if len(sig.ReturnTypes) > maxResults {
			maxResults = len(sig.ReturnTypes)
		}
	}
	logger.Debug().Msgf("Max function parameters: %d", maxParams)
	logger.Debug().Msgf("Max function results: %d", maxResults)
	if uint32(maxParams) > limits.MaxFunctionParamsLimit() {
		return newValidationError("Wasm contract contains function with more than %d parameters", limits.MaxFunctionParamsLimit())
	}
	if uint32(maxResults) > limits.MaxFunctionResultsLimit() {
		return newValidationError("Wasm contract contains function with more than %d results", limits.MaxFunctionResultsLimit())
	}

	var total int
	for _, typeIndex := range funcs {
		if int(typeIndex) >= len(sigs) {
			return newValidationError("Wasm contract references unknown function type %d", typeIndex)
		}
		total += len(sigs[typeIndex].ParamTypes)
	}
	logger.Debug().Msgf("Total function parameter count: %d", total)
	if uint64(total) > uint64(limits.MaxTotalFunctionParamsLimit()) {
		return newValidationError("Wasm contract contains more than %d function parameters in total", limits.MaxTotalFunctionParamsLimit())
	}
	return nil
}

func checkTables(module *wasm.Module, _ []string, _ types.CapabilitySet, limits types.WasmLimits, logger zerolog.Logger) error {
	if module.Table == nil || len(module.Table.Entries) == 0 {
		return nil
	}
	tables := module.Table.Entries
	logger.Debug().Msgf("Tables: %d", len(tables))
	if len(tables) > 1 {
		return newValidationError("Wasm contract must not have more than 1 table section")
	}
	table := tables[0].Limits
	if !hasMaximum(table) {
		return newValidationError("Wasm contract must not have unbound table section")
	}
	if table.Maximum > limits.TableSizeLimit() {
		return newValidationError("Wasm contract's first table section has a too large max limit (%d > %d)", table.Maximum, limits.TableSizeLimit())
	}
	return nil
}

func hasMaximum(l wasm.ResizableLimits) bool {
	return l.Flags&0x1 != 0
}
