package types

// VMConfig defines the configuration of a chain's Wasm VM, as returned by the
// WasmConfig query. The check tool reads it from a msgpack file to learn the
// chain's resource limits and available capabilities.
// For full documentation see the Rust side:
// https://github.com/CosmWasm/cosmwasm/blob/main/packages/vm/src/config.rs
type VMConfig struct {
	WasmLimits WasmLimits   `json:"wasm_limits" msgpack:"wasm_limits"`
	Cache      CacheOptions `json:"cache" msgpack:"cache"`
}

// Default limits applied when a WasmLimits field is unset.
const (
	DefaultInitialMemoryLimitPages = 512
	DefaultTableSizeLimitElements  = 2500
	DefaultMaxImports              = 100
	DefaultMaxFunctions            = 20_000
	DefaultMaxFunctionParams       = 100
	DefaultMaxTotalFunctionParams  = 10_000
	DefaultMaxFunctionResults      = 1
)

// WasmLimits are the static limits a contract must respect. A nil field means
// "use the default".
type WasmLimits struct {
	InitialMemoryLimitPages *uint32 `json:"initial_memory_limit_pages,omitempty" msgpack:"initial_memory_limit_pages"`
	TableSizeLimitElements  *uint32 `json:"table_size_limit_elements,omitempty" msgpack:"table_size_limit_elements"`
	MaxImports              *uint32 `json:"max_imports,omitempty" msgpack:"max_imports"`
	MaxFunctions            *uint32 `json:"max_functions,omitempty" msgpack:"max_functions"`
	MaxFunctionParams       *uint32 `json:"max_function_params,omitempty" msgpack:"max_function_params"`
	MaxTotalFunctionParams  *uint32 `json:"max_total_function_params,omitempty" msgpack:"max_total_function_params"`
	MaxFunctionResults      *uint32 `json:"max_function_results,omitempty" msgpack:"max_function_results"`
}

// DefaultWasmLimits returns limits with every field unset.
func DefaultWasmLimits() WasmLimits {
	return WasmLimits{}
}

func orDefault(v *uint32, def uint32) uint32 {
	if v == nil {
		return def
	}
	return *v
}

// InitialMemoryLimit is the maximum number of initial memory pages.
func (l WasmLimits) InitialMemoryLimit() uint32 {
	return orDefault(l.InitialMemoryLimitPages, DefaultInitialMemoryLimitPages)
}

// TableSizeLimit is the largest maximum a table may declare, in elements.
func (l WasmLimits) TableSizeLimit() uint32 {
	return orDefault(l.TableSizeLimitElements, DefaultTableSizeLimitElements)
}

func (l WasmLimits) MaxImportsLimit() uint32 {
	return orDefault(l.MaxImports, DefaultMaxImports)
}

func (l WasmLimits) MaxFunctionsLimit() uint32 {
	return orDefault(l.MaxFunctions, DefaultMaxFunctions)
}

func (l WasmLimits) MaxFunctionParamsLimit() uint32 {
	return orDefault(l.MaxFunctionParams, DefaultMaxFunctionParams)
}

func (l WasmLimits) MaxTotalFunctionParamsLimit() uint32 {
	return orDefault(l.MaxTotalFunctionParams, DefaultMaxTotalFunctionParams)
}

func (l WasmLimits) MaxFunctionResultsLimit() uint32 {
	return orDefault(l.MaxFunctionResults, DefaultMaxFunctionResults)
}

type CacheOptions struct {
	BaseDir                  string   `json:"base_dir" msgpack:"base_dir"`
	AvailableCapabilities    []string `json:"available_capabilities" msgpack:"available_capabilities"`
	MemoryCacheSizeBytes     Size     `json:"memory_cache_size_bytes" msgpack:"memory_cache_size_bytes"`
	InstanceMemoryLimitBytes Size     `json:"instance_memory_limit_bytes" msgpack:"instance_memory_limit_bytes"`
}

// Size is a byte size. The Rust side serializes it as a plain integer.
type Size uint64
