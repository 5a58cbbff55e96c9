package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/wasmcheck/internal/engine/wasmtest"
	"github.com/CosmWasm/wasmcheck/types"
)

const validationPrefix = "Error during static Wasm validation: "

var (
	i32 = wasmtest.I32
	i64 = wasmtest.I64
)

func limit(v uint32) *uint32 {
	return &v
}

func defaultCapabilities() types.CapabilitySet {
	return types.CapabilitiesFromCSV(types.DefaultCapabilitiesCSV)
}

func checkDefault(t *testing.T, b *wasmtest.Builder) error {
	t.Helper()
	return CheckWasm(b.Bytes(), defaultCapabilities(), types.DefaultWasmLimits(), LoggerOff())
}

func requireValidationError(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %T: %v", err, err)
	assert.Contains(t, err.Error(), msg)
	assert.True(t, strings.HasPrefix(err.Error(), validationPrefix), err.Error())
}

func TestCheckWasmValidContract(t *testing.T) {
	err := checkDefault(t, wasmtest.NewContract())
	require.NoError(t, err)

	err = checkDefault(t, wasmtest.NewContract().
		WithImport("env", "db_read", []wasmtest.ValueType{i32}, []wasmtest.ValueType{i32}).
		WithImport("env", "debug", []wasmtest.ValueType{i32}, nil).
		WithFunction("requires_iterator", nil, nil).
		WithFunction("instantiate", []wasmtest.ValueType{i32, i32, i32}, []wasmtest.ValueType{i32}).
		WithTable(10))
	require.NoError(t, err)
}

func TestCheckWasmNotWasm(t *testing.T) {
	err := CheckWasm(nil, defaultCapabilities(), types.DefaultWasmLimits(), LoggerOff())
	requireValidationError(t, err, "Wasm bytes nil or empty")

	err = CheckWasm([]byte("#!/bin/sh\necho hi\n"), defaultCapabilities(), types.DefaultWasmLimits(), LoggerOff())
	requireValidationError(t, err, "Wasm bytes do not start with Wasm magic number")
}

func TestCheckWasmTruncated(t *testing.T) {
	code := wasmtest.NewContract().Bytes()
	err := CheckWasm(code[:len(code)-3], defaultCapabilities(), types.DefaultWasmLimits(), LoggerOff())
	requireValidationError(t, err, "Wasm bytecode could not be deserialized")
}

func TestCheckWasmMemories(t *testing.T) {
	err := checkDefault(t, wasmtest.NewContract().WithoutMemory())
	requireValidationError(t, err, "Wasm contract must contain exactly one memory")

	// the decoder may already reject a second memory; either way it is a validation error
	err = checkDefault(t, wasmtest.NewContract().WithMemory(1))
	requireValidationError(t, err, "")

	err = checkDefault(t, wasmtest.NewContract().WithoutMemory().WithMemory(513))
	requireValidationError(t, err, "Wasm contract memory's minimum must not exceed 512 pages.")

	err = checkDefault(t, wasmtest.NewContract().WithoutMemory().WithMemory(512))
	require.NoError(t, err)

	err = checkDefault(t, wasmtest.NewContract().WithoutMemory().WithBoundedMemory(16, 32))
	requireValidationError(t, err, "Wasm contract memory's maximum must be unset. The host will set it for you.")

	limits := types.WasmLimits{InitialMemoryLimitPages: limit(8)}
	err = CheckWasm(wasmtest.NewContract().Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract memory's minimum must not exceed 8 pages.")
}

func TestCheckWasmInterfaceVersion(t *testing.T) {
	missing := new(wasmtest.Builder).
		WithMemory(16).
		WithFunction("allocate", []wasmtest.ValueType{i32}, []wasmtest.ValueType{i32}).
		WithFunction("deallocate", []wasmtest.ValueType{i32}, nil)
	err := checkDefault(t, missing)
	requireValidationError(t, err, "Wasm contract missing a required marker export: interface_version_*")

	err = checkDefault(t, missing.WithFunction("interface_version_7", nil, nil))
	requireValidationError(t, err, `Wasm contract has unknown "interface_version_7" marker`)

	err = checkDefault(t, wasmtest.NewContract().WithFunction("interface_version_9", nil, nil))
	requireValidationError(t, err, "Wasm contract contains more than one marker export: interface_version_*")
}

func TestCheckWasmRequiredExports(t *testing.T) {
	contract := new(wasmtest.Builder).
		WithMemory(16).
		WithFunction("allocate", []wasmtest.ValueType{i32}, []wasmtest.ValueType{i32}).
		WithFunction("interface_version_8", nil, nil)
	err := checkDefault(t, contract)
	requireValidationError(t, err, `Wasm contract doesn't have required export: "deallocate"`)
}

func TestCheckWasmImports(t *testing.T) {
	err := checkDefault(t, wasmtest.NewContract().WithImport("env", "foo", nil, nil))
	requireValidationError(t, err, `Wasm contract requires unsupported import: "env.foo"`)

	err = checkDefault(t, wasmtest.NewContract().WithImport("wasi_snapshot_preview1", "fd_write", nil, nil))
	requireValidationError(t, err, `Wasm contract requires unsupported import: "wasi_snapshot_preview1.fd_write"`)

	err = checkDefault(t, wasmtest.NewContract().WithMemoryImport("env", "memory"))
	requireValidationError(t, err, `Wasm contract requires non-function import: "env.memory"`)

	limits := types.WasmLimits{MaxImports: limit(1)}
	contract := wasmtest.NewContract().
		WithImport("env", "db_read", []wasmtest.ValueType{i32}, []wasmtest.ValueType{i32}).
		WithImport("env", "db_write", []wasmtest.ValueType{i32, i32}, nil)
	err = CheckWasm(contract.Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Import count exceeds limit. Imports: 2. Limit: 1.")
}

func TestCheckWasmCapabilities(t *testing.T) {
	contract := wasmtest.NewContract().
		WithFunction("requires_staking", nil, nil).
		WithFunction("requires_cosmwasm_2_0", nil, nil)

	err := CheckWasm(contract.Bytes(), types.NewCapabilitySet("staking", "cosmwasm_2_0"), types.DefaultWasmLimits(), LoggerOff())
	require.NoError(t, err)

	err = CheckWasm(contract.Bytes(), types.NewCapabilitySet("staking"), types.DefaultWasmLimits(), LoggerOff())
	requireValidationError(t, err, `Wasm contract requires unavailable capabilities: {"cosmwasm_2_0"}`)

	err = CheckWasm(contract.Bytes(), types.NewCapabilitySet(), types.DefaultWasmLimits(), LoggerOff())
	requireValidationError(t, err, `Wasm contract requires unavailable capabilities: {"cosmwasm_2_0", "staking"}`)

	err = checkDefault(t, wasmtest.NewContract().WithFunction("requires_teleportation", nil, nil))
	requireValidationError(t, err, `{"teleportation"}`)
}

func TestRequiredCapabilities(t *testing.T) {
	required := RequiredCapabilities([]string{"allocate", "requires_", "requires_iterator", "requires_staking", "xrequires_foo"})
	assert.Equal(t, []string{"iterator", "staking"}, required.Sorted())
}

func TestCheckWasmFunctions(t *testing.T) {
	limits := types.WasmLimits{MaxFunctions: limit(3)}
	err := CheckWasm(wasmtest.NewContract().Bytes(), defaultCapabilities(), limits, LoggerOff())
	require.NoError(t, err)
	err = CheckWasm(wasmtest.NewContract().WithFunction("", nil, nil).Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract contains more than 3 functions")

	limits = types.WasmLimits{MaxFunctionParams: limit(2)}
	contract := wasmtest.NewContract().WithFunction("", []wasmtest.ValueType{i32, i64, i32}, nil)
	err = CheckWasm(contract.Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract contains function with more than 2 parameters")

	// allocate returns one value
	limits = types.WasmLimits{MaxFunctionResults: limit(0)}
	err = CheckWasm(wasmtest.NewContract().Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract contains function with more than 0 results")

	// allocate and deallocate take one parameter each
	limits = types.WasmLimits{MaxTotalFunctionParams: limit(3)}
	err = CheckWasm(wasmtest.NewContract().Bytes(), defaultCapabilities(), limits, LoggerOff())
	require.NoError(t, err)
	contract = wasmtest.NewContract().WithFunction("", []wasmtest.ValueType{i32, i32}, nil)
	err = CheckWasm(contract.Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract contains more than 3 function parameters in total")
}

func TestCheckWasmTables(t *testing.T) {
	err := checkDefault(t, wasmtest.NewContract().WithTable(2500))
	require.NoError(t, err)

	err = checkDefault(t, wasmtest.NewContract().WithTable(2501))
	requireValidationError(t, err, "Wasm contract's first table section has a too large max limit")

	err = checkDefault(t, wasmtest.NewContract().WithTable(1).WithTable(1))
	requireValidationError(t, err, "")

	// the maximum is limited, not the initial size
	limits := types.WasmLimits{TableSizeLimitElements: limit(8)}
	err = CheckWasm(wasmtest.NewContract().WithTable(8).Bytes(), defaultCapabilities(), limits, LoggerOff())
	require.NoError(t, err)
	err = CheckWasm(wasmtest.NewContract().WithTable(9).Bytes(), defaultCapabilities(), limits, LoggerOff())
	requireValidationError(t, err, "Wasm contract's first table section has a too large max limit (9 > 8)")

	err = checkDefault(t, wasmtest.NewContract().WithUnboundedTable(1))
	requireValidationError(t, err, "Wasm contract must not have unbound table section")
	err = checkDefault(t, wasmtest.NewContract().WithUnboundedTable(0))
	requireValidationError(t, err, "Wasm contract must not have unbound table section")
}

func TestCheckWasmLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "    hackatom.wasm: ")
	contract := wasmtest.NewContract().WithFunction("requires_staking", nil, nil)

	err := CheckWasm(contract.Bytes(), defaultCapabilities(), types.DefaultWasmLimits(), logger)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "    hackatom.wasm: "), "unprefixed line %q", line)
	}
	assert.Contains(t, buf.String(), `Required capabilities: {"staking"}`)
	assert.Contains(t, buf.String(), "checksum=")
	assert.Contains(t, buf.String(), "Function count: 4")
}

func TestCheckWasmLoggerOff(t *testing.T) {
	logger := LoggerOff()
	err := CheckWasm(wasmtest.NewContract().Bytes(), defaultCapabilities(), types.DefaultWasmLimits(), logger)
	require.NoError(t, err)
}
