// Package policy resolves the limits and capabilities a batch of contracts is
// checked against.
package policy

import (
	"fmt"

	"github.com/CosmWasm/wasmcheck/internal/chainconfig"
	"github.com/CosmWasm/wasmcheck/types"
)

// Source says where the policy comes from. It is one of Explicit, FromFile or
// Default.
type Source interface {
	isSource()
}

// Explicit is a comma separated capability list given on the command line.
// Limits are the defaults.
type Explicit struct {
	CSV string
}

// FromFile is a chain config file providing both limits and capabilities.
type FromFile struct {
	Path string
}

// Default uses the default capabilities and default limits.
type Default struct{}

func (Explicit) isSource() {}
func (FromFile) isSource() {}
func (Default) isSource()  {}

// UsageError reports conflicting or missing command line input.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// SourceFromFlags builds the policy source from the two mutually exclusive
// command line inputs.
func SourceFromFlags(capabilitiesCSV, configPath string, capabilitiesSet, configSet bool) (Source, error) {
	switch {
	case capabilitiesSet && configSet:
		return nil, &UsageError{Msg: "the argument '--available-capabilities' cannot be used with '--wasm-config'"}
	case configSet:
		if configPath == "" {
			return nil, &UsageError{Msg: "a value is required for '--wasm-config'"}
		}
		return FromFile{Path: configPath}, nil
	case capabilitiesSet:
		return Explicit{CSV: capabilitiesCSV}, nil
	default:
		return Default{}, nil
	}
}

// Policy is the resolved, read-only policy shared by every check of a run.
type Policy struct {
	Limits       types.WasmLimits
	Capabilities types.CapabilitySet
}

// Resolve turns a source into a policy. Only FromFile performs I/O.
func Resolve(src Source) (Policy, error) {
	switch s := src.(type) {
	case FromFile:
		config, err := chainconfig.Load(s.Path)
		if err != nil {
			return Policy{}, err
		}
		return Policy{
			Limits:       config.WasmLimits,
			Capabilities: types.NewCapabilitySet(config.Cache.AvailableCapabilities...),
		}, nil
	case Explicit:
		return Policy{
			Limits:       types.DefaultWasmLimits(),
			Capabilities: types.CapabilitiesFromCSV(s.CSV),
		}, nil
	case Default:
		return Policy{
			Limits:       types.DefaultWasmLimits(),
			Capabilities: types.CapabilitiesFromCSV(types.DefaultCapabilitiesCSV),
		}, nil
	default:
		return Policy{}, fmt.Errorf("unknown policy source %T", src)
	}
}
