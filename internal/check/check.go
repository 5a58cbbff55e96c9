// Package check validates contract files against a resolved policy and
// reports the results.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/wasmcheck/internal/engine"
	"github.com/CosmWasm/wasmcheck/internal/policy"
	"github.com/CosmWasm/wasmcheck/types"
)

// IoError is returned when a contract file cannot be read.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("error reading contract file: %v", e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// Checker checks single contract files. It holds no per-file state and may be
// used from several goroutines at once.
type Checker struct {
	Policy  policy.Policy
	Verbose bool
	// LogOutput receives verbose diagnostics. Defaults to stderr.
	LogOutput io.Writer
}

// CheckContract reads the file at path, validates it and compiles it with a
// fresh engine. A nil error means the contract passed.
func (c *Checker) CheckContract(ctx context.Context, path string) error {
	wasmCode, err := os.ReadFile(path)
	if err != nil {
		return &IoError{Path: path, Err: err}
	}

	logger := c.logger(path)
	if err := engine.CheckWasm(wasmCode, c.Policy.Capabilities, c.Policy.Limits, logger); err != nil {
		return err
	}

	e := engine.NewCompilingEngine(ctx)
	defer e.Close(ctx)
	module, err := e.Compile(ctx, wasmCode)
	if err != nil {
		return err
	}
	defer module.Close(ctx)

	if c.Verbose {
		logAnalysis(logger, module)
	}
	return nil
}

// logAnalysis writes the analysis report of a compiled module. Analysis
// problems are reported but never fail the check.
func logAnalysis(logger zerolog.Logger, module *engine.Module) {
	report, err := module.Analyze()
	if err != nil {
		logger.Debug().Err(err).Msg("Analysis incomplete")
	}
	logger.Debug().Msgf("Entrypoints: %s", strings.Join(report.Entrypoints, ", "))
	logger.Debug().Msgf("Has IBC entry points: %t", report.HasIBCEntryPoints)
	if report.ContractMigrateVersion != nil {
		logger.Debug().Msgf("Contract migrate version: %d", *report.ContractMigrateVersion)
	}
}

func (c *Checker) logger(path string) zerolog.Logger {
	if !c.Verbose {
		return engine.LoggerOff()
	}
	prefix := "    " + DisplayName(path) + ": "
	if c.LogOutput == nil {
		return engine.Logger(engine.StdErr, prefix)
	}
	return engine.NewLogger(c.LogOutput, prefix)
}

// DisplayName is the short identifier of path used in diagnostics: the file
// name if there is one, the path as given otherwise.
func DisplayName(path string) string {
	base := filepath.Base(path)
	switch base {
	case ".", "..", string(filepath.Separator):
		return path
	}
	return base
}

// CheckContract checks a single file with a one-off Checker.
func CheckContract(ctx context.Context, path string, capabilities types.CapabilitySet, verbose bool, limits types.WasmLimits) error {
	c := &Checker{
		Policy:  policy.Policy{Limits: limits, Capabilities: capabilities},
		Verbose: verbose,
	}
	return c.CheckContract(ctx, path)
}
