package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/CosmWasm/wasmcheck/internal/check"
	"github.com/CosmWasm/wasmcheck/internal/policy"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "2.2.0"

const (
	capabilitiesFlag = "available-capabilities"
	configFlag       = "wasm-config"
)

// errChecksFailed is returned when at least one contract failed. The report
// has already been printed at that point.
var errChecksFailed = errors.New("contract checks failed")

type rootFlags struct {
	capabilities string
	wasmConfig   string
	verbose      bool
	jobs         int
	noColor      bool
}

// NewRootCommand builds the cosmwasm-check command.
func NewRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "cosmwasm-check [flags] WASM...",
		Short: "Contract checking",
		Long: `Checks the given wasm file (memories, exports, imports, available capabilities, and non-determinism).

Every file is validated and compiled independently. The command exits with a
non-zero status if any file fails.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				pterm.DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, args)
		},
	}

	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	fs := cmd.Flags()
	fs.StringVar(&flags.capabilities, capabilitiesFlag, "", "Sets the available capabilities that the desired target chain has (comma separated)")
	fs.StringVar(&flags.wasmConfig, configFlag, "", `Provide a file with the chain's Wasmd configuration.
You can query this configuration from the chain, using the WasmConfig query.
If this is not provided, the default values are used. This conflicts with the
--available-capabilities flag because the config also contains those.`)
	fs.BoolVar(&flags.verbose, "verbose", false, "Prints additional information on stderr")
	fs.IntVar(&flags.jobs, "jobs", 1, "Number of contracts checked in parallel")
	fs.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	return cmd
}

// normalizeFlagName maps the old capability flag names to the current one.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "FEATURES", "supported-features":
		name = capabilitiesFlag
	}
	return pflag.NormalizedName(name)
}

func runCheck(cmd *cobra.Command, flags rootFlags, paths []string) error {
	src, err := policy.SourceFromFlags(
		flags.capabilities,
		flags.wasmConfig,
		cmd.Flags().Changed(capabilitiesFlag),
		cmd.Flags().Changed(configFlag),
	)
	if err != nil {
		return err
	}
	if flags.jobs < 1 {
		return &policy.UsageError{Msg: fmt.Sprintf("invalid value %d for '--jobs': must be at least 1", flags.jobs)}
	}
	p, err := policy.Resolve(src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Available capabilities: %s\n", p.Capabilities)
	fmt.Fprintln(out)

	runner := &check.Runner{
		Checker: &check.Checker{
			Policy:    p,
			Verbose:   flags.verbose,
			LogOutput: cmd.ErrOrStderr(),
		},
		Jobs: flags.jobs,
		Out:  out,
	}
	if summary := runner.Run(cmd.Context(), paths); !summary.AllPassed() {
		return errChecksFailed
	}
	return nil
}
