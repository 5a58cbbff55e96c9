package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CosmWasm/wasmcheck/types"
)

// migrateVersionSection is the custom section holding the contract's migrate
// version as a decimal string.
const migrateVersionSection = "cw_migrate_version"

// knownEntrypoints in the order they are reported.
var knownEntrypoints = []string{
	"instantiate",
	"execute",
	"migrate",
	"sudo",
	"reply",
	"query",
	"ibc_channel_open",
	"ibc_channel_connect",
	"ibc_channel_close",
	"ibc_packet_receive",
	"ibc_packet_ack",
	"ibc_packet_timeout",
	"ibc_source_callback",
	"ibc_destination_callback",
}

// ibcEntrypoints must all be exported for a contract to speak IBC.
var ibcEntrypoints = []string{
	"ibc_channel_open",
	"ibc_channel_connect",
	"ibc_channel_close",
	"ibc_packet_receive",
	"ibc_packet_ack",
	"ibc_packet_timeout",
}

// Analyze reports the entry points, capabilities and migrate version of a
// compiled module.
func (m *Module) Analyze() (types.AnalysisReport, error) {
	names := m.ExportedFunctions()
	exports := make(map[string]struct{}, len(names))
	for _, name := range names {
		exports[name] = struct{}{}
	}

	report := types.AnalysisReport{HasIBCEntryPoints: true}
	for _, name := range ibcEntrypoints {
		if _, ok := exports[name]; !ok {
			report.HasIBCEntryPoints = false
			break
		}
	}
	for _, name := range knownEntrypoints {
		if _, ok := exports[name]; ok {
			report.Entrypoints = append(report.Entrypoints, name)
		}
	}

	report.RequiredCapabilities = strings.Join(RequiredCapabilities(names).Sorted(), ",")

	for _, section := range m.compiled.CustomSections() {
		if section.Name() != migrateVersionSection {
			continue
		}
		v, err := strconv.ParseUint(string(section.Data()), 10, 64)
		if err != nil {
			return report, fmt.Errorf("invalid %s section: %w", migrateVersionSection, err)
		}
		report.ContractMigrateVersion = &v
	}
	return report, nil
}
