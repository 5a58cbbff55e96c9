package types

import (
	"fmt"
	"sort"
	"strings"
)

type Capability string

const (
	CapIterator     Capability = "iterator"
	CapStaking      Capability = "staking"
	CapStargate     Capability = "stargate"
	CapCosmwasmV1_1 Capability = "cosmwasm_1_1"
	CapCosmwasmV1_2 Capability = "cosmwasm_1_2"
	CapCosmwasmV1_3 Capability = "cosmwasm_1_3"
	CapCosmwasmV1_4 Capability = "cosmwasm_1_4"
	CapCosmwasmV2_0 Capability = "cosmwasm_2_0"
	CapCosmwasmV2_1 Capability = "cosmwasm_2_1"
)

// DefaultCapabilitiesCSV is used when neither a capability list nor a chain
// config is given. It lists every capability in AllCapabilities.
var DefaultCapabilitiesCSV = joinCapabilities(AllCapabilities())

// AllCapabilities returns all capabilities available
func AllCapabilities() []Capability {
	return []Capability{
		CapIterator,
		CapStaking,
		CapStargate,
		CapCosmwasmV1_1,
		CapCosmwasmV1_2,
		CapCosmwasmV1_3,
		CapCosmwasmV1_4,
		CapCosmwasmV2_0,
		CapCosmwasmV2_1,
	}
}

func joinCapabilities(caps []Capability) string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

// CapabilitySet is an unordered set of capability names. Unknown names are
// allowed; chains may define their own capabilities.
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a set from the given names, dropping duplicates.
func NewCapabilitySet(names ...string) CapabilitySet {
	set := make(CapabilitySet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// CapabilitiesFromCSV splits a comma separated list into a set. Whitespace
// around names is trimmed and empty entries are ignored.
func CapabilitiesFromCSV(csv string) CapabilitySet {
	set := make(CapabilitySet)
	for _, token := range strings.Split(csv, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

func (s CapabilitySet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

func (s CapabilitySet) Len() int {
	return len(s)
}

// Sorted returns the names in lexicographic order.
func (s CapabilitySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Missing returns the names in required that are not in s, sorted.
func (s CapabilitySet) Missing(required CapabilitySet) []string {
	var out []string
	for _, n := range required.Sorted() {
		if !s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// String renders the set like {"a", "b"}.
func (s CapabilitySet) String() string {
	sorted := s.Sorted()
	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}
