package engine

// importModule is the only module contracts may import from.
const importModule = "env"

// supportedImports lists the host functions a contract may import.
var supportedImports = map[string]bool{
	"abort": true,

	// Storage
	"db_read":   true,
	"db_write":  true,
	"db_remove": true,

	// Iterators (capability "iterator")
	"db_scan":       true,
	"db_next":       true,
	"db_next_key":   true,
	"db_next_value": true,

	// Addresses
	"addr_validate":     true,
	"addr_canonicalize": true,
	"addr_humanize":     true,

	// Crypto
	"secp256k1_verify":           true,
	"secp256k1_recover_pubkey":   true,
	"secp256r1_verify":           true,
	"secp256r1_recover_pubkey":   true,
	"ed25519_verify":             true,
	"ed25519_batch_verify":       true,
	"bls12_381_aggregate_g1":     true,
	"bls12_381_aggregate_g2":     true,
	"bls12_381_pairing_equality": true,
	"bls12_381_hash_to_g1":       true,
	"bls12_381_hash_to_g2":       true,

	// Misc
	"debug":       true,
	"query_chain": true,
}

// requiredExports must be exported by every contract.
var requiredExports = []string{"allocate", "deallocate"}

const (
	interfaceVersionPrefix    = "interface_version_"
	supportedInterfaceVersion = "interface_version_8"
	requiresPrefix            = "requires_"
)
