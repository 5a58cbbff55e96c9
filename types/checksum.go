package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Checksum represents a unique identifier for a Wasm contract.
// It is the SHA-256 hash of the contract's bytecode.
type Checksum [ChecksumLen]byte

func (cs Checksum) String() string {
	return hex.EncodeToString(cs[:])
}

// ChecksumLen is the length of a checksum in bytes.
const ChecksumLen = 32

// wasmMagic is the "\0asm" preamble every Wasm binary starts with.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// CreateChecksum performs the hashing of Wasm bytes to the Wasm checksum.
// It rejects input that cannot possibly be a Wasm binary.
func CreateChecksum(wasm []byte) (Checksum, error) {
	if len(wasm) == 0 {
		return Checksum{}, errors.New("Wasm bytes nil or empty")
	}
	if len(wasm) < 4 {
		return Checksum{}, errors.New("Wasm bytes shorter than 4 bytes")
	}
	for i, b := range wasmMagic {
		if wasm[i] != b {
			return Checksum{}, errors.New("Wasm bytes do not start with Wasm magic number")
		}
	}
	return sha256.Sum256(wasm), nil
}
