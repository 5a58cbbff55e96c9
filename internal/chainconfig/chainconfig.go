// Package chainconfig reads a chain's Wasm VM configuration from a file.
//
// The file holds a msgpack encoded VMConfig as produced by rmp-serde on the
// Rust side. Structs may be encoded either as arrays (the rmp-serde default)
// or as maps with field names.
package chainconfig

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shamaton/msgpack/v2"

	"github.com/CosmWasm/wasmcheck/types"
)

// IoError is returned when the config file cannot be read.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("error opening config file: %v", e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the file content is not a valid VMConfig.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error parsing config file: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Load reads and decodes the config file at path.
func Load(path string) (types.VMConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.VMConfig{}, &IoError{Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return types.VMConfig{}, &IoError{Path: path, Err: err}
	}
	return Decode(data)
}

// Decode decodes a msgpack encoded VMConfig. On error the returned config is
// always the zero value.
func Decode(data []byte) (types.VMConfig, error) {
	if len(data) == 0 {
		return types.VMConfig{}, &DecodeError{Err: errors.New("empty input")}
	}

	var config types.VMConfig
	var err error
	switch {
	case isArray(data[0]):
		err = msgpack.UnmarshalAsArray(data, &config)
	case isMap(data[0]):
		err = msgpack.UnmarshalAsMap(data, &config)
	default:
		err = fmt.Errorf("unexpected msgpack type 0x%02x, expected an array or a map", data[0])
	}
	if err != nil {
		return types.VMConfig{}, &DecodeError{Err: err}
	}
	return config, nil
}

// Encode encodes config the way rmp-serde does by default, with structs as
// arrays.
func Encode(config types.VMConfig) ([]byte, error) {
	return msgpack.MarshalAsArray(config)
}

func isArray(b byte) bool {
	return (b >= 0x90 && b <= 0x9f) || b == 0xdc || b == 0xdd
}

func isMap(b byte) bool {
	return (b >= 0x80 && b <= 0x8f) || b == 0xde || b == 0xdf
}
