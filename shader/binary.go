package shader

import (
	"encoding/binary"
	"fmt"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Binary is a compiled SPIR-V module. It is treated as opaque: only its
// size, alignment and magic number are ever inspected.
type Binary []byte

// Validate checks that b is non-empty, a whole number of 32-bit words and
// starts with the SPIR-V magic number.
func (b Binary) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedBinary)
	}
	if len(b)%4 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformedBinary, len(b))
	}
	if m := binary.LittleEndian.Uint32(b); m != spirvMagic {
		return fmt.Errorf("%w: bad magic %#08x", ErrMalformedBinary, m)
	}
	return nil
}

// Words returns the binary as little-endian 32-bit words.
// A trailing partial word is dropped; call Validate first.
func (b Binary) Words() []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
