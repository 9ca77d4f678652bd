package types

import (
	"bytes"
	"encoding/binary"
)

// encoder writes the deterministic binary form hashed by Tx.Hash and the
// sign bytes of each message: fixed-width big-endian integers and
// length-prefixed byte strings.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) byte(b byte) {
	e.buf.WriteByte(b)
}

func (e *encoder) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) bytes(bz []byte) {
	e.uint64(uint64(len(bz)))
	e.buf.Write(bz)
}
