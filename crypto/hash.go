package crypto

import "golang.org/x/crypto/sha3"

// Sum256 returns the SHA3-256 digest of the concatenation of parts.
func Sum256(parts ...[]byte) [HashSize]byte {
	hasher := sha3.New256()
	for _, p := range parts {
		hasher.Write(p)
	}
	var out [HashSize]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// Checksum returns the SHA3-256 of bz.
func Checksum(bz []byte) []byte {
	h := sha3.Sum256(bz)
	return h[:]
}

// AddressHash derives the 32 byte account address owned by a public key.
func AddressHash(pubKey []byte) [HashSize]byte {
	return Sum256([]byte("limitorder/account"), pubKey)
}
