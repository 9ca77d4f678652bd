package crypto

const (
	// HashSize is the size in bytes of a Sum256 digest.
	HashSize = 32
)

type PubKey interface {
	// Address is the hash of the key that owns coins on the ledger.
	Address() []byte
	Bytes() []byte
	VerifySignature(msg []byte, sig []byte) bool
	Equals(PubKey) bool
	Type() string
}

type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
	Equals(PrivKey) bool
	Type() string
}
