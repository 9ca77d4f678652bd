package ed25519

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/atomicfile"

	"github.com/tendermint/limitorder/crypto"
)

// KeyFile is the on-disk JSON form of an account key.
type KeyFile struct {
	Address string `json:"address"`
	PubKey  string `json:"pub_key"`
	PrivKey string `json:"priv_key"`
}

func NewKeyFile(priv PrivKey) KeyFile {
	pub := priv.PubKey().Bytes()
	addr := crypto.AddressHash(pub)
	return KeyFile{
		Address: strings.ToUpper(hex.EncodeToString(addr[:])),
		PubKey:  strings.ToUpper(hex.EncodeToString(pub)),
		PrivKey: strings.ToUpper(hex.EncodeToString(priv.Bytes())),
	}
}

// Save persists the key file atomically with owner-only permissions.
func (kf KeyFile) Save(path string) error {
	bz, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteData(path, bz, 0600)
}

// Key decodes the private key and checks it against the stored public key.
func (kf KeyFile) Key() (PrivKey, error) {
	bz, err := hex.DecodeString(kf.PrivKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}
	if len(bz) != PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size %d", len(bz))
	}
	priv := PrivKey(bz)
	if !strings.EqualFold(hex.EncodeToString(priv.PubKey().Bytes()), kf.PubKey) {
		return nil, fmt.Errorf("key file pub_key does not match priv_key")
	}
	return priv, nil
}

// LoadKeyFile reads a key file written by Save.
func LoadKeyFile(path string) (PrivKey, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf KeyFile
	if err := json.Unmarshal(bz, &kf); err != nil {
		return nil, fmt.Errorf("parsing key file %s: %w", path, err)
	}
	return kf.Key()
}
