package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"

	"github.com/tendermint/limitorder/crypto"
)

// GenesisCoin is a coin that exists from the first block.
type GenesisCoin struct {
	Owner  Address `json:"owner"`
	Asset  AssetID `json:"asset"`
	Amount uint64  `json:"amount"`
}

// GenesisState is the application state carried in the app_state field of
// the chain's genesis document.
type GenesisState struct {
	Assets []Asset       `json:"assets"`
	Coins  []GenesisCoin `json:"coins"`
}

// GenesisTxHash is the pseudo transaction hash of genesis coins; the i-th
// genesis coin has id GenesisTxHash:i.
var GenesisTxHash = Hash(crypto.Sum256([]byte("limitorder/genesis")))

// ValidateBasic checks assets are well formed and unique and every coin is
// denominated in a declared asset.
func (g GenesisState) ValidateBasic() error {
	assets := make(map[AssetID]struct{}, len(g.Assets))
	for i, a := range g.Assets {
		if err := a.ValidateBasic(); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
		if _, dup := assets[a.ID]; dup {
			return fmt.Errorf("asset %d: duplicate asset %v", i, a.ID)
		}
		assets[a.ID] = struct{}{}
	}
	for i, c := range g.Coins {
		if c.Amount == 0 {
			return fmt.Errorf("coin %d: zero amount", i)
		}
		if c.Owner.IsZero() {
			return fmt.Errorf("coin %d: empty owner", i)
		}
		if _, ok := assets[c.Asset]; !ok {
			return fmt.Errorf("coin %d: unknown asset %v", i, c.Asset)
		}
	}
	return nil
}

// GenesisCoins returns the UTXO set created at genesis.
func (g GenesisState) GenesisCoins() []Coin {
	coins := make([]Coin, len(g.Coins))
	for i, c := range g.Coins {
		coins[i] = Coin{
			ID:     CoinID{TxHash: GenesisTxHash, Index: uint32(i)},
			Owner:  c.Owner,
			Asset:  c.Asset,
			Amount: c.Amount,
		}
	}
	return coins
}

// ParseGenesisState decodes app_state bytes. Empty input is an empty state.
func ParseGenesisState(bz []byte) (GenesisState, error) {
	var g GenesisState
	if len(bz) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(bz, &g); err != nil {
		return g, fmt.Errorf("decoding genesis app state: %w", err)
	}
	return g, g.ValidateBasic()
}

// GenesisDoc is the subset of the chain genesis file this application reads
// and writes.
type GenesisDoc struct {
	ChainID  string       `json:"chain_id"`
	AppState GenesisState `json:"app_state"`
}

// SaveAs writes the genesis document atomically.
func (doc GenesisDoc) SaveAs(path string) error {
	if doc.ChainID == "" {
		return errors.New("genesis doc must include a chain_id")
	}
	bz, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteData(path, bz, 0644)
}

// GenesisDocFromFile reads a genesis document written by SaveAs.
func GenesisDocFromFile(path string) (GenesisDoc, error) {
	var doc GenesisDoc
	bz, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("couldn't read genesis file: %w", err)
	}
	if err := json.Unmarshal(bz, &doc); err != nil {
		return doc, fmt.Errorf("error reading genesis doc at %s: %w", path, err)
	}
	return doc, doc.AppState.ValidateBasic()
}
