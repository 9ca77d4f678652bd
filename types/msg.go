package types

import (
	"encoding/json"
	"fmt"
)

const (
	MsgTypeTransfer      = "transfer"
	MsgTypeMint          = "mint"
	MsgTypeRegisterAsset = "register_asset"
)

// Msg is the wire envelope of every transaction submitted to the chain.
type Msg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// EncodeMsg wraps one of *Tx, *Mint or *RegisterAsset in the wire envelope.
func EncodeMsg(msg interface{}) ([]byte, error) {
	var typ string
	switch msg.(type) {
	case *Tx:
		typ = MsgTypeTransfer
	case *Mint:
		typ = MsgTypeMint
	case *RegisterAsset:
		typ = MsgTypeRegisterAsset
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Msg{Type: typ, Value: value})
}

// MustEncodeMsg is EncodeMsg that panics on error.
func MustEncodeMsg(msg interface{}) []byte {
	bz, err := EncodeMsg(msg)
	if err != nil {
		panic(err)
	}
	return bz
}

// DecodeMsg parses the wire envelope and returns *Tx, *Mint or
// *RegisterAsset.
func DecodeMsg(bz []byte) (interface{}, error) {
	var env Msg
	if err := json.Unmarshal(bz, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var msg interface{}
	switch env.Type {
	case MsgTypeTransfer:
		msg = new(Tx)
	case MsgTypeMint:
		msg = new(Mint)
	case MsgTypeRegisterAsset:
		msg = new(RegisterAsset)
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err := json.Unmarshal(env.Value, msg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.Type, err)
	}
	return msg, nil
}
