package app

import (
	"strconv"

	abcitypes "github.com/tendermint/tendermint/abci/types"

	"github.com/tendermint/limitorder/internal/validation"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/types"
)

// Event types and attribute keys emitted by the application.
const (
	EventTypeTransfer      = "transfer"
	EventTypeOrderFill     = "order.fill"
	EventTypeOrderCancel   = "order.cancel"
	EventTypeMint          = "mint"
	EventTypeRegisterAsset = "register_asset"

	AttributeKeyHash     = "hash"
	AttributeKeyAddress  = "address"
	AttributeKeyA0       = "a0"
	AttributeKeyRequired = "required"
	AttributeKeyPaid     = "paid"
	AttributeKeyAsset    = "asset"
	AttributeKeySymbol   = "symbol"
	AttributeKeyIssuer   = "issuer"
	AttributeKeyOwner    = "owner"
	AttributeKeyAmount   = "amount"
	AttributeKeyCoin     = "coin"
)

func attr(key, value string) abcitypes.EventAttribute {
	return abcitypes.EventAttribute{Key: []byte(key), Value: []byte(value), Index: true}
}

func uintAttr(key string, v uint64) abcitypes.EventAttribute {
	return attr(key, strconv.FormatUint(v, 10))
}

func transferEvents(res *validation.Result) []abcitypes.Event {
	events := []abcitypes.Event{{
		Type:       EventTypeTransfer,
		Attributes: []abcitypes.EventAttribute{attr(AttributeKeyHash, res.Hash.String())},
	}}
	for _, o := range res.Orders {
		switch o.Decision.Family {
		case predicate.FamilyFill:
			events = append(events, abcitypes.Event{
				Type: EventTypeOrderFill,
				Attributes: []abcitypes.EventAttribute{
					attr(AttributeKeyAddress, o.Address.String()),
					uintAttr(AttributeKeyA0, o.Decision.A0),
					uintAttr(AttributeKeyRequired, o.Decision.Required),
					uintAttr(AttributeKeyPaid, o.Decision.Paid),
				},
			})
		case predicate.FamilyCancel:
			events = append(events, abcitypes.Event{
				Type:       EventTypeOrderCancel,
				Attributes: []abcitypes.EventAttribute{attr(AttributeKeyAddress, o.Address.String())},
			})
		}
	}
	return events
}

func mintEvent(coin types.Coin) abcitypes.Event {
	return abcitypes.Event{
		Type: EventTypeMint,
		Attributes: []abcitypes.EventAttribute{
			attr(AttributeKeyAsset, coin.Asset.String()),
			attr(AttributeKeyOwner, coin.Owner.String()),
			uintAttr(AttributeKeyAmount, coin.Amount),
			attr(AttributeKeyCoin, coin.ID.String()),
		},
	}
}

func registerAssetEvent(asset types.Asset) abcitypes.Event {
	return abcitypes.Event{
		Type: EventTypeRegisterAsset,
		Attributes: []abcitypes.EventAttribute{
			attr(AttributeKeyAsset, asset.ID.String()),
			attr(AttributeKeySymbol, asset.Symbol),
			attr(AttributeKeyIssuer, asset.Issuer.String()),
		},
	}
}
