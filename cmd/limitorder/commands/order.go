package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	tmmath "github.com/tendermint/limitorder/libs/math"
	"github.com/tendermint/limitorder/predicate"
	"github.com/tendermint/limitorder/txbuilder"
	"github.com/tendermint/limitorder/types"
)

// OrderCmd derives order addresses and prices offline.
var OrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Derive order addresses and prices",
}

var orderAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address and witness of an order",
	RunE:  orderAddress,
}

var orderPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print the order price for selling amount0 for amount1",
	RunE:  orderPrice,
}

var (
	orderProgram string
	orderAsset0  string
	orderAsset1  string
	orderMaker   string
	orderPriceV  uint64
	orderMin     uint64

	priceAmount0 uint64
	priceAmount1 uint64
	priceFill    uint64
	priceRatio   string
)

func init() {
	f := orderAddressCmd.Flags()
	f.StringVar(&orderProgram, "program", "single", "predicate program: single | aggregate, or a full program code")
	f.StringVar(&orderAsset0, "asset0", "", "asset sold by the maker (hex)")
	f.StringVar(&orderAsset1, "asset1", "", "asset bought by the maker (hex)")
	f.StringVar(&orderMaker, "maker", "", "maker address (hex or bech32)")
	f.Uint64Var(&orderPriceV, "price", 0, "asset1 per asset0, scaled by 10^6")
	f.Uint64Var(&orderMin, "min", 1, "minimum asset0 taken by a fill")

	f = orderPriceCmd.Flags()
	f.Uint64Var(&priceAmount0, "amount0", 0, "asset0 sold")
	f.Uint64Var(&priceAmount1, "amount1", 0, "asset1 wanted in exchange")
	f.StringVar(&priceRatio, "ratio", "", "amount1/amount0 as a fraction, instead of --amount0 and --amount1")
	f.Uint64Var(&priceFill, "fill", 0, "also print the payment required for a fill of this much asset0")

	OrderCmd.AddCommand(orderAddressCmd, orderPriceCmd)
}

func programByName(name string) (predicate.Program, error) {
	switch name {
	case "single":
		return predicate.SingleOutput, nil
	case "aggregate":
		return predicate.Aggregate, nil
	}
	return predicate.ProgramByCode(name)
}

type orderInfo struct {
	Address types.Address          `json:"address"`
	Bech32  string                 `json:"bech32"`
	Config  predicate.OrderConfig  `json:"config"`
	Witness types.PredicateWitness `json:"witness"`
}

func orderAddress(cmd *cobra.Command, args []string) error {
	program, err := programByName(orderProgram)
	if err != nil {
		return err
	}
	var cfg predicate.OrderConfig
	if cfg.Asset0, err = types.ParseAssetID(orderAsset0); err != nil {
		return fmt.Errorf("asset0: %w", err)
	}
	if cfg.Asset1, err = types.ParseAssetID(orderAsset1); err != nil {
		return fmt.Errorf("asset1: %w", err)
	}
	if cfg.Maker, err = types.ParseAddress(orderMaker); err != nil {
		return fmt.Errorf("maker: %w", err)
	}
	cfg.Price = orderPriceV
	cfg.MinFulfillAmount0 = orderMin
	if err := cfg.ValidateBasic(); err != nil {
		return err
	}

	order := predicate.NewOrder(program, cfg)
	addr := order.Address()
	return printJSON(cmd, orderInfo{
		Address: addr,
		Bech32:  addr.Bech32(),
		Config:  cfg,
		Witness: *order.Witness(),
	})
}

type priceInfo struct {
	Price    uint64 `json:"price"`
	Fill     uint64 `json:"fill,omitempty"`
	Required uint64 `json:"required,omitempty"`
}

func orderPrice(cmd *cobra.Command, args []string) error {
	amount0, amount1 := priceAmount0, priceAmount1
	if priceRatio != "" {
		ratio, err := tmmath.ParseFraction(priceRatio)
		if err != nil {
			return fmt.Errorf("ratio: %w", err)
		}
		amount0, amount1 = ratio.Denominator, ratio.Numerator
	}
	price, err := txbuilder.PriceFromAmounts(amount0, amount1)
	if err != nil {
		return err
	}
	info := priceInfo{Price: price}
	if priceFill > 0 {
		info.Fill = priceFill
		info.Required, err = txbuilder.RequiredPayment(predicate.OrderConfig{Price: price}, priceFill)
		if err != nil {
			return err
		}
	}
	return printJSON(cmd, info)
}
