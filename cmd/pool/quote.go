package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"curvepool/internal/curve"
	"curvepool/internal/replay"
)

type quoteOutput struct {
	Curve        string `json:"curve"`
	Side         string `json:"side"`
	Count        uint64 `json:"count"`
	NewSpotPrice string `json:"new_spot_price"`
	Amount       string `json:"amount"`
	ProtocolFee  string `json:"protocol_fee"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	curveName, _ := cmd.Flags().GetString("curve")
	side, _ := cmd.Flags().GetString("side")
	spotStr, _ := cmd.Flags().GetString("spot")
	deltaStr, _ := cmd.Flags().GetString("delta")
	count, _ := cmd.Flags().GetUint64("count")
	feeStr, _ := cmd.Flags().GetString("fee")
	protocolFeeStr, _ := cmd.Flags().GetString("protocol-fee")

	crv, err := curve.ByName(curveName)
	if err != nil {
		return err
	}
	spot, err := replay.ParseAmount(spotStr)
	if err != nil {
		return err
	}
	delta, err := replay.ParseAmount(deltaStr)
	if err != nil {
		return err
	}
	fee, err := replay.ParseAmount(feeStr)
	if err != nil {
		return err
	}
	protocolFee, err := replay.ParseAmount(protocolFeeStr)
	if err != nil {
		return err
	}

	var q curve.Quote
	switch side {
	case "buy":
		q, err = crv.BuyQuote(spot, delta, count, fee, protocolFee)
	case "sell":
		q, err = crv.SellQuote(spot, delta, count, fee, protocolFee)
	default:
		return fmt.Errorf("unknown side %q", side)
	}
	if err != nil {
		return err
	}

	out := quoteOutput{
		Curve:        curveName,
		Side:         side,
		Count:        count,
		NewSpotPrice: q.NewSpotPrice.Dec(),
		Amount:       q.Amount.Dec(),
		ProtocolFee:  q.ProtocolFee.Dec(),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
