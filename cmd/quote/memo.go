package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/memo"
)

func runMemoParse(cmd *cobra.Command, args []string) error {
	s, err := memo.Parse(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), s)
}

func runMemoBuild(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	assetStr, _ := flags.GetString("asset")
	destination, _ := flags.GetString("destination")
	limitStr, _ := flags.GetString("limit")
	affiliate, _ := flags.GetString("affiliate")
	affiliateBps, _ := flags.GetInt64("affiliate-bps")

	a, err := asset.Parse(assetStr)
	if err != nil {
		return fmt.Errorf("--asset: %w", err)
	}
	limit, ok := new(big.Int).SetString(limitStr, 10)
	if !ok {
		return fmt.Errorf("--limit: not an integer: %q", limitStr)
	}

	out, err := memo.Build(memo.Swap{
		Asset:              a,
		DestinationAddress: destination,
		Limit:              limit,
		AffiliateAddress:   affiliate,
		AffiliateFeeBps:    affiliateBps,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
