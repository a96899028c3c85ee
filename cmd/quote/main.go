package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "thorquote",
		Short:        "Swap quotes and memos against live THORChain pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Fetch one snapshot from THORNode and price a swap",
		RunE:  runEstimate,
	}
	estimateCmd.Flags().String("node", "", "THORNode base URL (default THORNODE_URL or the public node)")
	estimateCmd.Flags().String("client-id", "", "x-client-id sent to THORNode")
	estimateCmd.Flags().String("from", "", "source asset, e.g. BTC.BTC")
	estimateCmd.Flags().String("to", "", "destination asset, e.g. ETH.ETH")
	estimateCmd.Flags().String("amount", "", "input amount in whole units, e.g. 0.5")
	estimateCmd.Flags().String("destination", "", "destination address")
	estimateCmd.Flags().Int64("tolerance-bps", -1, "max slip in basis points; -1 disables the limit")
	estimateCmd.Flags().String("affiliate", "", "affiliate address")
	estimateCmd.Flags().Int64("affiliate-bps", 0, "affiliate fee in basis points")
	estimateCmd.Flags().String("fee-conversion", "", "outbound fee conversion: gas_asset or base")
	estimateCmd.Flags().String("defaults", "", "network defaults YAML (default: built in)")
	estimateCmd.Flags().Duration("timeout", 20*time.Second, "fetch timeout")
	root.AddCommand(estimateCmd)

	memoCmd := &cobra.Command{
		Use:   "memo",
		Short: "Build or parse swap memos",
	}
	memoParseCmd := &cobra.Command{
		Use:   "parse <memo>",
		Short: "Decode a swap memo",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemoParse,
	}
	memoBuildCmd := &cobra.Command{
		Use:   "build",
		Short: "Encode a swap memo",
		RunE:  runMemoBuild,
	}
	memoBuildCmd.Flags().String("asset", "", "destination asset")
	memoBuildCmd.Flags().String("destination", "", "destination address")
	memoBuildCmd.Flags().String("limit", "0", "minimum output in destination base units")
	memoBuildCmd.Flags().String("affiliate", "", "affiliate address")
	memoBuildCmd.Flags().Int64("affiliate-bps", 0, "affiliate fee in basis points")
	memoCmd.AddCommand(memoParseCmd, memoBuildCmd)
	root.AddCommand(memoCmd)

	return root
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	levelStr, _ := cmd.Flags().GetString("log-level")
	if lvl, err := logrus.ParseLevel(levelStr); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
