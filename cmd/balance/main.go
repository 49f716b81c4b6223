package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmagro/addr-balance/internal/config"
)

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "balance [ADDRESS...]",
		Short: "Show the balance of one or more addresses",
		Long: `Query an Esplora-compatible indexer for the history of each address and
print its paid balance, pending balance and total received, in satoshis.

Results are printed as each query completes. With no ADDRESS arguments a
single address is read from standard input.

Examples:
  balance 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa
  balance --json bc1q... 3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy
  echo tb1q... | balance --network testnet`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configRequired = cmd.Flags().Changed("config")
			return runBalance(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "Config file path")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as a JSON array")
	cmd.Flags().BoolVar(&opts.table, "table", false, "Print results as a table once all queries finish")
	cmd.Flags().StringVar(&opts.network, "network", "", "Bitcoin network: mainnet|testnet|regtest|signet (overrides config)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Indexer base URL (overrides config)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Driver poll interval (0 = use config)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with failure if any address could not be fetched")
	cmd.MarkFlagsMutuallyExclusive("json", "table")

	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "balance: %v\n", err)
		os.Exit(1)
	}
}
