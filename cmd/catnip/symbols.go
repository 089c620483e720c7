package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fengyoulin/catnip"
	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols FILE",
	Short: "List the symbols of an object file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		syms, err := catnip.GetSymbols(args[0])
		if err != nil {
			return err
		}
		names := make([]string, 0, len(syms))
		for name := range syms {
			if strings.Contains(name, filter) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\t%s\n", syms[name], name)
		}
		return nil
	},
}

func init() {
	symbolsCmd.Flags().String("filter", "", "only names containing this string")
	rootCmd.AddCommand(symbolsCmd)
}
