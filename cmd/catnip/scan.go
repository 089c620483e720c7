package main

import (
	"fmt"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE PATTERN",
	Short: "Find every match of a byte pattern in a file's code.",
	Long:  "PATTERN is hex bytes separated by spaces; ? or ?? matches any byte.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := catnip.ParsePattern(args[1])
		if err != nil {
			return err
		}
		img, r, err := load(cmd, args)
		if err != nil {
			return err
		}
		code := make([]byte, r.Size)
		if err := img.ReadAt(code, r.Base); err != nil {
			return err
		}
		hits := p.MatchAll(code)
		for _, off := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\t%s+%#x\n", r.Base+uintptr(off), r.Name, off)
		}
		if len(hits) == 0 {
			return errors.Errorf("%s: %s not found", r.Name, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
