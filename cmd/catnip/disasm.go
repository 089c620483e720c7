package main

import (
	"fmt"
	"strconv"

	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/arch/x86/x86asm"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE ADDR|PATTERN",
	Short: "Disassemble code at an address or at the first pattern match.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		img, r, err := load(cmd, args)
		if err != nil {
			return err
		}
		addr, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			p, perr := catnip.ParsePattern(args[1])
			if perr != nil {
				return errors.Errorf("%q is neither an address nor a pattern", args[1])
			}
			site, ferr := catnip.FindPattern(img, catnip.Signature{Module: r.Name, Pattern: p})
			if ferr != nil {
				return ferr
			}
			addr = uint64(site)
		}
		insts, err := catnip.Disasm(img, uintptr(addr), n)
		pc := addr
		for _, inst := range insts {
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\t%s\n", pc, x86asm.IntelSyntax(inst, pc, nil))
			pc += uint64(inst.Len)
		}
		return err
	},
}

func init() {
	disasmCmd.Flags().Int("count", 8, "number of instructions")
	rootCmd.AddCommand(disasmCmd)
}
