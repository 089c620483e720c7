package main

import (
	"fmt"
	"sort"

	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/config"
	"github.com/fengyoulin/catnip/internal/hooks"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Resolve the overlay hook sites and configured signatures.",
	Long: "check resolves every overlay call site, plus each signature of the " +
		"config file whose module matches, to the pointer cell it would patch.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if err := config.LoadEnv(".env"); err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		img, r, err := load(cmd, args)
		if err != nil {
			return err
		}

		type site struct {
			key  string
			sig  catnip.Signature
			rule catnip.Rule
		}
		var sites []site
		overlay := hooks.NewOverlay(catnip.NewRegistry(), img.PtrSize(), nil, hooks.Overrides(cfg.Signatures))
		for i, s := range overlay.Sites() {
			sites = append(sites, site{fmt.Sprintf("overlay[%d]", i), s.Sig, s.Rule})
		}
		keys := make([]string, 0, len(cfg.Signatures))
		for k := range cfg.Signatures {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sig, rule, err := cfg.Signatures[k].Build()
			if err != nil {
				return errors.Wrap(err, k)
			}
			sites = append(sites, site{k, sig, rule})
		}

		out := cmd.OutOrStdout()
		missing := 0
		for _, s := range sites {
			if s.sig.Module != r.Name {
				fmt.Fprintf(out, "skip\t%s\t%s\n", s.key, s.sig)
				continue
			}
			addr, err := catnip.FindPattern(img, s.sig)
			if err == nil {
				var cell uintptr
				if cell, err = s.rule.Cell(img, addr); err == nil {
					fmt.Fprintf(out, "ok\t%s\tsite %#x\tcell %#x\n", s.key, addr, cell)
					continue
				}
			}
			missing++
			fmt.Fprintf(out, "miss\t%s\t%v\n", s.key, err)
		}
		if missing > 0 {
			return errors.Errorf("%d site(s) not resolved", missing)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().String("config", "", "config file with signature overrides")
	rootCmd.AddCommand(checkCmd)
}
