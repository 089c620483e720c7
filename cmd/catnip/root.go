package main

import (
	"os"
	"path/filepath"

	"github.com/fengyoulin/catnip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "catnip",
	Short: "Inspect host binaries for catnip hook sites.",
	Long: "catnip maps the executable sections of an ELF, PE or Mach-O file " +
		"into a simulated image and runs the same signature search the hooks " +
		"use at install time.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			Level(lvl).With().Timestamp().Logger()
		log.Logger = logger
		catnip.SetLogger(logger)
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			catnip.SetDebug(true)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "log pattern hits and cell writes")
	rootCmd.PersistentFlags().String("module", "", "module name to map the file as (default: file base name)")
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// load maps the file named by args[0] as the --module module.
func load(cmd *cobra.Command, args []string) (*catnip.Image, catnip.Region, error) {
	path := args[0]
	module, _ := cmd.Flags().GetString("module")
	if module == "" {
		module = filepath.Base(path)
	}
	return catnip.LoadFile(path, module)
}
