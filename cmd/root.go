package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/config"
	"github.com/gnoswap-labs/semdiff/internal/ir"
	"github.com/gnoswap-labs/semdiff/internal/loader"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger = zap.NewNop()
)

// moduleLoader turns a source file into an IR module.
type moduleLoader interface {
	LoadFile(path string) (*ir.Module, error)
}

var newLoader = func(logger *zap.Logger) moduleLoader { return loader.New(logger) }

var rootCmd = &cobra.Command{
	Use:              "semdiff",
	Short:            "semdiff - semantic comparison of two versions of Go procedures",
	TraverseChildren: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Set a timeout for the comparison")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(cfgCmd)
}
