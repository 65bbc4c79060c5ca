package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/config"
	"github.com/gnoswap-labs/semdiff/internal/session"
	"github.com/gnoswap-labs/semdiff/internal/slicer"
)

var (
	sliceFunc string
	sliceVar  string
)

var sliceCmd = &cobra.Command{
	Use:   "slice FILE.go",
	Short: "Print a procedure reduced to the parts depending on a symbol",
	Long: `Slices the procedure by dependency on a global variable or parameter and
prints the remaining IR.
Example) semdiff slice --func Tick --var counter tick.go`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		if err := runSlice(logger, newLoader(logger), cfg, args[0], sliceFunc, sliceVar, os.Stdout); err != nil {
			logger.Error("Error slicing procedure", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	sliceCmd.Flags().StringVar(&sliceFunc, "func", "", "Procedure to slice")
	sliceCmd.Flags().StringVar(&sliceVar, "var", "", "Global or parameter to slice by")
	_ = sliceCmd.MarkFlagRequired("func")
	_ = sliceCmd.MarkFlagRequired("var")
}

func runSlice(logger *zap.Logger, ld moduleLoader, cfg config.Config, path, funcName, symbol string, w io.Writer) error {
	m, err := ld.LoadFile(path)
	if err != nil {
		return err
	}
	p, err := session.FindProcedure(m, funcName)
	if err != nil {
		return err
	}
	v, err := session.ResolveSymbol(p, symbol)
	if err != nil {
		return err
	}

	stats := slicer.New(cfg.SlicerOptions(), logger).Run(p, v)
	if stats.Dependent == 0 {
		fmt.Fprintf(w, "; %s does not depend on %s\n", funcName, symbol)
	} else {
		fmt.Fprintf(w, "; %d dependent, %d included, %d operations and %d blocks removed\n",
			stats.Dependent, stats.Included, stats.RemovedOps, stats.RemovedBlocks)
	}
	_, err = io.WriteString(w, p.String())
	return err
}
