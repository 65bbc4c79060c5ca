package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/ir"
	"github.com/gnoswap-labs/semdiff/internal/session"
)

// variable for flags
var (
	funcName string
	output   string
)

var cfgCmd = &cobra.Command{
	Use:   "cfg FILE.go",
	Short: "Print the IR of a procedure or write its control flow graph",
	Long: `Outputs the IR of the specified procedure or generates a GraphViz file of its
control flow graph.
Example) semdiff cfg --func Sum -o sum.dot sum.go`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCFG(newLoader(logger), args[0], funcName, output, os.Stdout); err != nil {
			logger.Error("Error rendering procedure", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	cfgCmd.Flags().StringVar(&funcName, "func", "", "Procedure to render")
	cfgCmd.Flags().StringVarP(&output, "output", "o", "", "Output path for rendered GraphViz file")
	_ = cfgCmd.MarkFlagRequired("func")
}

func runCFG(ld moduleLoader, path, funcName, output string, w io.Writer) error {
	m, err := ld.LoadFile(path)
	if err != nil {
		return err
	}
	p, err := session.FindProcedure(m, funcName)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := io.WriteString(w, p.String())
		return err
	}
	if err := ir.WriteDotFile(p, output); err != nil {
		return err
	}
	fmt.Fprintf(w, "GraphViz file created: %s\n", output)
	return nil
}
