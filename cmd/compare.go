package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/semdiff/internal/cache"
	"github.com/gnoswap-labs/semdiff/internal/config"
	"github.com/gnoswap-labs/semdiff/internal/report"
	"github.com/gnoswap-labs/semdiff/internal/session"
)

var errNothingToCompare = errors.New("no procedures to compare: use --func or --all")

var (
	funcNames    []string
	compareAll   bool
	symbolName   string
	jsonOutput   bool
	yamlOutput   bool
	compareOut   string
	showProgress bool
	cacheDir     string
)

var compareCmd = &cobra.Command{
	Use:   "compare OLD.go NEW.go",
	Short: "Check whether procedures of two versions of a file are equivalent",
	Long: `Compares procedures of the same name in two versions of a Go file and reports
whether they are semantically equal. Exits with status 1 when any pair differs.
Example) semdiff compare --func Tick old/tick.go new/tick.go`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		req := compareRequest{
			OldPath:  args[0],
			NewPath:  args[1],
			Funcs:    funcNames,
			All:      compareAll,
			Symbol:   symbolName,
			Format:   outputFormat(),
			Output:   compareOut,
			CacheDir: cacheDir,
		}
		if compareAll && showProgress {
			req.Progress = os.Stderr
		}

		differs, err := runCompare(ctx, logger, newLoader(logger), cfg, req, os.Stdout)
		if err != nil {
			logger.Error("Error comparing files", zap.Error(err))
			os.Exit(1)
		}
		if differs {
			os.Exit(1)
		}
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&funcNames, "func", nil, "Procedures to compare (repeatable or comma-separated)")
	compareCmd.Flags().BoolVar(&compareAll, "all", false, "Compare every procedure defined in both files")
	compareCmd.Flags().StringVar(&symbolName, "var", "", "Slice both sides by dependency on this global or parameter first")
	compareCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report in JSON format")
	compareCmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output the report in YAML format")
	compareCmd.Flags().StringVarP(&compareOut, "output", "o", "", "Output path for the report")
	compareCmd.Flags().BoolVar(&showProgress, "progress", true, "Show a progress bar with --all")
	compareCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory remembering procedures proven equal by earlier runs")
	compareCmd.MarkFlagsMutuallyExclusive("func", "all")
	compareCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func outputFormat() report.Format {
	switch {
	case jsonOutput:
		return report.JSON
	case yamlOutput:
		return report.YAML
	default:
		return report.Text
	}
}

// compareRequest describes one compare invocation. The report goes to
// stdout when Output is empty and CacheDir enables the verdict cache.
type compareRequest struct {
	OldPath  string
	NewPath  string
	Funcs    []string
	All      bool
	Symbol   string
	Format   report.Format
	Output   string
	Progress io.Writer
	CacheDir string
}

// runCompare loads both versions, compares the requested procedures and
// writes the report. It reports whether any pair differs.
func runCompare(ctx context.Context, logger *zap.Logger, ld moduleLoader, cfg config.Config, req compareRequest, stdout io.Writer) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	oldMod, err := ld.LoadFile(req.OldPath)
	if err != nil {
		return false, err
	}
	newMod, err := ld.LoadFile(req.NewPath)
	if err != nil {
		return false, err
	}

	names := req.Funcs
	if req.All {
		names = session.CommonProcedures(oldMod, newMod)
	}
	if len(names) == 0 {
		return false, errNothingToCompare
	}
	logger.Info("comparing procedures",
		zap.String("old", req.OldPath),
		zap.String("new", req.NewPath),
		zap.Int("count", len(names)))

	opts := session.Options{
		Compare:  cfg.CompareOptions(),
		Slicer:   cfg.SlicerOptions(),
		Symbol:   req.Symbol,
		Progress: req.Progress,
	}
	var verdicts *cache.Cache
	if req.CacheDir != "" {
		verdicts, err = cache.New(req.CacheDir)
		if err != nil {
			return false, err
		}
		v, err := verdicts.ForFiles(req.OldPath, req.NewPath, req.Symbol, cfg)
		if err != nil {
			return false, err
		}
		opts.Verdicts = v
	}

	summary, err := session.Run(ctx, logger, oldMod, newMod, names, opts)
	if err != nil {
		return false, err
	}
	if verdicts != nil {
		if err := verdicts.Save(); err != nil {
			logger.Warn("failed to save verdict cache", zap.Error(err))
		}
	}

	if err := writeReport(summary, req.Format, req.Output, stdout); err != nil {
		return false, err
	}
	return summary.Differs(), nil
}

func writeReport(s *session.Summary, format report.Format, path string, stdout io.Writer) error {
	if path == "" {
		return report.Write(stdout, s, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer f.Close()
	return report.Write(f, s, format)
}
