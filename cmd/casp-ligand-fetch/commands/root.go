package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"caspfetch/internal/app"
	"caspfetch/internal/config"
	"caspfetch/internal/pipelines"
	"caspfetch/lib/serviceutil"

	"github.com/spf13/cobra"
)

const userAgent = "CASP-downloader/1.0 (+for research use)"

var (
	configPath string
	verbose    bool
	options    pipelines.LigandOptions
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&options.OutDir, "out", "./casp_data", "Directory to write everything into.")
	flags.BoolVar(&options.SkipCasp16Smiles, "skip-casp16-smiles", false, "Skip the CASP16 pharma SMILES tarballs.")
	flags.BoolVar(&options.SkipCasp16Fastas, "skip-casp16-fastas", false, "Skip the CASP16 supertarget sequences.")
	flags.BoolVar(&options.WithCasp16Results, "with-casp16-results", false, "Also download the CASP16 ligand result csvs.")
	flags.BoolVar(&options.SkipCasp15Fastas, "skip-casp15-fastas", false, "Skip the CASP15 ligand target sequences.")
	flags.BoolVar(&options.WithCasp15Predictions, "with-casp15-predictions", false, "Also download the CASP15 ligand prediction tarballs (large).")
	flags.StringVar(&configPath, "config", config.DefaultPath, "The json5 config file, a missing file means built-in defaults.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

var rootCmd = &cobra.Command{
	Use:   "casp-ligand-fetch [--out <dir>]",
	Short: "casp-ligand-fetch downloads the CASP16 pharma ligand sets and the CASP15 ligand targets.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := app.Start(ctx, app.Options{
			ServiceName: "casp-ligand-fetch",
			UserAgent:   userAgent,
			ConfigPath:  configPath,
			Verbose:     verbose,
		})
		if err != nil {
			serviceutil.Fatal("failed to start", err)
		}
		defer a.Close()

		opts := options
		opts.Supertargets = a.Config.Supertargets
		out, err := filepath.Abs(opts.OutDir)
		if err != nil {
			serviceutil.Fatal("failed to resolve output directory", err)
		}
		opts.OutDir = out

		report, err := pipelines.NewLigand(a.Client, a.Telemetry, opts).Run(ctx)
		report.Render(os.Stdout)
		if err != nil {
			a.Close()
			serviceutil.Fatal("ligand fetch aborted", err)
		}
		fmt.Printf("Done. Outputs in: %s\n", out)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
