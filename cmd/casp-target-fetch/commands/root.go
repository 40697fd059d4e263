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

const userAgent = "curl/8"

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "The json5 config file, a missing file means built-in defaults.")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

var rootCmd = &cobra.Command{
	Use:   "casp-target-fetch",
	Short: "casp-target-fetch collects the CASP15 target list, target sequences and ligand definitions into ./" + pipelines.DefaultTargetsOutDir,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := app.Start(ctx, app.Options{
			ServiceName: "casp-target-fetch",
			UserAgent:   userAgent,
			ConfigPath:  configPath,
			Verbose:     verbose,
		})
		if err != nil {
			serviceutil.Fatal("failed to start", err)
		}
		defer a.Close()

		targets := pipelines.NewTargets(a.Client, a.Telemetry, pipelines.TargetOptions{})
		report, err := targets.Run(ctx)
		report.Render(os.Stdout)
		if err != nil {
			a.Close()
			serviceutil.Fatal("target fetch aborted", err)
		}

		out, err := filepath.Abs(targets.OutDir())
		if err != nil {
			out = targets.OutDir()
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
