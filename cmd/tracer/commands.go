package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tracer/internal"
	"tracer/internal/di"
	"tracer/internal/interchange"
	"tracer/internal/structures"
)

var (
	flags = structures.CliFlags{}

	rootCmd = &cobra.Command{
		Use:           "tracer",
		Short:         "Local-first personal data tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serves the local JSON and WebSocket API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	exportCmd = &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Writes every data point as CSV to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExport,
	}
	importCmd = &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Adds the data points of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	backupCmd = &cobra.Command{
		Use:   "backup [file]",
		Short: "Writes a compressed snapshot (default: backup.filePath)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBackup,
	}
	restoreCmd = &cobra.Command{
		Use:   "restore [file]",
		Short: "Replaces all data with a snapshot (default: backup.filePath)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRestore,
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Deletes the database",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	generateCmd = &cobra.Command{
		Use:       "generate <preset>",
		Short:     "Adds sample data for a preset series",
		Args:      cobra.ExactArgs(1),
		ValidArgs: interchange.Presets(),
		RunE:      runGenerate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "Mirror logs to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("force", false, "Required to confirm the deletion of all data")
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int("days", 30, "Number of days ending today to fill")
	generateCmd.Flags().Float64("frequency", 1, "Points per day (0.1 to 10)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := di.InitApp(&flags)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Run(cmd.Context())
}

// withToolkit builds the offline toolkit and releases it after fn.
func withToolkit(fn func(ctx context.Context, tk *internal.Toolkit) error) error {
	tk, cleanup, err := di.InitToolkit(&flags)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(context.Background(), tk)
}

func runExport(cmd *cobra.Command, args []string) error {
	return withToolkit(func(_ context.Context, tk *internal.Toolkit) error {
		if len(args) == 0 {
			_, err := tk.Export(cmd.OutOrStdout())
			return err
		}
		n, err := exportToFile(tk, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d data points to %s\n", n, args[0])
		return nil
	})
}

// exportToFile reports a failed close, which is where a short write to disk
// surfaces.
func exportToFile(tk *internal.Toolkit, path string) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return tk.Export(f)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withToolkit(func(ctx context.Context, tk *internal.Toolkit) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := tk.Import(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d data points\n", n)
		return nil
	})
}

func runBackup(cmd *cobra.Command, args []string) error {
	return withToolkit(func(ctx context.Context, tk *internal.Toolkit) error {
		path, err := tk.Backup(ctx, optionalArg(args))
		if err != nil {
			return err
		}
		series, points := tk.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d series and %d data points to %s\n", series, points, path)
		return nil
	})
}

func runRestore(cmd *cobra.Command, args []string) error {
	return withToolkit(func(ctx context.Context, tk *internal.Toolkit) error {
		path, err := tk.Restore(ctx, optionalArg(args))
		if err != nil {
			return err
		}
		series, points := tk.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "Store holds %d series and %d data points after restoring %s\n", series, points, path)
		return nil
	})
}

func runReset(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("reset deletes all data; rerun with --force")
	}
	return withToolkit(func(ctx context.Context, tk *internal.Toolkit) error {
		if err := tk.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database deleted")
		return nil
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	frequency, _ := cmd.Flags().GetFloat64("frequency")
	to := time.Now()
	req := interchange.GenerateRequest{
		Preset:    args[0],
		From:      to.AddDate(0, 0, -days),
		To:        to,
		Frequency: frequency,
	}
	return withToolkit(func(ctx context.Context, tk *internal.Toolkit) error {
		n, err := tk.Generate(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %d %s data points\n", n, args[0])
		return nil
	})
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
