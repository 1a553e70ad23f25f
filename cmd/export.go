package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/cloudverse/internal/progress"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export progress as JSON",
	Long:  "Write all progress to a JSON file named after today's date, or to --output (\"-\" for stdout).",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		data, err := e.progress.Export()
		if err != nil {
			return fmt.Errorf("export progress: %w", err)
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = progress.ExportFilename(e.progress.Snapshot().Taken)
		}
		if out == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Println("Exported progress to", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default cloudverse-progress-<date>.json)")
}
