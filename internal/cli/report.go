package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shanmc/promptduel/internal/pipeline"
	"github.com/shanmc/promptduel/internal/store"
)

var (
	reportDB     string
	reportLast   int
	reportJSON   string
	reportOutDir string
)

// reportCmd represents the report command. It reads the history store
// directly, so it needs no API keys.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report rolling statistics over the most recent runs",
	Long: `Report recomputes the rolling comparison from the run-history store:
per-strategy average combined score, win-rate, and trend over the last N
runs. The store is the single source of truth; statistics are derived
fresh on every call.

Example:
  promptduel report
  promptduel report --last 10 --json output/report.json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDB, "db", "promptduel.db", "run-history database path")
	reportCmd.Flags().IntVar(&reportLast, "last", 5, "number of recent runs to cover")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "also write the statistics as JSON to this path")
	reportCmd.Flags().StringVar(&reportOutDir, "out", "output", "report output directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(reportDB)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	records, err := st.Recent(reportLast)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	stats := store.ComputeStats(records)

	renderer := pipeline.NewRenderer()
	text := renderer.RenderText(stats, records)
	fmt.Print(text)

	reportPath, err := renderer.WriteReport(reportOutDir, text)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", reportPath)
	}

	if reportJSON != "" {
		if err := os.MkdirAll(filepath.Dir(reportJSON), 0o755); err != nil {
			return fmt.Errorf("create JSON dir: %w", err)
		}
		if err := renderer.WriteJSON(reportJSON, stats); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", reportJSON)
		}
	}

	return nil
}
