package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var exportOpts app.ExportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a unit's medal balance trend as a PNG chart or CSV table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Export(cmd.Context(), exportOpts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.Store, "store", "", "store key")
	exportCmd.Flags().StringVar(&exportOpts.Unit, "unit", "", "unit id")
	exportCmd.Flags().IntVar(&exportOpts.Days, "days", 30, "days of history")
	exportCmd.Flags().StringVar(&exportOpts.Output, "output", "", "output file (default <store>-<unit>.png or .csv)")
	exportCmd.Flags().BoolVar(&exportOpts.CSV, "csv", false, "write a CSV table instead of a chart")
	exportCmd.Flags().IntVar(&exportOpts.MaxPoints, "max-points", 0, "cap on chart data points")
	_ = exportCmd.MarkFlagRequired("store")
	_ = exportCmd.MarkFlagRequired("unit")
	rootCmd.AddCommand(exportCmd)
}
