package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var ingestOpts app.IngestOptions

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one store's snapshot for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Ingest(cmd.Context(), ingestOpts)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOpts.Store, "store", "", "store key")
	ingestCmd.Flags().StringVar(&ingestOpts.Date, "date", "", "business day YYYY-MM-DD (default yesterday)")
	_ = ingestCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(ingestCmd)
}
