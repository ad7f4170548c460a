package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var showOpts app.ShowOptions

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a unit's recent days and extracted features",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Show(cmd.Context(), showOpts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showOpts.Store, "store", "", "store key")
	showCmd.Flags().StringVar(&showOpts.Unit, "unit", "", "unit id")
	showCmd.Flags().IntVar(&showOpts.Days, "days", 0, "days of history (default scoring window)")
	_ = showCmd.MarkFlagRequired("store")
	_ = showCmd.MarkFlagRequired("unit")
	rootCmd.AddCommand(showCmd)
}
