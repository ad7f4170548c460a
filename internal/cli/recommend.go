package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var recommendOpts app.RecommendOptions

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print the ranking for a store and date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Recommend(cmd.Context(), recommendOpts)
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendOpts.Store, "store", "", "store key")
	recommendCmd.Flags().StringVar(&recommendOpts.Date, "date", "", "target day YYYY-MM-DD (default yesterday)")
	recommendCmd.Flags().BoolVar(&recommendOpts.Live, "live", false, "omit units without fresh data")
	_ = recommendCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(recommendCmd)
}
