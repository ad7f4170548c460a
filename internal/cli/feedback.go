package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var feedbackOpts app.FeedbackOptions

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Re-run the correction pass for a store and day",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Feedback(cmd.Context(), feedbackOpts)
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackOpts.Store, "store", "", "store key")
	feedbackCmd.Flags().StringVar(&feedbackOpts.Date, "date", "", "evaluated day YYYY-MM-DD (default yesterday)")
	_ = feedbackCmd.MarkFlagRequired("store")
	rootCmd.AddCommand(feedbackCmd)
}
