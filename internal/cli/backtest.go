package cli

import (
	"github.com/spf13/cobra"

	"slot-advisor/internal/app"
)

var backtestOpts app.BacktestOptions

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the engine over a historical range",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Backtest(cmd.Context(), backtestOpts)
	},
}

func init() {
	backtestCmd.Flags().StringVar(&backtestOpts.Store, "store", "", "store key")
	backtestCmd.Flags().StringVar(&backtestOpts.From, "from", "", "range start YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestOpts.To, "to", "", "range end YYYY-MM-DD (default yesterday)")
	_ = backtestCmd.MarkFlagRequired("store")
	_ = backtestCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(backtestCmd)
}
