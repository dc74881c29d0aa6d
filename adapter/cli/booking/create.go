package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
)

var createAmount string

var createCmd = &cobra.Command{
	Use:   "create <service-name> <time>",
	Short: "Create a booking in the local cache (local mode only)",
	Long: `Create a booking directly in the local cache. Only available in local
mode; against the real marketplace, bookings are placed from the mobile app.

Examples:
  servana booking create "Deep Cleaning" "2026-09-12 10:00" --amount 120`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		local := localService(app)
		if local == nil {
			fmt.Println("Creating bookings is only available in local mode (SERVANA_LOCAL_MODE=true).")
			return nil
		}

		scheduledAt, err := parseTimeArg(args[1])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(createAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", createAmount, err)
		}

		booking, err := local.CreateBooking(cmd.Context(), app.CurrentCustomerID, args[0], scheduledAt, amount)
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		fmt.Printf("Booking created: %s\n", booking.ID())
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createAmount, "amount", "0", "total amount")
}
