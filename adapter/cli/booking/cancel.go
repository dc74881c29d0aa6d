package booking

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/commands"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking",
	Long: `Cancel a booking. Allowed at any point before completion; the backend
confirms the cancellation before local state changes.

Examples:
  servana booking cancel 6b9f...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CancelBookingHandler == nil {
			fmt.Println("Cancelling requires a configured backend or local mode.")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		result, err := app.CancelBookingHandler.Handle(cmd.Context(), commands.CancelBookingCommand{
			BookingID: bookingID,
		})
		if err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		fmt.Printf("Booking cancelled at %s.\n", result.CancelledAt.Format("Mon Jan 2 15:04"))
		return nil
	},
}
