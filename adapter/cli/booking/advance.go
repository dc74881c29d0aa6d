package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	appPkg "github.com/felixgeelhaar/servana/internal/app"
	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
)

var advanceCmd = &cobra.Command{
	Use:   "advance <booking-id>",
	Short: "Advance a booking to its next status (local mode only)",
	Long: `Record the next canonical status on a booking and push the change
through the live channel, simulating the marketplace backend. Only available
in local mode.

Examples:
  servana booking advance 6b9f...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		local := localService(app)
		if local == nil {
			fmt.Println("Advancing bookings is only available in local mode (SERVANA_LOCAL_MODE=true).")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		_, status, err := local.AdvanceStatus(cmd.Context(), bookingID)
		if err != nil {
			return fmt.Errorf("failed to advance booking: %w", err)
		}

		// Feed trackers through the in-process live channel.
		if adapter := app.Container.LocalLiveAdapter; adapter != nil {
			adapter.Publish(live.StatusChangeEvent{
				BookingID:  bookingID,
				NewStatus:  status,
				OccurredAt: time.Now(),
			})
		}

		fmt.Printf("Booking advanced to %s.\n", domain.StepLabel(status))
		return nil
	},
}

// localService returns the repository-backed booking service when running in
// local mode, nil otherwise.
func localService(app *cli.App) *appPkg.LocalBookingService {
	if app == nil || app.Container == nil {
		return nil
	}
	local, ok := app.Container.RemoteService.(*appPkg.LocalBookingService)
	if !ok {
		return nil
	}
	return local
}
