package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/commands"
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <booking-id> <new-time>",
	Short: "Move a booking to a new time slot",
	Long: `Move a booking to a new time slot. Only allowed while the booking is
pending or confirmed; the time is RFC 3339 or "2006-01-02 15:04" local time.

Examples:
  servana booking reschedule 6b9f... "2026-09-12 14:00"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RescheduleBookingHandler == nil {
			fmt.Println("Rescheduling requires a configured backend or local mode.")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		newTime, err := parseTimeArg(args[1])
		if err != nil {
			return err
		}

		result, err := app.RescheduleBookingHandler.Handle(cmd.Context(), commands.RescheduleBookingCommand{
			BookingID: bookingID,
			NewTime:   newTime,
		})
		if err != nil {
			return fmt.Errorf("failed to reschedule booking: %w", err)
		}

		fmt.Printf("Booking moved from %s to %s.\n",
			result.PreviousScheduledAt.Format("Mon Jan 2 15:04"),
			result.Booking.ScheduledAt().Format("Mon Jan 2 15:04"),
		)
		return nil
	},
}

func parseTimeArg(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"2006-01-02 15:04\"", value)
}
