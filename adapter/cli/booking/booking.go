// Package booking holds the booking command group.
package booking

import (
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:   "booking",
	Short: "Track and manage bookings",
	Long:  `List bookings, inspect their progress timeline, follow live status updates, cancel, reschedule, and review.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(trackCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(reviewCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(advanceCmd)
}
