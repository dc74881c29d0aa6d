package booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show <booking-id>",
	Short: "Show one booking with its progress timeline",
	Long: `Show a booking's current status, provider, payment state, and the
derived progress timeline.

Examples:
  servana booking show 6b9f...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetBookingHandler == nil {
			fmt.Println("Booking details require a configured backend or local mode.")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		b, err := app.GetBookingHandler.Handle(cmd.Context(), queries.GetBookingQuery{BookingID: bookingID})
		if err != nil {
			return fmt.Errorf("failed to load booking: %w", err)
		}

		printBooking(b)
		return nil
	},
}

func printBooking(b *queries.BookingDTO) {
	fmt.Printf("%s\n", b.ServiceName)
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Status:    %s\n", b.StatusLabel)
	fmt.Printf("Scheduled: %s\n", b.ScheduledAt.Format("Mon Jan 2 15:04"))
	fmt.Printf("Amount:    %s (%s)\n", b.TotalAmount.StringFixed(2), b.PaymentStatus)
	if b.Provider != nil {
		fmt.Printf("Provider:  %s (%s)\n", b.Provider.Name, b.Provider.Phone)
	}
	if b.FromCache {
		fmt.Println("Note:      showing cached state, backend unreachable")
	}

	fmt.Println()
	printTimeline(&b.Timeline)

	actions := availableActions(b)
	if len(actions) > 0 {
		fmt.Printf("\nActions:   %s\n", strings.Join(actions, ", "))
	}
}

func printTimeline(tl *queries.TimelineDTO) {
	fmt.Println("Timeline:")
	for _, step := range tl.Steps {
		marker := "[ ]"
		if step.Completed {
			marker = "[x]"
		}
		pointer := ""
		if step.Current {
			pointer = "  <- current"
		}
		timestamp := ""
		if step.Timestamp != nil {
			timestamp = step.Timestamp.Format("  Jan 2 15:04")
		}
		fmt.Printf("  %s %-22s%s%s\n", marker, step.Label, timestamp, pointer)
	}
	if tl.Cancelled != nil {
		fmt.Printf("  [!] %-22s  %s\n", tl.Cancelled.Label, tl.Cancelled.CancelledAt.Format("Jan 2 15:04"))
	}
}

func availableActions(b *queries.BookingDTO) []string {
	var actions []string
	if b.IsCancellable {
		actions = append(actions, "cancel")
	}
	if b.IsReschedulable {
		actions = append(actions, "reschedule")
	}
	if b.IsReviewable {
		actions = append(actions, "review")
	}
	return actions
}
