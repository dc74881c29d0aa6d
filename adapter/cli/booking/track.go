package booking

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/viewmodel"
	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

var trackCmd = &cobra.Command{
	Use:   "track <booking-id>",
	Short: "Follow a booking's live status updates",
	Long: `Attach to a booking's live update channel and re-render the progress
timeline on every accepted status change. Press Ctrl+C to stop.

Examples:
  servana booking track 6b9f...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Registry == nil {
			fmt.Println("Booking tracking requires a configured backend or local mode.")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		handle, err := app.Registry.Acquire(cmd.Context(), bookingID)
		if err != nil {
			return fmt.Errorf("failed to attach to booking: %w", err)
		}
		defer handle.Release()

		cancelObserve := handle.ViewModel().Observe(func(s viewmodel.Snapshot) {
			renderSnapshot(s)
		})
		defer cancelObserve()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		select {
		case <-stop:
		case <-cmd.Context().Done():
		}

		fmt.Println("\nStopped tracking.")
		return nil
	},
}

func renderSnapshot(s viewmodel.Snapshot) {
	b := s.Booking
	fmt.Printf("\n%s  --  %s\n", b.ServiceName(), domain.StepLabel(b.Status()))
	fmt.Println(strings.Repeat("-", 70))
	for _, step := range s.Timeline.Steps {
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
			timestamp = step.Timestamp.Format("  Jan 2 15:04:05")
		}
		fmt.Printf("  %s %-22s%s%s\n", marker, step.Label, timestamp, pointer)
	}
	if s.Timeline.Cancelled != nil {
		fmt.Printf("  [!] %-22s  %s\n",
			s.Timeline.Cancelled.Label,
			s.Timeline.Cancelled.CancelledAt.Format("Jan 2 15:04:05"),
		)
	}
	if s.Stale {
		fmt.Println("  (live updates paused, reconnecting...)")
	}
}
