package booking

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/queries"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your bookings",
	Long: `List all bookings for the configured customer, newest first.

Examples:
  servana booking list`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListBookingsHandler == nil {
			fmt.Println("Booking listing requires a configured backend or local mode.")
			return nil
		}

		bookings, err := app.ListBookingsHandler.Handle(cmd.Context(), queries.ListBookingsQuery{
			CustomerID: app.CurrentCustomerID,
		})
		if err != nil {
			return fmt.Errorf("failed to list bookings: %w", err)
		}

		if len(bookings) == 0 {
			fmt.Println("No bookings found.")
			return nil
		}

		fmt.Printf("Bookings (%d):\n", len(bookings))
		fmt.Println(strings.Repeat("-", 70))
		for _, b := range bookings {
			cacheNote := ""
			if b.FromCache {
				cacheNote = " [cached]"
			}
			fmt.Printf("%-20s %s%s\n", b.StatusLabel, b.ServiceName, cacheNote)
			fmt.Printf("    ID: %s | %s | %s %s\n",
				b.ID,
				b.ScheduledAt.Format("Mon Jan 2 15:04"),
				b.TotalAmount.StringFixed(2),
				b.PaymentStatus,
			)
		}
		return nil
	},
}
