package booking

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/servana/adapter/cli"
	"github.com/felixgeelhaar/servana/internal/booking/application/commands"
)

var reviewComment string

var reviewCmd = &cobra.Command{
	Use:   "review <booking-id> <rating>",
	Short: "Review a completed booking",
	Long: `Submit a 1-5 rating for a completed booking. Each booking can be
reviewed once.

Examples:
  servana booking review 6b9f... 5 --comment "great work"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SubmitReviewHandler == nil {
			fmt.Println("Reviews require a configured backend or local mode.")
			return nil
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking id %q: %w", args[0], err)
		}

		var rating int
		if _, err := fmt.Sscanf(args[1], "%d", &rating); err != nil {
			return fmt.Errorf("invalid rating %q: must be 1-5", args[1])
		}

		err = app.SubmitReviewHandler.Handle(cmd.Context(), commands.SubmitReviewCommand{
			BookingID: bookingID,
			Rating:    rating,
			Comment:   reviewComment,
		})
		if err != nil {
			return fmt.Errorf("failed to submit review: %w", err)
		}

		fmt.Println("Review submitted. Thank you!")
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewComment, "comment", "m", "", "review comment")
}
