package cli

import (
	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/app"
	bookingCommands "github.com/felixgeelhaar/servana/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/servana/internal/booking/application/queries"
	"github.com/felixgeelhaar/servana/internal/booking/application/viewmodel"
)

// App holds the CLI application dependencies.
type App struct {
	// Booking command handlers
	CancelBookingHandler     *bookingCommands.CancelBookingHandler
	RescheduleBookingHandler *bookingCommands.RescheduleBookingHandler
	SubmitReviewHandler      *bookingCommands.SubmitReviewHandler

	// Booking query handlers
	GetBookingHandler   *bookingQueries.GetBookingHandler
	GetTimelineHandler  *bookingQueries.GetTimelineHandler
	ListBookingsHandler *bookingQueries.ListBookingsHandler

	// View models
	Registry *viewmodel.Registry

	// Container exposes local-mode helpers (simulated lifecycle, cache).
	Container *app.Container

	// Current customer (configured per environment)
	CurrentCustomerID uuid.UUID
}

// NewApp creates a new CLI application from the container.
func NewApp(c *app.Container) *App {
	customerID, err := uuid.Parse(c.Config.CustomerID)
	if err != nil {
		customerID = uuid.Nil
	}
	return &App{
		CancelBookingHandler:     c.CancelBookingHandler,
		RescheduleBookingHandler: c.RescheduleBookingHandler,
		SubmitReviewHandler:      c.SubmitReviewHandler,
		GetBookingHandler:        c.GetBookingHandler,
		GetTimelineHandler:       c.GetTimelineHandler,
		ListBookingsHandler:      c.ListBookingsHandler,
		Registry:                 c.Registry,
		Container:                c,
		CurrentCustomerID:        customerID,
	}
}

// app is the global CLI application instance
var cliApp *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	cliApp = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return cliApp
}
