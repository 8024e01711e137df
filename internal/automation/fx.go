package automation

import (
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"go.uber.org/fx"
)

// Register wires the fixed handler set. Called once at startup, before the
// bus dispatcher starts; the subscription order here is the dispatch order.
func Register(bus *eventbus.Bus, handlers *Handlers, evaluator *Evaluator) {
	bus.Subscribe(eventbus.NewContact, "send_welcome_message", handlers.SendWelcomeMessage)
	bus.Subscribe(eventbus.BookingCreated, "send_booking_confirmation", handlers.SendBookingConfirmation)
	bus.Subscribe(eventbus.InventoryLow, "raise_low_stock_alert", handlers.RaiseLowStockAlert)
	bus.Subscribe(eventbus.FormSubmitted, "evaluate_rules", evaluator.HandleFormSubmitted)
}

var Module = fx.Module("automation",
	fx.Provide(NewHandlers),
	fx.Provide(NewEvaluator),
	fx.Invoke(Register),
)
