package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	inventorydomain "github.com/smallbiznis/opsdesk/internal/inventory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers are the fixed automation reactions wired to the bus at startup.
// Every handler re-loads its entities by id and treats a missing entity as
// a silent no-op: the triggering record may have been removed between emit
// and dispatch.
type Handlers struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	contacts      contactdomain.Repository
	conversations conversationdomain.Repository
	bookings      bookingdomain.Repository
	inventory     inventorydomain.Repository
	alerts        alertdomain.Service
}

type HandlersParams struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Contacts      contactdomain.Repository
	Conversations conversationdomain.Repository
	Bookings      bookingdomain.Repository
	Inventory     inventorydomain.Repository
	Alerts        alertdomain.Service
}

func NewHandlers(p HandlersParams) *Handlers {
	return &Handlers{
		db:            p.DB,
		log:           p.Log.Named("automation"),
		genID:         p.GenID,
		contacts:      p.Contacts,
		conversations: p.Conversations,
		bookings:      p.Bookings,
		inventory:     p.Inventory,
		alerts:        p.Alerts,
	}
}

// SendWelcomeMessage reacts to NEW_CONTACT. A conversation is created only
// when none exists yet; the welcome message itself is appended on every
// dispatch, so re-emission produces a duplicate message.
func (h *Handlers) SendWelcomeMessage(ctx context.Context, payload eventbus.Payload) error {
	contactID, ok := payload.ID("contact_id")
	if !ok {
		return fmt.Errorf("payload missing contact_id")
	}
	workspaceID, ok := payload.ID("workspace_id")
	if !ok {
		return fmt.Errorf("payload missing workspace_id")
	}

	contact, err := h.contacts.FindByID(ctx, h.db, workspaceID, contactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return nil
	}

	conversation, err := h.conversations.FindByContact(ctx, h.db, contactID)
	if err != nil {
		return err
	}
	if conversation == nil {
		now := time.Now().UTC()
		conversation = &conversationdomain.Conversation{
			ID:            h.genID.Generate(),
			WorkspaceID:   workspaceID,
			ContactID:     contactID,
			Status:        conversationdomain.StatusActive,
			LastMessageAt: now,
			CreatedAt:     now,
		}
		if err := h.conversations.Insert(ctx, h.db, conversation); err != nil {
			return err
		}
	}

	messageType := conversationdomain.TypeEmail
	if contact.Phone != "" {
		messageType = conversationdomain.TypeSMS
	}

	message := conversationdomain.Message{
		ID:             h.genID.Generate(),
		ConversationID: conversation.ID,
		Direction:      conversationdomain.DirectionOutbound,
		Type:           messageType,
		Content:        fmt.Sprintf("Hi %s, thanks for reaching out! How can we help you today?", contact.Name),
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.conversations.InsertMessage(ctx, h.db, &message); err != nil {
		return err
	}

	h.log.Info("sent welcome message",
		zap.String("contact_id", contactID.String()),
		zap.String("conversation_id", conversation.ID.String()),
	)
	return nil
}

// SendBookingConfirmation reacts to BOOKING_CREATED. The confirmation is
// appended only to an existing conversation; re-emission duplicates it.
func (h *Handlers) SendBookingConfirmation(ctx context.Context, payload eventbus.Payload) error {
	bookingID, ok := payload.ID("booking_id")
	if !ok {
		return fmt.Errorf("payload missing booking_id")
	}

	booking, err := h.bookings.FindBookingByID(ctx, h.db, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return nil
	}

	offering, err := h.bookings.FindOfferingByID(ctx, h.db, booking.WorkspaceID, booking.OfferingID)
	if err != nil {
		return err
	}
	offeringName := "your appointment"
	if offering != nil {
		offeringName = offering.Name
	}

	conversation, err := h.conversations.FindByContact(ctx, h.db, booking.ContactID)
	if err != nil {
		return err
	}
	if conversation != nil {
		message := conversationdomain.Message{
			ID:             h.genID.Generate(),
			ConversationID: conversation.ID,
			Direction:      conversationdomain.DirectionOutbound,
			Type:           conversationdomain.TypeSystem,
			Content: fmt.Sprintf("Booking confirmed for %s at %s.",
				offeringName, booking.StartTime.Format(time.RFC1123)),
			CreatedAt: time.Now().UTC(),
		}
		if err := h.conversations.InsertMessage(ctx, h.db, &message); err != nil {
			return err
		}
		h.log.Info("sent booking confirmation",
			zap.String("booking_id", bookingID.String()),
			zap.String("conversation_id", conversation.ID.String()),
		)
	}

	// Post-booking form scheduling is not built yet; record the intent.
	h.log.Info("scheduled post-booking forms",
		zap.String("booking_id", bookingID.String()),
	)
	return nil
}

// RaiseLowStockAlert reacts to INVENTORY_LOW with an append-only alert row.
// Alerts are not deduplicated: every qualifying consumption raises one.
func (h *Handlers) RaiseLowStockAlert(ctx context.Context, payload eventbus.Payload) error {
	itemID, ok := payload.ID("item_id")
	if !ok {
		return fmt.Errorf("payload missing item_id")
	}

	item, err := h.inventory.FindItem(ctx, h.db, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	_, err = h.alerts.Create(ctx, alertdomain.CreateRequest{
		WorkspaceID: item.WorkspaceID,
		Type:        alertdomain.AlertInventoryLow,
		Message:     fmt.Sprintf("Inventory item %q is low (%d remaining).", item.Name, item.Quantity),
	})
	if err != nil {
		return err
	}

	h.log.Info("created low stock alert",
		zap.String("item_id", itemID.String()),
		zap.Int("quantity", item.Quantity),
	)
	return nil
}
