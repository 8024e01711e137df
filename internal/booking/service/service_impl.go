package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/booking/domain"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ContactRepo contactdomain.Repository
	Bus         *eventbus.Bus
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	contactRepo contactdomain.Repository
	bus         *eventbus.Bus
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("booking.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		contactRepo: p.ContactRepo,
		bus:         p.Bus,
	}
}

func (s *Service) CreateOffering(ctx context.Context, req domain.CreateOfferingRequest) (domain.Offering, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return domain.Offering{}, domain.ErrInvalidWorkspace
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Offering{}, domain.ErrInvalidName
	}
	if req.DurationMin <= 0 {
		return domain.Offering{}, domain.ErrInvalidDuration
	}

	offering := domain.Offering{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Name:        name,
		DurationMin: req.DurationMin,
		Location:    strings.TrimSpace(req.Location),
		CreatedAt:   time.Now().UTC(),
	}

	for _, input := range req.Availabilities {
		if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
			return domain.Offering{}, domain.ErrInvalidAvailability
		}
		if !validClock(input.StartTime) || !validClock(input.EndTime) || input.StartTime >= input.EndTime {
			return domain.Offering{}, domain.ErrInvalidAvailability
		}
		offering.Availabilities = append(offering.Availabilities, domain.Availability{
			ID:         s.genID.Generate(),
			OfferingID: offering.ID,
			DayOfWeek:  input.DayOfWeek,
			StartTime:  input.StartTime,
			EndTime:    input.EndTime,
		})
	}

	if err := s.repo.InsertOffering(ctx, s.db, &offering); err != nil {
		return domain.Offering{}, err
	}
	return offering, nil
}

func (s *Service) ListOfferings(ctx context.Context) ([]domain.Offering, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	items, err := s.repo.ListOfferings(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	offerings := make([]domain.Offering, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		offerings = append(offerings, *item)
	}
	return offerings, nil
}

func (s *Service) CreateBooking(ctx context.Context, req domain.CreateBookingRequest) (domain.Booking, error) {
	if req.WorkspaceID == 0 {
		return domain.Booking{}, domain.ErrInvalidWorkspace
	}
	if req.StartTime.IsZero() {
		return domain.Booking{}, domain.ErrInvalidStartTime
	}

	offeringID, err := parseID(req.OfferingID)
	if err != nil {
		return domain.Booking{}, err
	}
	contactID, err := parseID(req.ContactID)
	if err != nil {
		return domain.Booking{}, err
	}

	offering, err := s.repo.FindOfferingByID(ctx, s.db, req.WorkspaceID, offeringID)
	if err != nil {
		return domain.Booking{}, err
	}
	if offering == nil {
		return domain.Booking{}, domain.ErrOfferingNotFound
	}

	contact, err := s.contactRepo.FindByID(ctx, s.db, req.WorkspaceID, contactID)
	if err != nil {
		return domain.Booking{}, err
	}
	if contact == nil {
		return domain.Booking{}, domain.ErrContactNotFound
	}

	start := req.StartTime.UTC()
	booking := domain.Booking{
		ID:          s.genID.Generate(),
		WorkspaceID: req.WorkspaceID,
		OfferingID:  offering.ID,
		ContactID:   contact.ID,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(offering.DurationMin) * time.Minute),
		Status:      domain.BookingConfirmed,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.InsertBooking(ctx, s.db, &booking); err != nil {
		return domain.Booking{}, err
	}

	s.bus.Emit(eventbus.BookingCreated, eventbus.Payload{
		"booking_id":   booking.ID,
		"workspace_id": booking.WorkspaceID,
	})

	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok || workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	items, err := s.repo.ListBookings(ctx, s.db, workspaceID)
	if err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bookings = append(bookings, *item)
	}
	return bookings, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// validClock accepts HH:MM wall-clock values.
func validClock(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}
