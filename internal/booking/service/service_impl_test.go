package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/opsdesk/internal/booking/domain"
	"github.com/smallbiznis/opsdesk/internal/booking/repository"
	contactrepository "github.com/smallbiznis/opsdesk/internal/contact/repository"
	"github.com/smallbiznis/opsdesk/internal/eventbus"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func setupBookingService(t *testing.T, node *snowflake.Node) (domain.Service, *eventbus.Bus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	stmts := []string{
		`CREATE TABLE offerings (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			duration_min INTEGER NOT NULL,
			location TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE availabilities (
			id INTEGER PRIMARY KEY,
			offering_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL
		)`,
		`CREATE TABLE bookings (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			offering_id INTEGER NOT NULL,
			contact_id INTEGER NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE contacts (
			id INTEGER PRIMARY KEY,
			workspace_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	bus := eventbus.New(zap.NewNop())

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		ContactRepo: contactrepository.Provide(),
		Bus:         bus,
	})

	return svc, bus, db
}

func seedContact(t *testing.T, db *gorm.DB, node *snowflake.Node, workspaceID snowflake.ID) snowflake.ID {
	t.Helper()
	id := node.Generate()
	err := db.Exec(
		`INSERT INTO contacts (id, workspace_id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, workspaceID, "Client", "client@example.com", "", time.Now().UTC(),
	).Error
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	return id
}

type captureHandler struct {
	events []eventbus.Payload
}

func (c *captureHandler) handle(ctx context.Context, payload eventbus.Payload) error {
	c.events = append(c.events, payload)
	return nil
}

func drain(bus *eventbus.Bus) {
	for {
		if !bus.DispatchNext(context.Background()) {
			return
		}
	}
}

func TestCreateOfferingWithAvailabilities(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupBookingService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	offering, err := svc.CreateOffering(ctx, domain.CreateOfferingRequest{
		Name:        "Haircut",
		DurationMin: 45,
		Location:    "Main studio",
		Availabilities: []domain.AvailabilityInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
			{DayOfWeek: 3, StartTime: "12:00", EndTime: "20:00"},
		},
	})
	if err != nil {
		t.Fatalf("create offering: %v", err)
	}
	if len(offering.Availabilities) != 2 {
		t.Fatalf("availabilities = %d, want 2", len(offering.Availabilities))
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM availabilities WHERE offering_id = ?`, offering.ID).Scan(&count).Error; err != nil {
		t.Fatalf("count availabilities: %v", err)
	}
	if count != 2 {
		t.Fatalf("availability rows = %d, want 2", count)
	}
}

func TestCreateOfferingRejectsBadAvailability(t *testing.T) {
	node := mustNode(t)
	svc, _, _ := setupBookingService(t, node)

	ctx := workspacectx.WithWorkspaceID(context.Background(), node.Generate())

	cases := []domain.AvailabilityInput{
		{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: 2, StartTime: "25:00", EndTime: "26:00"},
		{DayOfWeek: 2, StartTime: "17:00", EndTime: "09:00"},
	}
	for _, input := range cases {
		_, err := svc.CreateOffering(ctx, domain.CreateOfferingRequest{
			Name:           "Broken",
			DurationMin:    30,
			Availabilities: []domain.AvailabilityInput{input},
		})
		if !errors.Is(err, domain.ErrInvalidAvailability) {
			t.Fatalf("input %+v: err = %v, want ErrInvalidAvailability", input, err)
		}
	}
}

func TestCreateBookingEmitsEvent(t *testing.T) {
	node := mustNode(t)
	svc, bus, db := setupBookingService(t, node)

	capture := &captureHandler{}
	bus.Subscribe(eventbus.BookingCreated, "capture", capture.handle)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	offering, err := svc.CreateOffering(ctx, domain.CreateOfferingRequest{
		Name:        "Massage",
		DurationMin: 60,
	})
	if err != nil {
		t.Fatalf("create offering: %v", err)
	}

	contactID := seedContact(t, db, node, workspaceID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	booking, err := svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
		WorkspaceID: workspaceID,
		OfferingID:  offering.ID.String(),
		ContactID:   contactID.String(),
		StartTime:   start,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if booking.Status != domain.BookingConfirmed {
		t.Fatalf("status = %q, want confirmed", booking.Status)
	}
	if !booking.EndTime.Equal(start.Add(60 * time.Minute)) {
		t.Fatalf("end time = %v, want start + duration", booking.EndTime)
	}

	drain(bus)
	if len(capture.events) != 1 {
		t.Fatalf("events = %d, want 1", len(capture.events))
	}
	payload := capture.events[0]
	if payload["booking_id"] != booking.ID {
		t.Fatalf("payload booking_id = %v, want %v", payload["booking_id"], booking.ID)
	}
	if payload["workspace_id"] != workspaceID {
		t.Fatalf("payload workspace_id = %v, want %v", payload["workspace_id"], workspaceID)
	}
}

func TestCreateBookingUnknownOfferingOrContact(t *testing.T) {
	node := mustNode(t)
	svc, _, db := setupBookingService(t, node)

	workspaceID := node.Generate()
	ctx := workspacectx.WithWorkspaceID(context.Background(), workspaceID)

	offering, err := svc.CreateOffering(ctx, domain.CreateOfferingRequest{
		Name:        "Consultation",
		DurationMin: 30,
	})
	if err != nil {
		t.Fatalf("create offering: %v", err)
	}
	contactID := seedContact(t, db, node, workspaceID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	_, err = svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
		WorkspaceID: workspaceID,
		OfferingID:  node.Generate().String(),
		ContactID:   contactID.String(),
		StartTime:   start,
	})
	if !errors.Is(err, domain.ErrOfferingNotFound) {
		t.Fatalf("err = %v, want ErrOfferingNotFound", err)
	}

	_, err = svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
		WorkspaceID: workspaceID,
		OfferingID:  offering.ID.String(),
		ContactID:   node.Generate().String(),
		StartTime:   start,
	})
	if !errors.Is(err, domain.ErrContactNotFound) {
		t.Fatalf("err = %v, want ErrContactNotFound", err)
	}

	// Offering from another workspace is invisible.
	_, err = svc.CreateBooking(context.Background(), domain.CreateBookingRequest{
		WorkspaceID: node.Generate(),
		OfferingID:  offering.ID.String(),
		ContactID:   contactID.String(),
		StartTime:   start,
	})
	if !errors.Is(err, domain.ErrOfferingNotFound) {
		t.Fatalf("err = %v, want ErrOfferingNotFound for foreign workspace", err)
	}
}
