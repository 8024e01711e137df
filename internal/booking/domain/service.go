package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type AvailabilityInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

type CreateOfferingRequest struct {
	Name           string
	DurationMin    int
	Location       string
	Availabilities []AvailabilityInput
}

type CreateBookingRequest struct {
	WorkspaceID snowflake.ID
	OfferingID  string
	ContactID   string
	StartTime   time.Time
}

type Service interface {
	CreateOffering(ctx context.Context, req CreateOfferingRequest) (Offering, error)
	ListOfferings(ctx context.Context) ([]Offering, error)

	// CreateBooking is reachable from the public booking page; the
	// workspace comes from the URL, not from an authenticated session.
	CreateBooking(ctx context.Context, req CreateBookingRequest) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
}

var (
	ErrInvalidWorkspace    = errors.New("invalid_workspace")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDuration     = errors.New("invalid_duration")
	ErrInvalidAvailability = errors.New("invalid_availability")
	ErrInvalidStartTime    = errors.New("invalid_start_time")
	ErrInvalidID           = errors.New("invalid_id")
	ErrOfferingNotFound    = errors.New("offering_not_found")
	ErrContactNotFound     = errors.New("contact_not_found")
	ErrNotFound            = errors.New("not_found")
)
