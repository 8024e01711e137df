package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOffering(ctx context.Context, db *gorm.DB, offering *Offering) error
	FindOfferingByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*Offering, error)
	ListOfferings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Offering, error)
	CountOfferings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (int64, error)
	CountOfferingsWithAvailability(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (int64, error)

	InsertBooking(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindBookingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	ListBookings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*Booking, error)
}
