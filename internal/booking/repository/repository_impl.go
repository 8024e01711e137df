package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOffering(ctx context.Context, db *gorm.DB, offering *domain.Offering) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO offerings (id, workspace_id, name, duration_min, location, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			offering.ID,
			offering.WorkspaceID,
			offering.Name,
			offering.DurationMin,
			offering.Location,
			offering.CreatedAt,
		).Error
		if err != nil {
			return err
		}
		for _, availability := range offering.Availabilities {
			err = tx.Exec(
				`INSERT INTO availabilities (id, offering_id, day_of_week, start_time, end_time)
				 VALUES (?, ?, ?, ?, ?)`,
				availability.ID,
				availability.OfferingID,
				availability.DayOfWeek,
				availability.StartTime,
				availability.EndTime,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindOfferingByID(ctx context.Context, db *gorm.DB, workspaceID, id snowflake.ID) (*domain.Offering, error) {
	var offering domain.Offering
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, name, duration_min, location, created_at
		 FROM offerings WHERE workspace_id = ? AND id = ?`,
		workspaceID,
		id,
	).Scan(&offering).Error
	if err != nil {
		return nil, err
	}
	if offering.ID == 0 {
		return nil, nil
	}
	return &offering, nil
}

func (r *repo) ListOfferings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Offering, error) {
	var offerings []*domain.Offering
	err := db.WithContext(ctx).
		Model(&domain.Offering{}).
		Preload("Availabilities").
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc, id asc").
		Find(&offerings).Error
	if err != nil {
		return nil, err
	}
	return offerings, nil
}

func (r *repo) CountOfferings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Offering{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	return count, err
}

func (r *repo) CountOfferingsWithAvailability(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(DISTINCT o.id)
		 FROM offerings o JOIN availabilities a ON a.offering_id = o.id
		 WHERE o.workspace_id = ?`,
		workspaceID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) InsertBooking(ctx context.Context, db *gorm.DB, booking *domain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (id, workspace_id, offering_id, contact_id, start_time, end_time, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.WorkspaceID,
		booking.OfferingID,
		booking.ContactID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.CreatedAt,
	).Error
}

func (r *repo) FindBookingByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Booking, error) {
	var booking domain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT id, workspace_id, offering_id, contact_id, start_time, end_time, status, created_at
		 FROM bookings WHERE id = ?`,
		id,
	).Scan(&booking).Error
	if err != nil {
		return nil, err
	}
	if booking.ID == 0 {
		return nil, nil
	}
	return &booking, nil
}

func (r *repo) ListBookings(ctx context.Context, db *gorm.DB, workspaceID snowflake.ID) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	err := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("workspace_id = ?", workspaceID).
		Order("start_time desc, id desc").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
