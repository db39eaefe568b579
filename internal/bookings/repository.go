package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("booking already exists for this reference")
)

type Repository interface {
	// Core booking operations
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID, pnr string) (bool, error)

	// User booking operations
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Sweep operations
	FindBookingsAwaitingEvaluation(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]Booking, error)
	LinkTrain(ctx context.Context, bookingID, trainID uuid.UUID) error
	SetFinalDelay(ctx context.Context, bookingID uuid.UUID, delayMinutes int, completedAt time.Time) error
	MarkEvaluated(ctx context.Context, bookingID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateBooking
	}
	return err
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ExistsForUser(ctx context.Context, userID uuid.UUID, pnr string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ? AND pnr = ?", userID, pnr).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ?", userID)

	baseQuery = r.applyFilters(baseQuery, query)

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("journey_date DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// FindBookingsAwaitingEvaluation returns one page of bookings whose journey
// day has started and which the sweep has not finished with. Pages are
// ordered by id; pass the last id seen as after to fetch the next one.
func (r *repository) FindBookingsAwaitingEvaluation(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]Booking, error) {
	var bookings []Booking
	query := r.db.WithContext(ctx).
		Where("evaluated_at IS NULL").
		Where("journey_date <= ?", asOf.UTC())
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	err := query.
		Order("id ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) LinkTrain(ctx context.Context, bookingID, trainID uuid.UUID) error {
	return r.update(ctx, bookingID, map[string]interface{}{
		"train_id":   trainID,
		"updated_at": time.Now().UTC(),
	})
}

func (r *repository) SetFinalDelay(ctx context.Context, bookingID uuid.UUID, delayMinutes int, completedAt time.Time) error {
	return r.update(ctx, bookingID, map[string]interface{}{
		"final_delay_minutes": delayMinutes,
		"completed_at":        completedAt.UTC(),
		"updated_at":          time.Now().UTC(),
	})
}

func (r *repository) MarkEvaluated(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	return r.update(ctx, bookingID, map[string]interface{}{
		"evaluated_at": at.UTC(),
		"updated_at":   time.Now().UTC(),
	})
}

func (r *repository) update(ctx context.Context, bookingID uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", bookingID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// applyFilters applies query filters to the GORM query
func (r *repository) applyFilters(query *gorm.DB, filters BookingListQuery) *gorm.DB {
	if filters.PNR != "" {
		query = query.Where("pnr = ?", filters.PNR)
	}

	if filters.TrainNumber != "" {
		query = query.Where("train_number = ?", filters.TrainNumber)
	}

	// Filter by journey date range
	if filters.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", filters.DateFrom); err == nil {
			query = query.Where("journey_date >= ?", dateFrom)
		}
	}

	if filters.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", filters.DateTo); err == nil {
			query = query.Where("journey_date <= ?", dateTo)
		}
	}

	return query
}
