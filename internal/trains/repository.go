package trains

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoclaim/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTrainNotFound = errors.New("train not found")

type Repository interface {
	FindTrainByTripID(ctx context.Context, tripID string) ([]Train, error)
	GetTrainByID(ctx context.Context, id uuid.UUID) (*Train, error)
	UpsertTrains(ctx context.Context, trains []Train) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindTrainByTripID(ctx context.Context, tripID string) ([]Train, error) {
	var trains []Train
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("service_date DESC").
		Find(&trains).Error
	if err != nil {
		return nil, err
	}
	return trains, nil
}

func (r *repository) GetTrainByID(ctx context.Context, id uuid.UUID) (*Train, error) {
	var train Train
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&train).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrainNotFound
		}
		return nil, err
	}
	return &train, nil
}

// UpsertTrains inserts new runs and refreshes the timing columns of runs the
// feed has already produced.
func (r *repository) UpsertTrains(ctx context.Context, trains []Train) error {
	if len(trains) == 0 {
		return nil
	}
	for i := range trains {
		if trains[i].ID == uuid.Nil {
			trains[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "trip_id"}, {Name: "service_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scheduled_departure", "scheduled_arrival",
				"actual_departure", "actual_arrival",
				"delay_minutes", "origin_code", "destination_code", "updated_at",
			}),
		}).
		CreateInBatches(trains, 200).Error
}

// cachedRepository serves trip lookups from Redis. The sweep asks for the same
// trip ids every few minutes while the feed only changes them on refresh.
type cachedRepository struct {
	Repository
	cache cache.Service
	ttl   time.Duration
}

// NewCachedRepository wraps a repository with a read-through Redis cache.
func NewCachedRepository(inner Repository, c cache.Service, ttl time.Duration) Repository {
	if c == nil {
		return inner
	}
	return &cachedRepository{Repository: inner, cache: c, ttl: ttl}
}

func tripKey(tripID string) string {
	return cache.Key("trains", "trip", tripID)
}

func (r *cachedRepository) FindTrainByTripID(ctx context.Context, tripID string) ([]Train, error) {
	var trains []Train
	err := r.cache.GetOrSet(ctx, tripKey(tripID), r.ttl, func() (interface{}, error) {
		return r.Repository.FindTrainByTripID(ctx, tripID)
	}, &trains)
	if err != nil {
		return nil, fmt.Errorf("cached trip lookup: %w", err)
	}
	return trains, nil
}

func (r *cachedRepository) UpsertTrains(ctx context.Context, trains []Train) error {
	if err := r.Repository.UpsertTrains(ctx, trains); err != nil {
		return err
	}
	keys := make([]string, 0, len(trains))
	seen := make(map[string]bool, len(trains))
	for _, t := range trains {
		if !seen[t.TripID] {
			seen[t.TripID] = true
			keys = append(keys, tripKey(t.TripID))
		}
	}
	return r.cache.Delete(ctx, keys...)
}
