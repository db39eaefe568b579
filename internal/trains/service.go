package trains

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autoclaim/pkg/logger"
	"autoclaim/pkg/utcdate"
)

type Service struct {
	repo   Repository
	feed   FeedSource
	logger *logger.Logger
}

func NewService(repo Repository, feed FeedSource, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Service{repo: repo, feed: feed, logger: log}
}

// Refresh pulls the feed and upserts every well-formed record. Malformed
// records are logged and skipped so one bad row does not stall ingestion.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	start := time.Now()

	records, err := s.feed.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	trains := make([]Train, 0, len(records))
	for _, rec := range records {
		t, err := FromFeedRecord(rec)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping feed record",
				slog.String("train_number", rec.TrainNumber),
				slog.String("service_date", rec.ServiceDate),
				slog.String("error", err.Error()),
			)
			continue
		}
		trains = append(trains, t)
	}

	if err := s.repo.UpsertTrains(ctx, trains); err != nil {
		return 0, fmt.Errorf("upsert trains: %w", err)
	}

	s.logger.LogFeedRefreshed(ctx, len(trains), time.Since(start))
	return len(trains), nil
}

// FromFeedRecord converts a wire record into a stored run, canonicalizing the
// train number and deriving the trip id and delay.
func FromFeedRecord(rec FeedRecord) (Train, error) {
	serviceDate, err := time.Parse(utcdate.LayoutISO, rec.ServiceDate)
	if err != nil {
		return Train{}, fmt.Errorf("invalid service date %q: %w", rec.ServiceDate, err)
	}

	number, err := Normalize(rec.TrainNumber, Region(rec.Region))
	if err != nil {
		return Train{}, err
	}

	if rec.ScheduledArrival.Before(rec.ScheduledDeparture) {
		return Train{}, fmt.Errorf("train %s arrives before it departs", number)
	}

	t := Train{
		TripID:             TripID(number, serviceDate),
		ServiceDate:        serviceDate,
		TrainNumber:        number,
		Region:             rec.Region,
		OriginCode:         rec.OriginCode,
		DestinationCode:    rec.DestinationCode,
		ScheduledDeparture: rec.ScheduledDeparture.UTC(),
		ScheduledArrival:   rec.ScheduledArrival.UTC(),
	}
	if rec.ActualDeparture != nil {
		dep := rec.ActualDeparture.UTC()
		t.ActualDeparture = &dep
	}
	if rec.ActualArrival != nil {
		arr := rec.ActualArrival.UTC()
		t.ActualArrival = &arr
		t.DelayMinutes = DelayMinutes(t.ScheduledArrival, arr)
	}
	return t, nil
}
