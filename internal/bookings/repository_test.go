package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"autoclaim/internal/shared/utils/response"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("gorm open error: %v", err)
	}
	return gdb, mock
}

func TestRepositoryCreateBooking(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	b := &Booking{
		UserID:              uuid.New(),
		PNR:                 "ABC123",
		TicketControlNumber: "IV123456789",
		TrainNumber:         "9007",
		JourneyDate:         time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		PassengerName:       "Mr John Smith",
		Origin:              "London St Pancras",
		Destination:         "Paris Gare du Nord",
		TicketPrice:         100,
		TicketCurrency:      "EUR",
	}
	if err := repo.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.ID != id {
		t.Fatalf("id = %s, want %s", b.ID, id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryCreateBookingDuplicate(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectQuery(`INSERT INTO "bookings"`).WillReturnError(gorm.ErrDuplicatedKey)

	err := repo.CreateBooking(context.Background(), &Booking{UserID: uuid.New(), PNR: "ABC123"})
	if !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("err = %v, want ErrDuplicateBooking", err)
	}
}

func TestRepositoryGetBookingByIDNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetBookingByID(context.Background(), id); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestRepositoryFindBookingsAwaitingEvaluation(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	asOf := time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "user_id", "pnr", "train_number", "journey_date"}).
		AddRow(id.String(), uuid.New().String(), "ABC123", "9007", time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE evaluated_at IS NULL AND journey_date <= \$1 ORDER BY id ASC LIMIT`).
		WillReturnRows(rows)

	got, err := repo.FindBookingsAwaitingEvaluation(context.Background(), asOf, uuid.Nil, 50)
	if err != nil {
		t.Fatalf("FindBookingsAwaitingEvaluation: %v", err)
	}
	if len(got) != 1 || got[0].ID != id || got[0].PNR != "ABC123" {
		t.Fatalf("unexpected bookings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryFindBookingsAwaitingEvaluationNextPage(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	asOf := time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC)
	cursor := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE evaluated_at IS NULL AND journey_date <= \$1 AND id > \$2 ORDER BY id ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.FindBookingsAwaitingEvaluation(context.Background(), asOf, cursor, 50)
	if err != nil {
		t.Fatalf("FindBookingsAwaitingEvaluation: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unexpected bookings: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryLinkTrain(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectExec(`UPDATE "bookings" SET .*"train_id"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.LinkTrain(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("LinkTrain: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositorySetFinalDelayMissingBooking(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	mock.ExpectExec(`UPDATE "bookings" SET .*"final_delay_minutes"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetFinalDelay(context.Background(), uuid.New(), 90, time.Now())
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestRepositoryGetUserBookingsPaginates(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewRepository(gdb)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings" WHERE user_id = \$1 AND pnr = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE user_id = \$1 AND pnr = \$2 ORDER BY journey_date DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pnr"}).AddRow(uuid.New().String(), "ABC123"))

	got, total, err := repo.GetUserBookings(context.Background(), userID, BookingListQuery{Page: 2, Limit: 5, PNR: "ABC123"})
	if err != nil {
		t.Fatalf("GetUserBookings: %v", err)
	}
	if total != 12 || len(got) != 1 {
		t.Fatalf("total = %d, len = %d", total, len(got))
	}
	if page := response.NewPage(total, 2, 5); page.TotalPages != 3 {
		t.Fatalf("pages = %d, want 3", page.TotalPages)
	}
}
