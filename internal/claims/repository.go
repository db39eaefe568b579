package claims

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Store

	GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetClaimByBookingID(ctx context.Context, bookingID uuid.UUID) (*Claim, error)
	ListClaims(ctx context.Context, userID uuid.UUID, query ClaimListQuery) ([]Claim, int64, error)
	ScanClaims(ctx context.Context, scan ClaimScan) ([]Claim, error)
}

// ClaimScan selects claims for the background jobs. Nil bounds are not
// applied. Results are ordered by id; set After to the last id of a page to
// read the next one.
type ClaimScan struct {
	Statuses       []Status
	WindowOpenBy   *time.Time // claim_window_opens_at <= WindowOpenBy
	DeadlineBefore *time.Time // deadline < DeadlineBefore
	DeadlineFrom   *time.Time // deadline >= DeadlineFrom
	After          uuid.UUID
	Limit          int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// UpsertClaim inserts the claim unless one already exists for the booking.
// The unique booking_id index makes concurrent sweeps safe.
func (r *repository) UpsertClaim(ctx context.Context, claim *Claim) (bool, error) {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoNothing: true,
		}).
		Create(claim)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// TransitionClaimStatus is a compare-and-set on status. Zero rows means the
// claim is gone or someone else moved it first.
func (r *repository) TransitionClaimStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case StatusSubmitted:
		updates["submitted_at"] = at
	case StatusApproved, StatusRejected, StatusExpired:
		updates["resolved_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&Claim{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetClaim(ctx, id); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *repository) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetClaimByBookingID(ctx context.Context, bookingID uuid.UUID) (*Claim, error) {
	return r.first(ctx, "booking_id = ?", bookingID)
}

func (r *repository) first(ctx context.Context, cond string, arg interface{}) (*Claim, error) {
	var claim Claim
	err := r.db.WithContext(ctx).Where(cond, arg).First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repository) ListClaims(ctx context.Context, userID uuid.UUID, query ClaimListQuery) ([]Claim, int64, error) {
	var claims []Claim
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Claim{}).
		Where("user_id = ?", userID)

	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&claims).Error

	return claims, totalCount, err
}

func (r *repository) ScanClaims(ctx context.Context, scan ClaimScan) ([]Claim, error) {
	query := r.db.WithContext(ctx).Where("status IN ?", scan.Statuses)
	if scan.WindowOpenBy != nil {
		query = query.Where("claim_window_opens_at <= ?", scan.WindowOpenBy.UTC())
	}
	if scan.DeadlineBefore != nil {
		query = query.Where("deadline < ?", scan.DeadlineBefore.UTC())
	}
	if scan.DeadlineFrom != nil {
		query = query.Where("deadline >= ?", scan.DeadlineFrom.UTC())
	}
	if scan.After != uuid.Nil {
		query = query.Where("id > ?", scan.After)
	}

	var claims []Claim
	err := query.
		Order("id ASC").
		Limit(scan.Limit).
		Find(&claims).Error
	return claims, err
}
