package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ContactDirectory lets claims and notifications read account contact
// details without depending on the auth service.
type ContactDirectory struct {
	repo Repository
}

func NewContactDirectory(repo Repository) *ContactDirectory {
	return &ContactDirectory{repo: repo}
}

func (d *ContactDirectory) GetUserByID(ctx context.Context, userID uuid.UUID) (email, firstName, lastName string, err error) {
	user, err := d.repo.GetUserByID(ctx, userID.String())
	if err != nil {
		return "", "", "", fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return user.Email, user.FirstName, user.LastName, nil
}

// ClaimEmailsEnabled reports the account's email preference. The claim
// form still carries the address when this is false.
func (d *ContactDirectory) ClaimEmailsEnabled(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := d.repo.GetUserByID(ctx, userID.String())
	if err != nil {
		return false, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return user.ClaimEmails, nil
}
