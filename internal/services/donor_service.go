package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"donors/internal/core"
	"donors/internal/storage"

	"github.com/google/uuid"
)

type DonorService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
	newID   func() string
}

func NewDonorService(storage *storage.SQLiteRepository) *DonorService {
	return &DonorService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// AddDonorParams describes a new donor. A zero Type means individual.
type AddDonorParams struct {
	Name       string
	Email      string
	Phone      string
	Type       core.DonorType
	Notes      string
	AssignedTo string
	Address    string
	TaxID      string
}

// AddDonor creates a bronze donor with no giving history. Emails are unique.
func (s *DonorService) AddDonor(ctx context.Context, p AddDonorParams) (core.Donor, error) {
	now := s.now()
	d := core.Donor{
		ID:         s.newID(),
		Name:       strings.TrimSpace(p.Name),
		Email:      p.Email,
		Phone:      p.Phone,
		Type:       p.Type,
		Tier:       core.Bronze,
		Campaigns:  []string{},
		Notes:      p.Notes,
		AssignedTo: p.AssignedTo,
		Address:    p.Address,
		TaxID:      p.TaxID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if d.Type == "" {
		d.Type = core.Individual
	}
	if err := d.Validate(); err != nil {
		return core.Donor{}, fmt.Errorf("add donor: %w", err)
	}
	if err := s.storage.CreateDonor(ctx, d); err != nil {
		return core.Donor{}, fmt.Errorf("add donor %s: %w", d.Email, err)
	}

	slog.InfoContext(ctx, "Donor added",
		"donor_id", d.ID,
		"type", d.Type,
		"assigned_to", d.AssignedTo)
	return d, nil
}

func (s *DonorService) GetDonor(ctx context.Context, id string) (core.Donor, error) {
	return s.storage.Donor(ctx, id)
}

func (s *DonorService) GetDonorByEmail(ctx context.Context, email string) (core.Donor, error) {
	return s.storage.DonorByEmail(ctx, email)
}

func (s *DonorService) ListDonors(ctx context.Context, f core.DonorFilter) ([]core.Donor, error) {
	if f.Tier != "" && !f.Tier.Valid() {
		return nil, fmt.Errorf("list donors: unknown tier %q: %w", f.Tier, core.ErrInvalidTier)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("list donors: %w", core.ErrInvalidDonorType)
	}
	return s.storage.ListDonors(ctx, f)
}
