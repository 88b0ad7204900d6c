package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"donors/internal/cache"
	"donors/internal/core"
	"donors/internal/storage"

	"github.com/google/uuid"
)

const defaultCampaignStatus = "active"

type CampaignService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
	newID   func() string
	// Campaigns are never modified after creation, so lookups by name are
	// cached without invalidation.
	byName *cache.LRUCache[core.Campaign]
}

func NewCampaignService(storage *storage.SQLiteRepository) *CampaignService {
	return &CampaignService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		byName:  cache.NewLRUCache[core.Campaign](256, 10*time.Minute),
	}
}

type CreateCampaignParams struct {
	Name        string
	Goal        core.Money
	StartDate   string
	EndDate     string
	Description string
	Status      string
}

// CreateCampaign registers a named campaign. Names are unique and matched exactly.
func (s *CampaignService) CreateCampaign(ctx context.Context, p CreateCampaignParams) (core.Campaign, error) {
	c := core.Campaign{
		ID:          s.newID(),
		Name:        p.Name,
		Goal:        p.Goal,
		StartDate:   strings.TrimSpace(p.StartDate),
		EndDate:     strings.TrimSpace(p.EndDate),
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   s.now(),
	}
	if c.Status == "" {
		c.Status = defaultCampaignStatus
	}
	if err := c.Validate(); err != nil {
		return core.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	if err := s.storage.CreateCampaign(ctx, c); err != nil {
		return core.Campaign{}, fmt.Errorf("create campaign %q: %w", c.Name, err)
	}
	s.byName.Set(c.Name, c)

	slog.InfoContext(ctx, "Campaign created",
		"campaign", c.Name,
		"goal_cents", c.Goal.Cents,
		"start_date", c.StartDate,
		"end_date", c.EndDate)
	return c, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, name string) (core.Campaign, error) {
	if c, ok := s.byName.Get(name); ok {
		return c, nil
	}
	c, err := s.storage.Campaign(ctx, name)
	if err != nil {
		return core.Campaign{}, err
	}
	s.byName.Set(name, c)
	return c, nil
}

// ListCampaigns returns campaigns with the latest start date first.
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]core.Campaign, error) {
	return s.storage.ListCampaigns(ctx)
}
