package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donors/internal/core"
	"donors/internal/storage"

	"golang.org/x/sync/errgroup"
)

// ReportService computes read-only aggregates over donors and donations.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// LifetimeValue summarises a donor's giving. A donor without donations gets
// a zero report with no tier and no dates.
func (s *ReportService) LifetimeValue(ctx context.Context, donorID string) (core.LifetimeValue, error) {
	donor, err := s.storage.Donor(ctx, donorID)
	if err != nil {
		return core.LifetimeValue{}, fmt.Errorf("lifetime value: %w", err)
	}
	stats, err := s.storage.DonorStats(ctx, donorID)
	if err != nil {
		return core.LifetimeValue{}, fmt.Errorf("lifetime value: %w", err)
	}

	if stats.Count == 0 {
		return core.LifetimeValue{
			DonorID:   donor.ID,
			Name:      donor.Name,
			Campaigns: []string{},
		}, nil
	}

	total := donor.TotalGiven.Major()
	return core.LifetimeValue{
		DonorID:       donor.ID,
		Name:          donor.Name,
		Tier:          donor.Tier,
		LTV:           core.RoundTo(total, 2),
		DonationCount: stats.Count,
		AverageGift:   core.RoundTo(total/float64(stats.Count), 2),
		FirstDonation: stats.First,
		LastDonation:  stats.Last,
		Campaigns:     donor.Campaigns,
	}, nil
}

// MajorGifts lists donors whose total is at least threshold, largest first.
func (s *ReportService) MajorGifts(ctx context.Context, threshold core.Money) ([]core.MajorGift, error) {
	donors, err := s.storage.MajorGiftDonors(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("major gifts: %w", err)
	}
	out := make([]core.MajorGift, 0, len(donors))
	for _, d := range donors {
		out = append(out, core.MajorGift{
			ID:           d.ID,
			Name:         d.Name,
			Email:        d.Email,
			Type:         d.Type,
			Tier:         d.Tier,
			TotalGiven:   d.TotalGiven.Major(),
			LastDonation: d.LastDonationAt,
		})
	}
	return out, nil
}

// CampaignSummary aggregates donations whose campaign equals name exactly.
// The goal comes from the campaign record and is zero when there is none.
func (s *ReportService) CampaignSummary(ctx context.Context, name string) (core.CampaignSummary, error) {
	totals, err := s.storage.CampaignTotals(ctx, name)
	if err != nil {
		return core.CampaignSummary{}, fmt.Errorf("campaign summary: %w", err)
	}

	var goal core.Money
	campaign, err := s.storage.Campaign(ctx, name)
	switch {
	case err == nil:
		goal = campaign.Goal
	case errors.Is(err, core.ErrNotFound):
	default:
		return core.CampaignSummary{}, fmt.Errorf("campaign summary: %w", err)
	}

	raised := totals.Total.Major()
	summary := core.CampaignSummary{
		Campaign:        name,
		Goal:            goal.Major(),
		TotalRaised:     core.RoundTo(raised, 2),
		DonorCount:      totals.Donations,
		LargestGift:     core.RoundTo(totals.Largest.Major(), 2),
		RecurringDonors: totals.Recurring,
	}
	if totals.Donations > 0 {
		summary.AverageGift = core.RoundTo(raised/float64(totals.Donations), 2)
	}
	if goal.Cents > 0 {
		summary.ProgressPct = core.RoundTo(raised/goal.Major()*100, 1)
	}
	return summary, nil
}

// Retention compares donors who gave in now's calendar year with those who
// gave in the year before. Years are taken from received_at in UTC.
func (s *ReportService) Retention(ctx context.Context, now time.Time) (core.RetentionReport, error) {
	year := now.UTC().Year()

	var current, prior []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.storage.DonorIDsForYear(gctx, year)
		return err
	})
	g.Go(func() error {
		var err error
		prior, err = s.storage.DonorIDsForYear(gctx, year-1)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.RetentionReport{}, fmt.Errorf("retention report: %w", err)
	}

	inCurrent := make(map[string]struct{}, len(current))
	for _, id := range current {
		inCurrent[id] = struct{}{}
	}
	report := core.RetentionReport{Year: year}
	for _, id := range prior {
		if _, ok := inCurrent[id]; ok {
			report.RetainedDonors++
		} else {
			report.LapsedDonors++
		}
	}
	report.NewDonors = len(current) - report.RetainedDonors
	if len(prior) > 0 {
		report.RetentionRate = core.RoundTo(float64(report.RetainedDonors)/float64(len(prior)), 3)
	}
	return report, nil
}

// TierSummary reports donor count and total giving per populated tier.
func (s *ReportService) TierSummary(ctx context.Context) (core.TierSummary, error) {
	rows, err := s.storage.TierTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("tier summary: %w", err)
	}
	out := make(core.TierSummary, len(rows))
	for _, r := range rows {
		out[r.Tier] = core.TierStats{
			Count:      r.Donors,
			TotalGiven: core.RoundTo(r.Total.Major(), 2),
		}
	}
	return out, nil
}
