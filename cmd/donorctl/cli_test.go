package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"donors/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun[T any](t *testing.T, db string, args ...string) T {
	t.Helper()
	out, err := run(t, db, args...)
	require.NoError(t, err, out)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestDonorAndDonationCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "donors.db")

	donor := mustRun[core.Donor](t, db, "donor", "add", "--name", "Ada", "--email", "ada@example.org", "--assigned-to", "sam")
	assert.Equal(t, core.Bronze, donor.Tier)

	gala := mustRun[core.Campaign](t, db, "campaign", "create", "Gala", "--goal", "2000", "--start", "2025-01-01")
	assert.Empty(t, gala.EndDate, "--end is optional")

	d := mustRun[core.Donation](t, db, "donation", "record",
		"--donor", donor.ID, "--amount", "1200.50", "--campaign", "Gala", "--received-at", "2025-02-01")
	assert.Equal(t, core.FromMinorUnits(120_050), d.Amount)

	got := mustRun[core.Donor](t, db, "donor", "get", donor.ID)
	assert.Equal(t, core.Silver, got.Tier)
	byEmail := mustRun[core.Donor](t, db, "donor", "get", "--email", "ada@example.org")
	assert.Equal(t, donor.ID, byEmail.ID)

	listed := mustRun[[]core.Donor](t, db, "donor", "list", "--assigned-to", "sam")
	assert.Len(t, listed, 1)
	assert.Empty(t, mustRun[[]core.Donor](t, db, "donor", "list", "--tier", "gold"))

	receipted := mustRun[core.Donation](t, db, "donation", "receipt", d.ID)
	assert.True(t, receipted.TaxReceiptSent)

	summary := mustRun[core.CampaignSummary](t, db, "report", "campaign", "Gala")
	assert.Equal(t, 60.0, summary.ProgressPct)

	tiers := mustRun[core.TierSummary](t, db, "report", "tiers")
	assert.Equal(t, 1, tiers[core.Silver].Count)

	retention := mustRun[core.RetentionReport](t, db, "report", "retention", "--as-of", "2025-06-30")
	assert.Equal(t, 2025, retention.Year)
	assert.Equal(t, 1, retention.NewDonors)

	assert.Empty(t, mustRun[[]core.MajorGift](t, db, "report", "major-gifts"))
	assert.Len(t, mustRun[[]core.MajorGift](t, db, "report", "major-gifts", "--threshold", "1000"), 1)
}

func TestCommandErrorsMapToExitCodes(t *testing.T) {
	db := filepath.Join(t.TempDir(), "donors.db")
	donor := mustRun[core.Donor](t, db, "donor", "add", "--name", "Ada", "--email", "ada@example.org")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"zero amount", []string{"donation", "record", "--donor", donor.ID, "--amount", "0", "--campaign", "Gala"}, 2},
		{"gateway method reserved", []string{"donation", "record", "--donor", donor.ID, "--amount", "5", "--campaign", "Gala", "--method", "gateway"}, 2},
		{"unknown donor", []string{"donation", "record", "--donor", "ghost", "--amount", "5", "--campaign", "Gala"}, 3},
		{"duplicate email", []string{"donor", "add", "--name", "Ada", "--email", "ada@example.org"}, 4},
		{"missing donation", []string{"donation", "get", "nope"}, 3},
		{"missing flag", []string{"donor", "add", "--name", "Bo"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, db, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 5, exitCode(core.ErrGateway))
	assert.Equal(t, 5, exitCode(core.ErrConfiguration))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestDemo(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "unused.db"), "demo")
	require.NoError(t, err)

	for _, want := range []string{
		"Alice Chen: $2000.00 -> silver",
		"Frank Williams Foundation: $100000.00 -> platinum",
		"Frank Williams Foundation: $100000.00 (platinum)",
		"Acme Corp: $25000.00 (gold)",
		"Raised: $125000.00 / $2000000.00 (6.3%)",
		"Alice Chen: LTV=$2000.00, avg gift=$1000.00",
		"Demo complete",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}
