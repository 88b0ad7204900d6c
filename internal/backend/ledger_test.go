package backend

import (
	"context"
	"testing"

	"donors/internal/config"
	"donors/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	c := FromAppConfig(&config.Config{
		LedgerBackend:            "sheets",
		GoogleSpreadsheetID:      "sheet-1",
		GoogleSheetName:          "Donations",
		GoogleServiceAccountFile: "/secrets/sa.json",
	})
	assert.Equal(t, Config{
		Type:            SheetsLedger,
		SpreadsheetID:   "sheet-1",
		SheetName:       "Donations",
		CredentialsFile: "/secrets/sa.json",
	}, c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryLedger}, ""},
		{"sheets", Config{Type: SheetsLedger, SpreadsheetID: "x"}, ""},
		{"sheets without id", Config{Type: SheetsLedger}, "spreadsheet id"},
		{"unknown", Config{Type: "postgres"}, "invalid ledger backend"},
		{"empty", Config{}, "invalid ledger backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLedger_Memory(t *testing.T) {
	ledger, err := NewLedger(context.Background(), Config{Type: MemoryLedger}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Ledger{}, ledger)
}

func TestNewLedger_Invalid(t *testing.T) {
	_, err := NewLedger(context.Background(), Config{Type: SheetsLedger}, nil)
	assert.Error(t, err)
}
