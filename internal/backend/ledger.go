// Package backend builds the ledger writer selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"donors/internal/config"
	"donors/internal/sheets"
	gsheet "donors/internal/sheets/google"
	"donors/internal/sheets/memory"
)

type LedgerType string

const (
	MemoryLedger LedgerType = config.LedgerMemory
	SheetsLedger LedgerType = config.LedgerSheets
)

func (t LedgerType) IsValid() bool {
	switch t {
	case MemoryLedger, SheetsLedger:
		return true
	}
	return false
}

type Config struct {
	Type LedgerType

	// Sheets only
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

func FromAppConfig(cfg *config.Config) Config {
	return Config{
		Type:            LedgerType(cfg.LedgerBackend),
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid ledger backend %q: must be %s or %s", c.Type, MemoryLedger, SheetsLedger)
	}
	if c.Type == SheetsLedger && strings.TrimSpace(c.SpreadsheetID) == "" {
		return fmt.Errorf("sheets ledger requires a spreadsheet id")
	}
	return nil
}

// NewLedger returns the configured ledger. The memory ledger keeps rows
// only for the life of the process.
func NewLedger(ctx context.Context, c Config, logger *slog.Logger) (sheets.LedgerWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Type {
	case SheetsLedger:
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   c.SpreadsheetID,
			SheetName:       c.SheetName,
			CredentialsJSON: c.CredentialsJSON,
			CredentialsFile: c.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("google sheets ledger: %w", err)
		}
		logger.Info("Initialized Google Sheets ledger", "spreadsheet_id", c.SpreadsheetID, "sheet", c.SheetName)
		return client, nil
	default:
		logger.Info("Initialized in-memory ledger; exports are not persisted")
		return memory.New(), nil
	}
}
