package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"donors/internal/core"
	ports "donors/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultCacheValidDuration = 5 * time.Minute

// Ledger columns, A through H.
var ledgerHeader = []any{"Donation ID", "Received", "Donor ID", "Campaign", "Amount", "Type", "Method", "Settlement"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without year, e.g. "Donations"; each donation goes to
	// "<year of receipt> <base>".
	sheetBase string

	// appendMu serialises row allocation across appends.
	appendMu           sync.Mutex
	mu                 sync.Mutex
	cacheValidDuration time.Duration
	caches             map[string]*sheetIndex
}

// sheetIndex caches the donation ids of one tab and its row count.
type sheetIndex struct {
	rows      map[string]int
	rowCount  int
	expiresAt time.Time
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// Options configure a Client. Credentials come from CredentialsJSON,
// CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS, in that order.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets ledger client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Donations"
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(spreadsheetID),
		sheetBase:          sheetBase,
		cacheValidDuration: defaultCacheValidDuration,
		caches:             map[string]*sheetIndex{},
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(opts.CredentialsJSON))
	if len(credentialsJSON) == 0 {
		path := strings.TrimSpace(opts.CredentialsFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		var err error
		if credentialsJSON, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// SheetName returns the tab a donation received in year is written to.
func (c *Client) SheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// AppendDonation writes the donation as one row of its year's tab. A
// donation id already present in column A is not written again.
func (c *Client) AppendDonation(ctx context.Context, d core.Donation) (string, error) {
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	sheet := c.SheetName(d.ReceivedAt.UTC().Year())
	idx, err := c.index(ctx, sheet)
	if err != nil {
		return "", err
	}
	if row, ok := idx.rows[d.ID]; ok {
		slog.DebugContext(ctx, "Donation already in ledger", "donation_id", d.ID, "row", row)
		return rowRef(sheet, row), nil
	}

	nextRow := idx.rowCount + 1
	if idx.rowCount == 0 {
		if err := c.writeRow(ctx, sheet, 1, ledgerHeader); err != nil {
			return "", err
		}
		nextRow = 2
	}
	if err := c.writeRow(ctx, sheet, nextRow, donationRow(d)); err != nil {
		c.invalidate(sheet)
		return "", err
	}

	c.mu.Lock()
	if cached, ok := c.caches[sheet]; ok {
		cached.rows[d.ID] = nextRow
		cached.rowCount = nextRow
	}
	c.mu.Unlock()

	return rowRef(sheet, nextRow), nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

// index returns the cached id index of sheet, reloading it once expired.
func (c *Client) index(ctx context.Context, sheet string) (*sheetIndex, error) {
	c.mu.Lock()
	cached, ok := c.caches[sheet]
	if ok && time.Now().Before(cached.expiresAt) {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ids from %s: %w", sheet, err)
	}
	rows, count := parseIDColumn(resp.Values)

	fresh := &sheetIndex{
		rows:      rows,
		rowCount:  count,
		expiresAt: time.Now().Add(c.cacheValidDuration),
	}
	c.mu.Lock()
	c.caches[sheet] = fresh
	c.mu.Unlock()
	return fresh, nil
}

func (c *Client) invalidate(sheet string) {
	c.mu.Lock()
	delete(c.caches, sheet)
	c.mu.Unlock()
}

func donationRow(d core.Donation) []any {
	return []any{
		d.ID,
		d.ReceivedAt.UTC().Format("2006-01-02 15:04:05"),
		d.DonorID,
		d.Campaign,
		d.Amount.Major(),
		string(d.Type),
		string(d.Method),
		d.SettlementRef,
	}
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
