package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/cache"
	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

var _ ports.TransactionExporter = (*Client)(nil)

// Config selects the spreadsheet and the sheet transactions are mirrored to.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsFile is a service account JSON key. Empty falls back to
	// application default credentials.
	CredentialsFile string
}

const (
	rowCacheSize = 10000
	rowCacheTTL  = 15 * time.Minute
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	// rows maps transaction id to its 1-based sheet row. Entries expire so
	// manual edits to the sheet are picked up eventually.
	rows *cache.LRU[int64, int]
}

// New creates a Sheets client. Extra options are appended after the
// credential options, so tests can point the client at a fake endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}

	base := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		base = append(base, goption.WithCredentialsJSON(credentialsJSON))
	}

	svc, err := gsheet.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheet)
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		rows:          cache.New[int64, int](rowCacheSize, rowCacheTTL),
	}, nil
}

func (c *Client) idColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// Upsert overwrites the row holding tx.ID, or writes below the last used
// row. An empty sheet gets the header first.
func (c *Client) Upsert(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := [][]any{toAny(ports.Row(tx))}
	row, cached := c.rows.Get(tx.ID)
	if !cached {
		ids, err := c.idColumn(ctx)
		if err != nil {
			return "", err
		}
		row = rowOf(ids, tx.ID)
		if row == 0 {
			row = len(ids) + 1
			if row == 1 {
				values = append([][]any{toAny(ports.Header)}, values...)
			}
		}
	}
	last := row + len(values) - 1
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheet, row, last)

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		c.rows.Delete(tx.ID)
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	c.rows.Set(tx.ID, last)
	return fmt.Sprintf("%s!A%d:F%d", c.sheet, last, last), nil
}

func (c *Client) Remove(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, cached := c.rows.Get(id)
	if !cached {
		ids, err := c.idColumn(ctx)
		if err != nil {
			return err
		}
		if row = rowOf(ids, id); row == 0 {
			return nil
		}
	}
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheet, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.rows.Delete(id)
	return nil
}

// rowOf returns the 1-based row whose first cell is id, or 0.
func rowOf(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
