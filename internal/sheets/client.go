// Package sheets reads and extends the assignment spreadsheet through the
// Google Sheets API v4.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client implements engine.SheetClient for one spreadsheet.
type Client struct {
	srv           *sheets.Service
	spreadsheetID string
}

var _ engine.SheetClient = (*Client)(nil)

// New creates the Sheets service. Pass option.WithHTTPClient with an
// authorized client (see gauth).
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSheetsClient, err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// GetRows returns the formatted values of rangeSpec. Numbers and booleans
// are rendered with their default text form.
func (c *Client) GetRows(ctx context.Context, rangeSpec string) (engine.RawTable, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSheetRead, err)
	}

	rows := make(engine.RawTable, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}

	slog.Debug(config.MsgRowsFetched,
		config.LogKeyComponent, config.CompSheets,
		config.LogKeyRange, rangeSpec,
		config.LogKeyRows, len(rows))
	return rows, nil
}

// AppendRow adds cells as a new row after the last row of the date column.
// Values are parsed as if typed by a user, so dates stay dates.
func (c *Client) AppendRow(ctx context.Context, sheetName string, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, v := range cells {
		values[i] = v
	}

	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheetName+config.SheetAppendSuffix,
		&sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption(config.ValueInputUserEntered).
		InsertDataOption(config.InsertDataRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSheetAppend, err)
	}
	return nil
}
