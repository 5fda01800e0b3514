package sheets_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"github.com/tartampluch/go-taskdigest/internal/sheets"
	"google.golang.org/api/option"
)

func newClient(t *testing.T, h http.HandlerFunc) *sheets.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := sheets.New(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestGetRows(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Grafik!A:Z", r.URL.Path)

		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		_, _ = io.WriteString(w, `{
			"range": "Grafik!A1:Z3",
			"majorDimension": "ROWS",
			"values": [
				["Data", "Ann", "Łukasz"],
				["2025-06-25", "Kasa", 5],
				["2025-06-26"]
			]
		}`)
	})

	rows, err := c.GetRows(context.Background(), "Grafik"+config.SheetRangeSuffix)
	require.NoError(t, err)

	want := engine.RawTable{
		{"Data", "Ann", "Łukasz"},
		{"2025-06-25", "Kasa", "5"},
		{"2025-06-26"},
	}
	assert.Equal(t, want, rows)
}

func TestGetRows_EmptySheet(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		_, _ = io.WriteString(w, `{"range": "Grafik!A1:Z1000", "majorDimension": "ROWS"}`)
	})

	rows, err := c.GetRows(context.Background(), "Grafik!A:Z")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetRows_Error(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": {"code": 404, "message": "Requested entity was not found."}}`)
	})

	_, err := c.GetRows(context.Background(), "Grafik!A:Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSheetRead)
}

func TestAppendRow(t *testing.T) {
	var got struct {
		Values [][]string `json:"values"`
	}
	called := false

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/values/Grafik!A:A:append"), r.URL.Path)
		assert.Equal(t, config.ValueInputUserEntered, r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, config.InsertDataRows, r.URL.Query().Get("insertDataOption"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		_, _ = io.WriteString(w, `{"spreadsheetId": "sheet-1", "tableRange": "Grafik!A1:A3"}`)
	})

	require.NoError(t, c.AppendRow(context.Background(), "Grafik", []string{"2025-06-26"}))
	assert.True(t, called)
	assert.Equal(t, [][]string{{"2025-06-26"}}, got.Values)
}
