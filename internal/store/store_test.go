package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"google.golang.org/api/googleapi"
)

func entry(date, summary string) engine.SummaryEntry {
	return engine.SummaryEntry{Date: date, DayOfWeek: "środa", Summary: summary}
}

func newTempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "nested", config.DefaultSummaryFileName))
}

// -----------------------------------------------------------------------------
// FileStore
// -----------------------------------------------------------------------------

func TestFileStore_AbsentFileIsEmpty(t *testing.T) {
	s := newTempStore(t)

	snap, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.NotNil(t, snap.Entries)
	assert.Equal(t, config.StoreVersionAbsent, snap.Version)
}

func TestFileStore_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)

	want := []engine.SummaryEntry{entry("2025-06-25", "Ann: kasa"), entry("2025-06-26", "Łukasz: magazyn")}
	require.NoError(t, s.SaveAll(ctx, want, config.StoreVersionAbsent))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, snap.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.NotEqual(t, config.StoreVersionAbsent, snap.Version)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())
}

func TestFileStore_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	require.NoError(t, s.SaveAll(ctx, []engine.SummaryEntry{entry("2025-06-25", "a")}, config.StoreVersionAbsent))

	first, err := s.LoadAll(ctx)
	require.NoError(t, err)
	second, err := s.LoadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveAll(ctx, append(first.Entries, entry("2025-06-26", "b")), first.Version))

	err = s.SaveAll(ctx, append(second.Entries, entry("2025-06-26", "c")), second.Version)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrConflict)

	// Creating over an existing file is a conflict too.
	err = s.SaveAll(ctx, nil, config.StoreVersionAbsent)
	assert.ErrorIs(t, err, engine.ErrConflict)
}

func TestFileStore_CorruptContentStartsOver(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Object", `{"date":"2025-06-25"}`},
		{"Garbage", `not json`},
		{"Null", `null`},
		{"Blank", "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTempStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o600))

			snap, err := s.LoadAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, snap.Entries)

			require.NoError(t, s.SaveAll(ctx, append(snap.Entries, entry("2025-06-25", "x")), snap.Version))
			data, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.JSONEq(t, `[{"date":"2025-06-25","dayOfWeek":"środa","summary":"x"}]`, string(data))
		})
	}
}

func TestFileStore_LegacyEntriesDecode(t *testing.T) {
	s := newTempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	legacy := `[{"date":"2025-06-24","dayOfWeek":"wtorek","summary":"old"}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o600))

	snap, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "old", snap.Entries[0].Summary)
	assert.Empty(t, snap.Entries[0].RunID)
}

func TestFileStore_ConcurrentAppendsAreAllKept(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summaries.json")

	// Fewer writers than attempts, so every writer eventually wins.
	const writers = config.StoreMaxAttempts - 1
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := NewFileStore(path)
			errs <- engine.AppendSummary(ctx, s, entry(fmt.Sprintf("2025-06-%02d", i+1), "s"))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	snap, err := NewFileStore(path).LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Entries, writers)
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTempStore(t)
	_, err := s.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.SaveAll(ctx, nil, config.StoreVersionAbsent), context.Canceled)
}

// -----------------------------------------------------------------------------
// GCSStore helpers
// -----------------------------------------------------------------------------

func TestConditionsFor(t *testing.T) {
	conds, err := conditionsFor(config.StoreVersionAbsent)
	require.NoError(t, err)
	assert.Equal(t, storage.Conditions{DoesNotExist: true}, conds)

	conds, err = conditionsFor("1718000000123456")
	require.NoError(t, err)
	assert.Equal(t, storage.Conditions{GenerationMatch: 1718000000123456}, conds)

	for _, bad := range []string{"", "abc", "0", "-4"} {
		_, err := conditionsFor(bad)
		assert.Error(t, err, bad)
	}
}

func TestClassifyWriteErr(t *testing.T) {
	precondition := &googleapi.Error{Code: http.StatusPreconditionFailed, Message: "conditionNotMet"}
	assert.ErrorIs(t, classifyWriteErr(precondition), engine.ErrConflict)

	other := &googleapi.Error{Code: http.StatusForbidden}
	err := classifyWriteErr(other)
	assert.False(t, errors.Is(err, engine.ErrConflict))
	assert.Contains(t, err.Error(), config.ErrStoreWrite)
}
