package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotorgo/pkg/db"
	"rotorgo/pkg/model"
	"rotorgo/pkg/rotator"
)

// setupTestStore creates a test database and store for each test.
func setupTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}

	store := NewSQLiteStore(d)
	cleanup := func() { d.Close() }
	return store, cleanup
}

// Compile-time check that the store can back the controller.
var _ rotator.CommandRecorder = (*SQLiteStore)(nil)

// =============================================================================
// QSOStore Tests
// =============================================================================

func TestQSOStore_SaveAndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	q := &model.QSO{
		Call:        "K1ABC",
		Grid:        "FN42",
		Band:        "20m",
		Mode:        "SSB",
		FreqMHz:     14.25,
		Lat:         42.5,
		Lon:         -71,
		HasPosition: true,
		Time:        time.Date(2024, 3, 15, 14, 32, 0, 0, time.UTC),
		Fields:      map[string]string{"dxcc": "291"},
	}
	inserted, err := s.SaveQSO(ctx, q)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, q.ID)

	// Same contact again is ignored
	dup := *q
	dup.ID = 0
	inserted, err = s.SaveQSO(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetQSO(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "K1ABC", got.Call)
	assert.Equal(t, "FN42", got.Grid)
	assert.True(t, got.HasPosition)
	assert.True(t, q.Time.Equal(got.Time), "time %v != %v", q.Time, got.Time)
	assert.Equal(t, "291", got.Fields["dxcc"])

	missing, err := s.GetQSO(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQSOStore_RecentQSOs(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		seed      int
		limit     int
		wantCalls []string
	}{
		{name: "empty database", seed: 0, limit: 10, wantCalls: nil},
		{name: "newest first", seed: 3, limit: 10, wantCalls: []string{"CALL2", "CALL1", "CALL0"}},
		{name: "limited", seed: 3, limit: 2, wantCalls: []string{"CALL2", "CALL1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cleanup := setupTestStore(t)
			defer cleanup()
			ctx := context.Background()

			var batch []*model.QSO
			for i := 0; i < tt.seed; i++ {
				batch = append(batch, &model.QSO{
					Call: "CALL" + string(rune('0'+i)),
					Band: "40m",
					Mode: "CW",
					Time: base.Add(time.Duration(i) * time.Hour),
				})
			}
			n, err := s.SaveQSOs(ctx, batch)
			require.NoError(t, err)
			assert.Equal(t, tt.seed, n)

			got, err := s.RecentQSOs(ctx, tt.limit)
			require.NoError(t, err)
			var calls []string
			for _, q := range got {
				calls = append(calls, q.Call)
			}
			assert.Equal(t, tt.wantCalls, calls)

			count, err := s.CountQSOs(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.seed, count)
		})
	}
}

func TestQSOStore_SaveQSOs_SkipsDuplicates(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	batch := []*model.QSO{
		{Call: "W1AW", Band: "20m", Mode: "FT8", Time: ts},
		{Call: "W1AW", Band: "20m", Mode: "FT8", Time: ts},
		{Call: "W1AW", Band: "40m", Mode: "FT8", Time: ts},
	}
	n, err := s.SaveQSOs(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// =============================================================================
// CommandStore Tests
// =============================================================================

func TestCommandStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	recs := []*rotator.CommandRecord{
		{ID: "a", Bearing: 45, Source: "compass", IssuedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: "b", Bearing: 90, Source: "globe", IssuedAt: now.Add(-2 * time.Minute)},
		{ID: "c", Bearing: 288, Source: "api", IssuedAt: now.Add(-1 * time.Minute)},
	}
	for _, r := range recs {
		require.NoError(t, s.RecordCommand(ctx, r))
	}

	got, err := s.RecentCommands(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, 288.0, got[0].Bearing)
	assert.Equal(t, "api", got[0].Source)
	assert.True(t, recs[2].IssuedAt.Equal(got[0].IssuedAt))
	assert.Equal(t, "b", got[1].ID)

	n, err := s.PruneCommands(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := s.RecentCommands(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// StateStore Tests
// =============================================================================

func TestStateStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, found := s.GetState(ctx, "adif_mtime")
	assert.False(t, found)

	require.NoError(t, s.SetState(ctx, "adif_mtime", "2024-01-01T00:00:00Z"))
	val, found := s.GetState(ctx, "adif_mtime")
	assert.True(t, found)
	assert.Equal(t, "2024-01-01T00:00:00Z", val)

	require.NoError(t, s.SetState(ctx, "adif_mtime", "changed"))
	val, _ = s.GetState(ctx, "adif_mtime")
	assert.Equal(t, "changed", val)

	require.NoError(t, s.DeleteState(ctx, "adif_mtime"))
	_, found = s.GetState(ctx, "adif_mtime")
	assert.False(t, found)
}
