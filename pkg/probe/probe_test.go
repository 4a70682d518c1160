package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{Name: "Database", Check: func(context.Context) error { return nil }, Critical: true},
		{Name: "Rotator", Check: func(context.Context) error { return errors.New("not connected") }},
	}

	results := Run(context.Background(), probes)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.EqualError(t, results[1].Error, "not connected")
}

func TestRun_Timeout(t *testing.T) {
	slow := Probe{
		Name:    "Slow",
		Timeout: 20 * time.Millisecond,
		Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	results := Run(context.Background(), []Probe{slow})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.DeadlineExceeded)
	assert.Less(t, results[0].Duration, time.Second)
}

func TestAnalyzeResults(t *testing.T) {
	dbErr := errors.New("disk I/O error")

	tests := []struct {
		name    string
		results []Result
		wantErr error
	}{
		{
			name: "All pass",
			results: []Result{
				{Probe: Probe{Name: "Database", Critical: true}},
				{Probe: Probe{Name: "Rotator"}},
			},
		},
		{
			name: "Non-critical failure",
			results: []Result{
				{Probe: Probe{Name: "Rotator"}, Error: errors.New("not connected")},
			},
		},
		{
			name: "Critical failure",
			results: []Result{
				{Probe: Probe{Name: "Database", Critical: true}, Error: dbErr},
				{Probe: Probe{Name: "Rotator"}, Error: errors.New("not connected")},
			},
			wantErr: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "Database")
			assert.NotContains(t, err.Error(), "Rotator")
		})
	}
}
