package audit

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lake-health/lakecalc-ai/internal/recommend"
)

func sampleResult() *recommend.ExamResult {
	return &recommend.ExamResult{
		Patient: "anon-001",
		OD: &recommend.Recommendation{
			ID:       "rec-1",
			Eye:      "OD",
			Decision: recommend.Toric,
			PostBias: 2.98,
		},
	}
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	path, err := w.Write(Record{
		Patient:  "anon-001",
		Policy:   "lifetime_atr",
		FamilyID: "acrysof_toric",
		Result:   sampleResult(),
	})
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasSuffix(path, ".json"))

	records, err := w.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "lifetime_atr", records[0].Policy)
	require.Equal(t, recommend.Toric, records[0].Result.OD.Decision)
	require.NotEmpty(t, records[0].ID)
	require.False(t, records[0].CreatedAt.IsZero())
}

func TestWriterListOrdersByCreation(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		_, err := w.Write(Record{ID: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	records, err := w.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "a", records[0].ID)
	require.Equal(t, "c", records[2].ID)
}

func TestNoopWriter(t *testing.T) {
	w, err := NewWriter("")
	require.NoError(t, err)

	path, err := w.Write(Record{Policy: "balanced"})
	require.NoError(t, err)
	require.Empty(t, path)

	records, err := w.List()
	require.NoError(t, err)
	require.Nil(t, records)
}
