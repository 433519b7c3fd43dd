package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLoadsEmbeddedCatalog(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	families, err := m.Families(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, families)
	require.True(t, sort.SliceIsSorted(families, func(i, j int) bool {
		return families[i].ID < families[j].ID
	}))

	f, err := m.Family(context.Background(), "acrysof_toric")
	require.NoError(t, err)
	require.Equal(t, "Alcon", f.Brand)
	require.InDelta(t, 118.7, f.AConstant, 1e-9)
	require.NotNil(t, f.Haigis)
	require.Len(t, f.Toric, 7)
}

func TestMemoryUnknownFamily(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	_, err = m.Family(context.Background(), "nope")
	require.ErrorIs(t, err, ErrFamilyNotFound)

	_, err = m.ToricPowers(context.Background(), "nope")
	require.ErrorIs(t, err, ErrFamilyNotFound)
}

func TestMemoryToricPowersAscendingCornealPlane(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	opts, err := m.ToricPowers(context.Background(), "acrysof_toric")
	require.NoError(t, err)
	require.Len(t, opts, 7)
	require.InDelta(t, 1.03, opts[0].Cyl, 1e-9)
	require.InDelta(t, 4.11, opts[len(opts)-1].Cyl, 1e-9)
	for i := 1; i < len(opts); i++ {
		require.Greater(t, opts[i].Cyl, opts[i-1].Cyl)
		require.Equal(t, "acrysof_toric", opts[i].FamilyID)
	}
}

func TestMemoryToricFamiliesExcludesSphericalOnly(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	families, err := m.ToricFamilies(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, families)
	for _, f := range families {
		require.True(t, f.ToricCapable(), f.ID)
		require.NotEqual(t, "clareon_mono", f.ID)
	}
}

func TestSuggestFamiliesFollowsDecision(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)
	ctx := context.Background()

	all, err := SuggestFamilies(ctx, m, false)
	require.NoError(t, err)
	toricOnly, err := SuggestFamilies(ctx, m, true)
	require.NoError(t, err)

	ids := func(fs []Family) []string {
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}
	require.Contains(t, ids(all), "clareon_mono")
	require.NotContains(t, ids(toricOnly), "clareon_mono")
	require.Greater(t, len(all), len(toricOnly))
}

func TestMemorySphericalOnlyFamilyIsEmptyNotError(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	opts, err := m.ToricPowers(context.Background(), "clareon_mono")
	require.NoError(t, err)
	require.Empty(t, opts)
}

func TestMemoryConstants(t *testing.T) {
	m, err := NewMemory()
	require.NoError(t, err)

	c, err := m.Constants(context.Background(), "tecnis_toric")
	require.NoError(t, err)
	require.InDelta(t, 119.3, c.AConstant, 1e-9)
	require.InDelta(t, -1.302, c.HaigisA0, 1e-9)
}

func openSeededDB(t *testing.T) *DB {
	t.Helper()
	m, err := NewMemory()
	require.NoError(t, err)
	families, err := m.Families(context.Background())
	require.NoError(t, err)

	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Seed(context.Background(), families))
	return db
}

func TestDBMatchesMemory(t *testing.T) {
	db := openSeededDB(t)
	m, err := NewMemory()
	require.NoError(t, err)

	ctx := context.Background()
	want, err := m.Families(ctx)
	require.NoError(t, err)
	got, err := db.Families(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	wantOpts, err := m.ToricPowers(ctx, "envista_toric")
	require.NoError(t, err)
	gotOpts, err := db.ToricPowers(ctx, "envista_toric")
	require.NoError(t, err)
	require.Equal(t, wantOpts, gotOpts)

	wantConsts, err := m.Constants(ctx, "acrysof_toric")
	require.NoError(t, err)
	gotConsts, err := db.Constants(ctx, "acrysof_toric")
	require.NoError(t, err)
	require.Equal(t, wantConsts, gotConsts)
}

func TestDBToricFamiliesMatchesMemory(t *testing.T) {
	db := openSeededDB(t)
	m, err := NewMemory()
	require.NoError(t, err)

	ctx := context.Background()
	want, err := m.ToricFamilies(ctx)
	require.NoError(t, err)
	got, err := db.ToricFamilies(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
	for _, f := range got {
		require.NotEmpty(t, f.Toric, f.ID)
	}
}

func TestDBUnknownFamily(t *testing.T) {
	db := openSeededDB(t)

	_, err := db.Family(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrFamilyNotFound))
}

func TestDBSeedIsIdempotent(t *testing.T) {
	db := openSeededDB(t)
	m, err := NewMemory()
	require.NoError(t, err)
	families, err := m.Families(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.Seed(context.Background(), families))
	got, err := db.Families(context.Background())
	require.NoError(t, err)
	require.Equal(t, families, got)
}
