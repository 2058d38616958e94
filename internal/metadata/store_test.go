package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, extra map[string]string) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{Extra: extra})
	require.NoError(t, err)
	return s
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "lib-dabcs.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestStore_BundledLibraries(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Equal(t, []string{"numpy", "pandas", "sklearn"}, s.Libraries())

	for _, lib := range s.Libraries() {
		table, err := s.Load(lib)
		require.NoError(t, err, lib)
		assert.NotEmpty(t, table, lib)
		for key, md := range table {
			assert.NotEmpty(t, md.Params, "%s/%s", lib, key)
			assert.NotEmpty(t, md.Version, "%s/%s", lib, key)
			assert.Equal(t, lib, md.Library)
		}
	}
}

func TestStore_SklearnConstructorsKeyedByClass(t *testing.T) {
	s := newTestStore(t, nil)
	table, err := s.Load("sklearn")
	require.NoError(t, err)

	lr := table["LogisticRegression"]
	require.NotNil(t, lr)
	assert.Equal(t, []string{"solver", "multi_class"}, lr.Params)
	// a later row for multi_class carries 1.5; the first version is kept
	assert.Equal(t, "0.22", lr.Version)
	assert.NotContains(t, table, "__init__")
	assert.Contains(t, table, "cross_val_score")
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	a, err := s.Load("pandas")
	require.NoError(t, err)
	b, err := s.Load("pandas")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// fresh store, no cache involved
	c, err := newTestStore(t, nil).Load("pandas")
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestStore_LoadReturnsPrivateCopies(t *testing.T) {
	s := newTestStore(t, nil)
	a, err := s.Load("numpy")
	require.NoError(t, err)
	a["lstsq"].AddParam("mutated")
	delete(a, "load")

	b, err := s.Load("numpy")
	require.NoError(t, err)
	assert.Equal(t, []string{"rcond"}, b["lstsq"].Params)
	assert.Contains(t, b, "load")
}

func TestStore_UnknownLibrary(t *testing.T) {
	_, err := newTestStore(t, nil).Load("torch")
	assert.ErrorIs(t, err, ErrUnknownLibrary)
}

func TestStore_MissingResource(t *testing.T) {
	s := newTestStore(t, map[string]string{"scipy": filepath.Join(t.TempDir(), "missing.csv")})
	_, err := s.Load("scipy")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestStore_ExtraLibraryFromDisk(t *testing.T) {
	p := writeCSV(t, "fqn,version\n\"method:solve(a, b, assume_a='gen')::param:assume_a:str\",1.11.0\n")
	s := newTestStore(t, map[string]string{"scipy": p})
	assert.Contains(t, s.Libraries(), "scipy")

	res, ok := s.Resource("scipy")
	require.True(t, ok)
	assert.False(t, res.Embedded)

	table, err := s.Load("scipy")
	require.NoError(t, err)
	require.Contains(t, table, "solve")
	assert.Equal(t, "scipy", table["solve"].Library)
}

func TestStore_LoadMerged(t *testing.T) {
	p := writeCSV(t, "fqn,version\n\"method:sum(a)::param:axis:int\",9.9\n")
	s := newTestStore(t, map[string]string{"zzlib": p, "broken": filepath.Join(t.TempDir(), "nope.csv")})

	merged, err := s.LoadMerged([]string{"broken", "numpy", "zzlib"})
	assert.ErrorIs(t, err, ErrResourceNotFound)
	require.Contains(t, merged, "lstsq")
	// zzlib comes after numpy, so its entry for sum wins
	assert.Equal(t, []string{"axis"}, merged["sum"].Params)
	assert.Equal(t, "zzlib", merged["sum"].Library)
}

func TestStore_LoadMergedEmpty(t *testing.T) {
	merged, err := newTestStore(t, nil).LoadMerged(nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
}
