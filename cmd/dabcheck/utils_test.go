package dabcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dabcheck/dabcheck/internal/metadata"
	"github.com/dabcheck/dabcheck/internal/types"
)

func mustLoad(t *testing.T, lib string) metadata.Table {
	t.Helper()
	s, err := metadata.NewStore(metadata.StoreConfig{})
	require.NoError(t, err)
	table, err := s.Load(lib)
	require.NoError(t, err)
	return table
}

func TestPickHelpers(t *testing.T) {
	local, global := "local", "global"
	empty := ""
	assert.Equal(t, "cli", pickString("cli", &local, &global))
	assert.Equal(t, "local", pickString("", &local, &global))
	assert.Equal(t, "global", pickString("", &empty, &global))
	assert.Equal(t, "", pickString("", nil, nil))

	n := 4
	assert.Equal(t, 2, pickInt(2, &n))
	assert.Equal(t, 4, pickInt(0, nil, &n))

	f := false
	assert.True(t, pickBool(true, &f))
	assert.False(t, pickBool(false, &f))
	assert.False(t, pickBool(false))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"numpy", "pandas"}, splitList(" numpy, ,pandas,"))
	assert.Nil(t, splitList(""))
}

func TestSeverities(t *testing.T) {
	got, err := severities(map[string]string{"sklearn": "HIGH", "numpy": "low"})
	require.NoError(t, err)
	assert.Equal(t, map[string]types.Severity{"sklearn": types.SevHigh, "numpy": types.SevLow}, got)

	_, err = severities(map[string]string{"numpy": "critical"})
	assert.Error(t, err)
}

func TestSortedRows(t *testing.T) {
	table := metadata.Table{
		"b": metadata.NewMethodMetadata("x", "1.10", "lib"),
		"a": metadata.NewMethodMetadata("y", "1.2", "lib"),
		"c": metadata.NewMethodMetadata("z", "dev", "lib"),
		"d": metadata.NewMethodMetadata("w", "1.2.0", "lib"),
	}
	var keys []string
	for _, r := range sortedRows(table) {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, keys)
}
