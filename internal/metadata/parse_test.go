package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFQN(t *testing.T) {
	tests := []struct {
		name  string
		fqn   string
		key   string
		param string
		ok    bool
	}{
		{
			name:  "function",
			fqn:   "module:numpy::method:sum(a, axis=None)::param:dtype:dtype",
			key:   "sum",
			param: "dtype",
			ok:    true,
		},
		{
			name:  "constructor keyed by class with bases",
			fqn:   "class:KMeans(_BaseKMeans)::method:__init__(self, n_init='auto')::param:n_init:str",
			key:   "KMeans",
			param: "n_init",
			ok:    true,
		},
		{
			name:  "constructor class ends at colon",
			fqn:   "method:__init__(self)::param:x::class:Thing:int",
			key:   "Thing",
			param: "x",
			ok:    true,
		},
		{
			name:  "constructor class runs to end of string",
			fqn:   "param:x:int method:__init__(self) class:Tail",
			key:   "Tail",
			param: "x",
			ok:    true,
		},
		{
			name:  "param at end of string",
			fqn:   "method:f(x)::param:x",
			key:   "f",
			param: "x",
			ok:    true,
		},
		{
			name: "constructor without class",
			fqn:  "method:__init__(self)::param:x:int",
			ok:   false,
		},
		{
			name: "no method marker",
			fqn:  "class:Thing::param:x:int",
			ok:   false,
		},
		{
			name: "method without open paren",
			fqn:  "method:f::param:x:int",
			ok:   false,
		},
		{
			name: "no param",
			fqn:  "method:f(x)",
			ok:   false,
		},
		{
			name: "empty param",
			fqn:  "method:f(x)::param::int",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, param, ok := ParseFQN(tt.fqn)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.key, key)
				assert.Equal(t, tt.param, param)
			}
		})
	}
}

func TestParse_AccumulatesParamsFirstVersionWins(t *testing.T) {
	csv := `fqn,version
"method:f(x, y)::param:x:int",1.0
"method:f(x, y)::param:y:int",2.0
"method:f(x, y)::param:x:int",3.0
"class:C(Base)::method:__init__(self, a)::param:a:int",0.5
`
	table, err := Parse(strings.NewReader(csv), "lib", nil)
	require.NoError(t, err)
	require.Len(t, table, 2)

	f := table["f"]
	require.NotNil(t, f)
	assert.Equal(t, []string{"x", "y"}, f.Params)
	assert.Equal(t, "1.0", f.Version)
	assert.Equal(t, "lib", f.Library)

	c := table["C"]
	require.NotNil(t, c)
	assert.Equal(t, []string{"a"}, c.Params)
	assert.Equal(t, "0.5", c.Version)
}

func TestParse_HeaderCaseAndExtraColumns(t *testing.T) {
	csv := "\ufeffkind, FQN ,notes,Version\nfunction,\"method:g(z)::param:z:int\",n/a,1.2\n"
	table, err := Parse(strings.NewReader(csv), "lib", nil)
	require.NoError(t, err)
	require.Contains(t, table, "g")
	assert.Equal(t, "1.2", table["g"].Version)
}

func TestParse_MissingRequiredColumnYieldsEmpty(t *testing.T) {
	table, err := Parse(strings.NewReader("fqn,release\n\"method:g(z)::param:z\",1.0\n"), "lib", nil)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestParse_EmptyInput(t *testing.T) {
	table, err := Parse(strings.NewReader(""), "lib", nil)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	csv := `fqn,version
"method:short(x)::param:x"
"method:blank(x)::param:x",
,1.0
"method:noparam(x)",1.0
"method:ok(x)::param:x",1.0
`
	table, err := Parse(strings.NewReader(csv), "lib", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, table.Keys())
}

func TestParse_ContinuesAfterCSVParseError(t *testing.T) {
	csv := "fqn,version\nmethod:bad\"quote(x)::param:x,1.0\n\"method:good(x)::param:x\",1.0\n"
	table, err := Parse(strings.NewReader(csv), "lib", nil)
	require.NoError(t, err)
	assert.Contains(t, table, "good")
	assert.NotContains(t, table, "bad\"quote")
}
