package dabcheck

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dabcheck/dabcheck/internal/report"
	"github.com/dabcheck/dabcheck/internal/types"
)

const trainPy = `import numpy as np
from sklearn.cluster import KMeans

model = KMeans(n_clusters=8)
total = np.sum(values, dtype=float)
`

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestCLI_ScanJSONAndExitCode(t *testing.T) {
	dir := writeRepo(t, map[string]string{"train.py": trainPy})

	out, err := runCLI(t, "scan", "--json", "-p", dir)
	require.ErrorIs(t, err, errFailOn)

	var fs []types.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &fs))
	require.Len(t, fs, 1)
	assert.Equal(t, "KMeans", fs[0].Key)
	assert.Equal(t, "train.py", fs[0].Path)
	assert.Equal(t, 4, fs[0].Line)
	assert.Contains(t, fs[0].Missing, "n_init")
	assert.Equal(t, types.SevMed, fs[0].Severity)

	_, err = runCLI(t, "scan", "--json", "--fail-on", "high", "-p", dir)
	assert.NoError(t, err)
}

func TestCLI_ScanEmptyJSONIsArray(t *testing.T) {
	dir := writeRepo(t, map[string]string{"ok.py": "print('hi')\n"})
	out, err := runCLI(t, "scan", "--json", "-p", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCLI_ScanFlagsAndConfig(t *testing.T) {
	dir := writeRepo(t, map[string]string{
		"train.py":      trainPy,
		".dabcheck.yml": "severity:\n  sklearn: high\nfail_on: high\n",
	})

	out, err := runCLI(t, "scan", "--json", "-p", dir)
	require.ErrorIs(t, err, errFailOn)
	var fs []types.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &fs))
	require.Len(t, fs, 1)
	assert.Equal(t, types.SevHigh, fs[0].Severity)

	out, err = runCLI(t, "scan", "--json", "--disable", "sklearn", "-p", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = runCLI(t, "scan", "--json", "--ignore", "KMeans", "-p", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	// KMeans n_init changed in 1.4
	out, err = runCLI(t, "scan", "--json", "--since", "2.0", "-p", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCLI_ScanTextAndSARIF(t *testing.T) {
	dir := writeRepo(t, map[string]string{"train.py": trainPy})

	out, err := runCLI(t, "scan", "--text", "--context", "--no-color", "-p", dir)
	require.ErrorIs(t, err, errFailOn)
	assert.Contains(t, out, "train.py:4:9")
	assert.Contains(t, out, "│ model = KMeans(n_clusters=8)")

	out, err = runCLI(t, "scan", "--sarif", "-p", dir)
	require.ErrorIs(t, err, errFailOn)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.1.0", doc["version"])

	out, err = runCLI(t, "scan", "--no-color", "--fail-on", "high", "-p", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "KMeans")
}

func TestCLI_BaselineSuppressesKnownFindings(t *testing.T) {
	dir := writeRepo(t, map[string]string{"train.py": trainPy})

	out, err := runCLI(t, "baseline", "update", "-p", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Baseline updated")
	base, err := report.LoadBaseline(filepath.Join(dir, report.DefaultBaselineFile))
	require.NoError(t, err)
	assert.Len(t, base.Items, 1)

	out, err = runCLI(t, "scan", "--json", "-p", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestCLI_ScanRejectsStagedWithChanged(t *testing.T) {
	_, err := runCLI(t, "scan", "--staged", "--changed", "-p", t.TempDir())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errFailOn)
}

func TestCLI_Libraries(t *testing.T) {
	out, err := runCLI(t, "libraries", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "numpy")
	assert.Contains(t, out, "sklearn")
	assert.Contains(t, out, "bundled")

	out, err = runCLI(t, "libraries", "show", "sklearn", "--json")
	require.NoError(t, err)
	var rows []tableRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, rows, sortedRows(mustLoad(t, "sklearn")))

	_, err = runCLI(t, "libraries", "show", "torch")
	assert.Error(t, err)
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, ".dabcheck.yml")

	out, err := runCLI(t, "config", "init", "--output", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	_, err = runCLI(t, "config", "init", "--output", target)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(target, []byte("threads: 3\nenable: numpy\n"), 0o644))
	out, err = runCLI(t, "config", "show", "-p", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "threads: 3")
	assert.Contains(t, out, "enable: numpy")
}

func TestCLI_Completion(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "dabcheck")
	_, err = runCLI(t, "completion", "tcsh")
	assert.Error(t, err)
}
