package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/celltrack-go/celltrack"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommandTable(t *testing.T) {
	input := writeFile(t, "division.yaml", divisionYAML)
	out, err := executeCommand(t, "run", "--input", input, "--tracks")
	require.NoError(t, err)
	assert.Contains(t, out, "Divisions")
	assert.Contains(t, out, "dividing-in-next")
	assert.Contains(t, out, "divided")
}

func TestRunCommandJSON(t *testing.T) {
	input := writeFile(t, "division.yaml", divisionYAML)
	metrics := filepath.Join(t.TempDir(), "metrics.prom")
	out, err := executeCommand(t, "run", "--input", input, "--json", "--algorithm", "optimal", "--metrics-out", metrics)
	require.NoError(t, err)

	var report celltrack.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Frames)
	assert.Equal(t, 3, report.Tracks)
	assert.Equal(t, 1, report.Divisions)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "celltrack_divisions_total 1")
}

func TestRunCommandErrors(t *testing.T) {
	_, err := executeCommand(t, "run")
	assert.EqualError(t, err, "--input is required")

	input := writeFile(t, "division.yaml", divisionYAML)
	_, err = executeCommand(t, "run", "--input", input, "--algorithm", "greedy")
	assert.Error(t, err)

	_, err = executeCommand(t, "run", "--input", input, "--log-format", "xml")
	assert.ErrorContains(t, err, `log format: unsupported value "xml"`)
}

func TestConfigCommands(t *testing.T) {
	out, err := executeCommand(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "linkrange = 2")

	path := writeFile(t, "tracker.toml", "linkrange = 3\nalgorithm = \"optimal\"\n")
	out, err = executeCommand(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "linkrange = 3")
	assert.True(t, strings.Contains(out, "algorithm = 'optimal'") || strings.Contains(out, `algorithm = "optimal"`))

	out, err = executeCommand(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	bad := writeFile(t, "bad.toml", "linkrange = 0\n")
	_, err = executeCommand(t, "--config", bad, "config", "validate")
	assert.Error(t, err)
}
