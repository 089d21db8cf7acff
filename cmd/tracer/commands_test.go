package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "export", "import", "backup", "restore", "reset", "generate"} {
		assert.Contains(t, names, want)
	}
}

func TestReset_RequiresForce(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"reset"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestImportExport_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.yaml")
	body := "storage:\n  dataDir: " + dir + "\nlogger:\n  dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(conf, []byte(body), 0600))

	csv := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csv, []byte("Weight,70.5,2024-06-15T09:30:00.000Z\n"), 0600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", conf, "import", csv})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Imported 1 data points")

	out.Reset()
	rootCmd.SetArgs([]string{"--config", conf, "export"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Series,Value,Timestamp\nWeight,70.5,2024-06-15T09:30:00.000Z\n", out.String())

}

func TestExport_ToFileReportsWriteErrors(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.yaml")
	body := "storage:\n  dataDir: " + dir + "\nlogger:\n  dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(conf, []byte(body), 0600))

	out := filepath.Join(dir, "out.csv")
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", conf, "export", out})
	require.NoError(t, rootCmd.Execute())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Series,Value,Timestamp\n", string(data))
	assert.Contains(t, stderr.String(), "Exported 0 data points")

	rootCmd.SetArgs([]string{"--config", conf, "export", filepath.Join(dir, "missing", "out.csv")})
	assert.Error(t, rootCmd.Execute())

	if _, err := os.Stat("/dev/full"); err == nil {
		rootCmd.SetArgs([]string{"--config", conf, "export", "/dev/full"})
		assert.Error(t, rootCmd.Execute())
	}
}
