package model_test

import (
	"strings"
	"testing"

	"github.com/sofind/sofind/internal/model"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yml := `
version: 0
scan:
  patterns: ["*.so", "*.so.*"]
  jobs: 8
  all: true
  machine: x86_64
log:
  verbose: true
`
	cfg, err := model.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, []string{"*.so", "*.so.*"}, cfg.Scan.Patterns)
	require.Equal(t, 8, cfg.Scan.Jobs)
	require.True(t, cfg.Scan.All)
	require.Equal(t, "x86_64", cfg.Scan.Machine)
	require.EqualValues(t, 64<<20, cfg.Scan.MaxFileSize, "unset fields pick schema defaults")
	require.True(t, cfg.Log.Verbose)
}

func TestLoadConfigDefaults(t *testing.T) {
	// an empty document is a valid config, every field has a default
	cfg, err := model.LoadConfig(strings.NewReader("version: 0\n"))
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), cfg)

	require.Equal(t, []string{"*.so*"}, cfg.Scan.Patterns)
	require.Equal(t, 4, cfg.Scan.Jobs)
	require.False(t, cfg.Scan.All, "default is stop at first match")
	require.Empty(t, cfg.Scan.Machine)
	require.False(t, cfg.Log.Verbose)
}

func TestLoadConfig_Fail(t *testing.T) {
	var testCases = []struct {
		scenario string
		yml      string
	}{
		{"jobs below one", "scan:\n  jobs: 0\n"},
		{"wrong version", "version: 1\n"},
		{"unknown field", "scan:\n  threads: 4\n"},
		{"empty pattern", "scan:\n  patterns: [\"\"]\n"},
		{"invalid glob", "scan:\n  patterns: [\"[\"]\n"},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			_, err := model.LoadConfig(strings.NewReader(tt.yml))
			require.Error(t, err)
		})
	}
}

func TestCueErrDetails(t *testing.T) {
	_, err := model.LoadConfig(strings.NewReader("scan:\n  jobs: zero\n"))
	require.Error(t, err)

	details := model.CueErrDetails(err)
	require.NotEmpty(t, details)
	require.Equal(t, "scan.jobs", details[0].Path)

	require.Nil(t, model.CueErrDetails(nil))
}
