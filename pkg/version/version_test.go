package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.Equal(t, BuildTime, info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "0.2.0",
		GitCommit: "f3a91c7",
		BuildTime: "2025-06-14T08:30:00Z",
		GoVersion: "go1.25.1",
	}

	assert.Equal(t,
		"Version: 0.2.0, GitCommit: f3a91c7, BuildTime: 2025-06-14T08:30:00Z, GoVersion: go1.25.1",
		info.String())
}

func TestInfoJSON(t *testing.T) {
	info := Info{
		Version:   "0.2.0",
		GitCommit: "f3a91c7",
		BuildTime: "2025-06-14T08:30:00Z",
		GoVersion: "go1.25.1",
	}

	out, err := info.JSON()
	require.NoError(t, err)

	var parsed Info
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, info, parsed)

	expected := `{
  "version": "0.2.0",
  "gitCommit": "f3a91c7",
  "buildTime": "2025-06-14T08:30:00Z",
  "goVersion": "go1.25.1"
}`
	assert.Equal(t, expected, out)
}
