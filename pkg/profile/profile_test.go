package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav-agent/pranav/pkg/agent"
)

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoaderLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := writeProfile(t, tempDir, "researcher.md", `---
name: researcher
description: A research-focused profile
agent_name: Atlas
capabilities: [search, summarize]
config:
  language: en
  limits:
    max_results: 10
---

You are a meticulous researcher. Cite your sources.
`)

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	prof, err := loader.Load(context.Background(), "researcher")
	require.NoError(t, err)

	assert.Equal(t, "researcher", prof.Metadata.Name)
	assert.Equal(t, "A research-focused profile", prof.Metadata.Description)
	assert.Equal(t, "Atlas", prof.Metadata.AgentName)
	assert.Equal(t, []string{"search", "summarize"}, prof.Metadata.Capabilities)
	assert.Equal(t, path, prof.Path)

	require.Contains(t, prof.Metadata.Config, "language")
	assert.Equal(t, "en", prof.Metadata.Config["language"])

	limits, ok := prof.Metadata.Config["limits"].(map[string]any)
	require.True(t, ok, "nested config should normalize to map[string]any")
	assert.Equal(t, 10, limits["max_results"])

	assert.Contains(t, prof.Persona, "meticulous researcher")
}

func TestLoaderLoadCommaSeparatedCapabilities(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "helper.md", `---
name: helper
capabilities: "chat, memory , tasks"
---

Body.
`)

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	prof, err := loader.Load(context.Background(), "helper")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "memory", "tasks"}, prof.Metadata.Capabilities)
}

func TestLoaderLoadDefaultsNameFromFile(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "unnamed.md", `---
description: no name field
---

Body.
`)

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	prof, err := loader.Load(context.Background(), "unnamed")
	require.NoError(t, err)
	assert.Equal(t, "unnamed", prof.Metadata.Name)
}

func TestLoaderLoadWithoutFrontmatter(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "plain.md", "Just a persona with no frontmatter.\n")

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	prof, err := loader.Load(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", prof.Metadata.Name)
	assert.Contains(t, prof.Persona, "no frontmatter")
}

func TestLoaderLoadMissing(t *testing.T) {
	loader, err := NewLoader(WithDirs(t.TempDir()))
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoaderLoadInvalidFrontmatter(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "broken.md", `---
name: [unclosed
---

Body.
`)

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	_, err = loader.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frontmatter")
}

func TestLoaderListPrecedence(t *testing.T) {
	repoDir := t.TempDir()
	homeDir := t.TempDir()

	writeProfile(t, repoDir, "shared.md", `---
name: shared
description: repo copy
---

Repo persona.
`)
	writeProfile(t, homeDir, "shared.md", `---
name: shared
description: home copy
---

Home persona.
`)
	writeProfile(t, homeDir, "home-only.md", `---
name: home-only
---

Home persona.
`)

	loader, err := NewLoader(WithDirs(repoDir, homeDir))
	require.NoError(t, err)

	profiles, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	byName := make(map[string]*Profile)
	for _, prof := range profiles {
		byName[prof.Metadata.Name] = prof
	}

	require.Contains(t, byName, "shared")
	assert.Equal(t, "repo copy", byName["shared"].Metadata.Description)
	assert.Contains(t, byName, "home-only")
}

func TestLoaderListSkipsBrokenProfiles(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "good.md", `---
name: good
---

Fine.
`)
	writeProfile(t, tempDir, "broken.md", `---
name: [unclosed
---

Broken.
`)

	loader, err := NewLoader(WithDirs(tempDir))
	require.NoError(t, err)

	profiles, err := loader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "good", profiles[0].Metadata.Name)
}

func TestLoaderListMissingDirectories(t *testing.T) {
	loader, err := NewLoader(WithDirs(filepath.Join(t.TempDir(), "does-not-exist")))
	require.NoError(t, err)

	profiles, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestProfileOptions(t *testing.T) {
	prof := &Profile{
		Metadata: Metadata{
			Name:         "researcher",
			AgentName:    "Atlas",
			Capabilities: []string{"search"},
			Config:       map[string]any{"language": "en"},
		},
	}

	a := agent.New(context.Background(), prof.Options()...)

	assert.Equal(t, "Atlas", a.Name())
	assert.Equal(t, []string{"search"}, a.Capabilities())

	language, ok := a.ConfigValue("language")
	require.True(t, ok)
	assert.Equal(t, "en", language)
}

func TestProfileOptionsWithoutAgentName(t *testing.T) {
	prof := &Profile{Metadata: Metadata{Name: "plain"}}

	a := agent.New(context.Background(), prof.Options()...)
	assert.Equal(t, agent.DefaultName, a.Name())
}

func TestValidate(t *testing.T) {
	loader, err := NewLoader(WithDirs(t.TempDir()))
	require.NoError(t, err)

	assert.NoError(t, loader.Validate(&Profile{Metadata: Metadata{Name: "ok"}}))
	assert.Error(t, loader.Validate(&Profile{}))
}
