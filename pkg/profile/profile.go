// Package profile loads agent profiles from markdown files with YAML
// frontmatter. A profile predefines an agent's name, capabilities and
// configuration; the markdown body is free-form persona notes shown to the
// user, not interpreted by the agent.
package profile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/pranav-agent/pranav/pkg/agent"
	"github.com/pranav-agent/pranav/pkg/logger"
)

// Metadata is the YAML frontmatter of a profile file.
type Metadata struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	AgentName    string         `yaml:"agent_name,omitempty"`
	Capabilities []string       `yaml:"capabilities,omitempty"`
	Config       map[string]any `yaml:"config,omitempty"`
}

// Profile is a loaded profile: its metadata, persona body and source path.
type Profile struct {
	Metadata Metadata
	Persona  string
	Path     string
}

// Options translates the profile into agent construction options.
func (p *Profile) Options() []agent.Option {
	opts := []agent.Option{
		agent.WithName(p.Metadata.AgentName),
		agent.WithCapabilities(p.Metadata.Capabilities...),
	}
	if len(p.Metadata.Config) > 0 {
		opts = append(opts, agent.WithConfig(p.Metadata.Config))
	}
	return opts
}

// Loader discovers and parses profile files from disk.
type Loader struct {
	profileDirs []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithDirs sets custom profile directories, searched in order.
func WithDirs(dirs ...string) LoaderOption {
	return func(l *Loader) error {
		if len(dirs) == 0 {
			return errors.New("at least one profile directory must be specified")
		}
		l.profileDirs = dirs
		return nil
	}
}

// WithDefaultDirs sets the default profile directories. The repository
// directory takes precedence over the user's home directory.
func WithDefaultDirs() LoaderOption {
	return func(l *Loader) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		l.profileDirs = []string{
			filepath.Join(".pranav", "agents"),
			filepath.Join(homeDir, ".pranav", "agents"),
		}
		return nil
	}
}

// NewLoader creates a profile loader. Without options it searches the
// default directories.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply profile loader option")
		}
	}

	if len(l.profileDirs) == 0 {
		if err := WithDefaultDirs()(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply default profile directories")
		}
	}

	return l, nil
}

// findProfileFile searches the configured directories for a profile file,
// trying both the bare name and a .md suffix.
func (l *Loader) findProfileFile(name string) (string, error) {
	possibleNames := []string{
		name + ".md",
		name,
	}

	for _, dir := range l.profileDirs {
		for _, candidate := range possibleNames {
			fullPath := filepath.Join(dir, candidate)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", errors.Errorf("profile '%s' not found in directories: %v", name, l.profileDirs)
}

// Load loads a single profile by name.
func (l *Loader) Load(ctx context.Context, name string) (*Profile, error) {
	logger.G(ctx).WithField("profile", name).Debug("loading profile")

	path, err := l.findProfileFile(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profile file '%s'", path)
	}

	metadata, persona, err := parseFrontmatter(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse frontmatter in profile '%s'", path)
	}

	if metadata.Name == "" {
		metadata.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	return &Profile{
		Metadata: metadata,
		Persona:  persona,
		Path:     path,
	}, nil
}

// List returns all profiles from the configured directories. When the same
// profile name exists in several directories, the earliest directory wins.
// Files that fail to parse are skipped with a warning.
func (l *Loader) List(ctx context.Context) ([]*Profile, error) {
	var profiles []*Profile
	seen := make(map[string]bool)

	for _, dir := range l.profileDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithField("dir", dir).Debug("profile directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			name := strings.TrimSuffix(entry.Name(), ".md")
			if seen[name] {
				continue
			}

			prof, err := l.Load(ctx, name)
			if err != nil {
				logger.G(ctx).WithField("profile", name).WithError(err).Warn("failed to load profile, skipping")
				continue
			}

			profiles = append(profiles, prof)
			seen[name] = true
		}
	}

	logger.G(ctx).WithField("count", len(profiles)).Debug("loaded profiles")
	return profiles, nil
}

// Validate checks that a profile carries the fields the CLI relies on.
func (l *Loader) Validate(p *Profile) error {
	if p.Metadata.Name == "" {
		return errors.New("profile name is required")
	}
	return nil
}

// parseFrontmatter extracts frontmatter metadata and the persona body from
// profile markdown content.
func parseFrontmatter(content string) (Metadata, string, error) {
	var metadata Metadata

	md := goldmark.New(
		goldmark.WithExtensions(
			meta.Meta,
		),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return metadata, content, errors.Wrap(err, "failed to convert markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return metadata, content, errors.Wrap(err, "invalid frontmatter")
	}
	if metaData != nil {
		if name, ok := metaData["name"].(string); ok {
			metadata.Name = name
		}
		if description, ok := metaData["description"].(string); ok {
			metadata.Description = description
		}
		if agentName, ok := metaData["agent_name"].(string); ok {
			metadata.AgentName = agentName
		}
		if capabilities := metaData["capabilities"]; capabilities != nil {
			metadata.Capabilities = parseStringArrayField(capabilities)
		}
		if config := metaData["config"]; config != nil {
			if configMap, ok := normalizeValue(config).(map[string]any); ok {
				metadata.Config = configMap
			}
		}
	}

	return metadata, extractBodyContent(content), nil
}

// parseStringArrayField handles both YAML arrays and comma-separated strings.
func parseStringArrayField(field any) []string {
	switch v := field.(type) {
	case []any:
		var result []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, strings.TrimSpace(str))
			}
		}
		return result
	case string:
		if v == "" {
			return []string{}
		}
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	default:
		return []string{}
	}
}

// normalizeValue converts the map[interface{}]interface{} trees produced by
// the YAML frontmatter parser into plain map[string]any values.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			strKey, ok := key.(string)
			if !ok {
				continue
			}
			result[strKey] = normalizeValue(item)
		}
		return result
	case []any:
		result := make([]any, 0, len(v))
		for _, item := range v {
			result = append(result, normalizeValue(item))
		}
		return result
	default:
		return v
	}
}

// extractBodyContent returns the markdown body after the YAML frontmatter.
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.Join(lines[frontmatterEnd+1:], "\n")
}
