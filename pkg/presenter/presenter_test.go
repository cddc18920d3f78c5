package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	p := New()

	require.NotNil(t, p)
	assert.Equal(t, os.Stdout, p.output)
	assert.Equal(t, os.Stderr, p.errorOutput)
	assert.False(t, p.quiet)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name        string
		noColor     string
		pranavColor string
		expected    ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"PRANAV_COLOR always", "", "always", ColorAlways},
		{"PRANAV_COLOR force", "", "force", ColorAlways},
		{"PRANAV_COLOR never", "", "never", ColorNever},
		{"PRANAV_COLOR off", "", "off", ColorNever},
		{"PRANAV_COLOR auto", "", "auto", ColorAuto},
		{"unset", "", "", ColorAuto},
		{"unrecognized value", "", "rainbow", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("PRANAV_COLOR", tt.pranavColor)

			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestErrorOutput(t *testing.T) {
	var errOut bytes.Buffer
	p := NewWithOptions(nil, &errOut, ColorNever)

	p.Error(errors.New("engine not found"), "deploy failed")
	assert.Contains(t, errOut.String(), "[ERROR] deploy failed: engine not found")

	errOut.Reset()
	p.Error(errors.New("engine not found"), "")
	assert.Contains(t, errOut.String(), "[ERROR] engine not found")

	errOut.Reset()
	p.Error(nil, "deploy failed")
	assert.Empty(t, errOut.String())
}

func TestErrorIgnoresQuietMode(t *testing.T) {
	var errOut bytes.Buffer
	p := NewWithOptions(nil, &errOut, ColorNever)
	p.SetQuiet(true)

	p.Error(errors.New("still shown"), "")
	assert.Contains(t, errOut.String(), "still shown")
}

func TestQuietModeSuppressesOutput(t *testing.T) {
	tests := []struct {
		name string
		call func(p *TerminalPresenter)
	}{
		{"Success", func(p *TerminalPresenter) { p.Success("done") }},
		{"Warning", func(p *TerminalPresenter) { p.Warning("careful") }},
		{"Info", func(p *TerminalPresenter) { p.Info("note") }},
		{"Section", func(p *TerminalPresenter) { p.Section("Sessions") }},
		{"Separator", func(p *TerminalPresenter) { p.Separator() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewWithOptions(&out, nil, ColorNever)
			p.SetQuiet(true)

			tt.call(p)
			assert.Empty(t, out.String())
		})
	}
}

func TestSuccessAndWarningMarkers(t *testing.T) {
	var out bytes.Buffer
	p := NewWithOptions(&out, nil, ColorNever)

	p.Success("image built")
	p.Warning("config missing, using defaults")

	result := out.String()
	assert.Contains(t, result, "✓ image built")
	assert.Contains(t, result, "⚠ config missing, using defaults")
}

func TestSectionUnderline(t *testing.T) {
	var out bytes.Buffer
	p := NewWithOptions(&out, nil, ColorNever)

	p.Section("Profiles")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Profiles", lines[0])
	assert.Equal(t, strings.Repeat("-", len("Profiles")), lines[1])
}

func TestSeparatorWidth(t *testing.T) {
	var out bytes.Buffer
	p := NewWithOptions(&out, nil, ColorNever)

	p.Separator()
	assert.Equal(t, strings.Repeat("-", 60)+"\n", out.String())
}

func TestQuietToggle(t *testing.T) {
	p := NewWithOptions(&bytes.Buffer{}, &bytes.Buffer{}, ColorNever)

	assert.False(t, p.IsQuiet())
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())
	p.SetQuiet(false)
	assert.False(t, p.IsQuiet())
}
