package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskParams(t *testing.T) {
	tests := []struct {
		name     string
		params   []string
		expected map[string]any
	}{
		{
			name:     "no params",
			params:   nil,
			expected: nil,
		},
		{
			name:     "plain string value",
			params:   []string{"topic=weather"},
			expected: map[string]any{"topic": "weather"},
		},
		{
			name:     "json number value",
			params:   []string{"limit=5"},
			expected: map[string]any{"limit": float64(5)},
		},
		{
			name:     "json bool value",
			params:   []string{"verbose=true"},
			expected: map[string]any{"verbose": true},
		},
		{
			name:     "json object value",
			params:   []string{`filter={"region": "eu"}`},
			expected: map[string]any{"filter": map[string]any{"region": "eu"}},
		},
		{
			name:     "value containing equals sign",
			params:   []string{"expr=a=b"},
			expected: map[string]any{"expr": "a=b"},
		},
		{
			name:   "multiple params",
			params: []string{"topic=weather", "limit=5"},
			expected: map[string]any{
				"topic": "weather",
				"limit": float64(5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parameters, err := parseTaskParams(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parameters)
		})
	}
}

func TestParseTaskParamsInvalid(t *testing.T) {
	_, err := parseTaskParams([]string{"missing-separator"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	_, err = parseTaskParams([]string{"=value"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}
