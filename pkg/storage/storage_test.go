package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		want      string
		wantErr   bool
	}{
		{"empty defaults", "", "default", false},
		{"plain name", "users", "users", false},
		{"dots allowed inside", "app.state", "app.state", false},
		{"forward slash rejected", "a/b", "", true},
		{"backslash rejected", `a\b`, "", true},
		{"dot rejected", ".", "", true},
		{"dotdot rejected", "..", "", true},
		{"nul rejected", "a\x00b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveNamespace(tt.namespace)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateKey(t *testing.T) {
	assert.Error(t, validateKey(""))
	assert.Error(t, validateKey("a\x00b"))
	assert.NoError(t, validateKey("user_name"))
	assert.NoError(t, validateKey("with:colon"))
}

func TestEncodeValue(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		encoded, err := encodeValue(map[string]any{"debug": true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"debug": true}`, string(encoded))
	})

	t.Run("raw message passes through", func(t *testing.T) {
		raw := json.RawMessage(`{"theme":"dark"}`)
		encoded, err := encodeValue(raw)
		require.NoError(t, err)
		assert.Equal(t, string(raw), string(encoded))
	})

	t.Run("unencodable value", func(t *testing.T) {
		_, err := encodeValue(make(chan int))
		require.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("PRANAV_BASE_PATH", "/srv/pranav")

	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Backend)
	assert.Equal(t, "/srv/pranav/storage", cfg.Dir)
	assert.Equal(t, "/srv/pranav/pranav.db", cfg.DBFile)
	assert.Equal(t, "/srv/pranav/pranav.bolt", cfg.BoltFile)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
